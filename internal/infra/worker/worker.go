package worker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	domainworker "botfleet/internal/domain/worker"
	"botfleet/pkg/logger"
)

const (
	// maxReconnectAttempts bounds the backoff escalation of §4.3: once a
	// stream disconnect survives this many reconnect attempts, the worker
	// gives up and reports status=error rather than retrying forever.
	maxReconnectAttempts = 6
	baseReconnectDelay   = 2 * time.Second
	maxReconnectDelay    = 2 * time.Minute
)

// Worker implements domainworker.Worker on top of the real whatsmeow client,
// one instance per BotInstance. It owns exactly one whatsmeow device and
// serializes every operation on that device through opMu.
type Worker struct {
	botID   string
	tenancy string
	logger  logger.Logger
	handler domainworker.EventHandler

	opMu sync.Mutex

	container *sqlstore.Container
	device    *store.Device
	client    *whatsmeow.Client

	currentQRBase64 string
	qrMu            sync.RWMutex

	// reconnect drives the bounded exponential-backoff state machine that
	// takes over from whatsmeow's own autoReconnect (disabled on the
	// client) once a stream disconnect is observed.
	reconnectMu     sync.Mutex
	reconnectAttempt int
	reconnectCancel  chan struct{}
}

// Factory builds Workers against a shared whatsmeow device container.
type Factory struct {
	container *sqlstore.Container
	logger    logger.Logger
}

func NewFactory(container *sqlstore.Container, log logger.Logger) domainworker.Factory {
	return &Factory{container: container, logger: log}
}

func (f *Factory) NewWorker(botID, tenancy string, proxyURL string, handler domainworker.EventHandler) (domainworker.Worker, error) {
	return newWorker(botID, tenancy, f.container, proxyURL, handler, f.logger)
}

func parseJID(jidStr string) (types.JID, bool) {
	if jidStr == "" {
		return types.JID{}, false
	}
	jid, err := types.ParseJID(jidStr)
	if err != nil {
		return types.JID{}, false
	}
	return jid, true
}

func getDeviceForBot(ctx context.Context, container *sqlstore.Container, savedJID string, log logger.Logger) (*store.Device, error) {
	if savedJID == "" {
		return container.NewDevice(), nil
	}

	jid, ok := parseJID(savedJID)
	if !ok {
		log.WarnWithFields("invalid stored JID, creating new device", logger.Fields{"jid": savedJID})
		return container.NewDevice(), nil
	}

	device, err := container.GetDevice(ctx, jid)
	if err != nil {
		log.WarnWithFields("failed to load existing device, creating new one", logger.Fields{"jid": savedJID, "error": err.Error()})
		return container.NewDevice(), nil
	}
	return device, nil
}

func newWorker(botID, tenancy string, container *sqlstore.Container, proxyURL string, handler domainworker.EventHandler, log logger.Logger) (*Worker, error) {
	ctx := context.Background()

	// A fresh device is created here; Start on a resumed bot first calls
	// SetJID to rebind the device to the credential-stored JID.
	device, err := getDeviceForBot(ctx, container, "", log)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(device, NewLoggerAdapter(log, "whatsmeow"))
	// Reconnection is driven by this package's own bounded backoff instead
	// of whatsmeow's unbounded built-in retry, so a persistent outage
	// eventually escalates to status=error.
	client.EnableAutoReconnect = false

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		client.SetProxy(http.ProxyURL(parsed))
	}

	w := &Worker{
		botID:           botID,
		tenancy:         tenancy,
		logger:          log,
		handler:         handler,
		container:       container,
		device:          device,
		client:          client,
		reconnectCancel: make(chan struct{}),
	}

	client.AddEventHandler(w.handleEvent)

	return w, nil
}

// SetJID rebinds this worker to an existing device before Start, used when
// resuming a bot whose credentials are already on disk.
func (w *Worker) SetJID(ctx context.Context, jid string) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	device, err := getDeviceForBot(ctx, w.container, jid, w.logger)
	if err != nil {
		return err
	}
	w.device = device
	w.client = whatsmeow.NewClient(device, NewLoggerAdapter(w.logger, "whatsmeow"))
	w.client.EnableAutoReconnect = false
	w.client.AddEventHandler(w.handleEvent)
	return nil
}

func (w *Worker) Start(ctx context.Context) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	if w.client.IsConnected() {
		return domainworker.ErrAlreadyStarted
	}

	if w.handler != nil {
		w.handler.OnConnecting(w.botID)
	}

	if w.client.Store.ID == nil {
		qrChan, err := w.client.GetQRChannel(context.Background())
		if err != nil {
			if !errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
				return fmt.Errorf("failed to get QR channel: %w", err)
			}
			if err := w.client.Connect(); err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			if w.handler != nil {
				w.handler.OnConnected(w.botID)
			}
			return nil
		}

		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		go w.processQRChannel(qrChan)
		return nil
	}

	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if w.handler != nil {
		w.handler.OnConnected(w.botID)
	}
	return nil
}

func (w *Worker) processQRChannel(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			if w.logger.IsDebugEnabled() {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
			png, err := qrcode.Encode(evt.Code, qrcode.Medium, 256)
			if err != nil {
				w.logger.ErrorWithError("failed to encode QR png", err, logger.Fields{"bot_id": w.botID})
				continue
			}
			b64 := base64.StdEncoding.EncodeToString(png)
			w.qrMu.Lock()
			w.currentQRBase64 = b64
			w.qrMu.Unlock()
			if w.handler != nil {
				w.handler.OnQRCode(w.botID, b64)
			}
		case "success":
			w.qrMu.Lock()
			w.currentQRBase64 = ""
			w.qrMu.Unlock()
			if w.handler != nil {
				w.handler.OnAuthenticated(w.botID)
			}
		case "timeout":
			if w.handler != nil {
				w.handler.OnAuthenticationFailed(w.botID, "qr timeout")
			}
		}
	}
}

func (w *Worker) Stop(ctx context.Context, preserveCredentials bool) error {
	w.cancelReconnect()

	w.opMu.Lock()
	defer w.opMu.Unlock()

	if !preserveCredentials && w.client.Store.ID != nil {
		if err := w.client.Logout(ctx); err != nil {
			w.logger.ErrorWithError("failed to logout", err, logger.Fields{"bot_id": w.botID})
		}
	}

	w.client.Disconnect()
	if w.handler != nil {
		w.handler.OnDisconnected(w.botID, "stopped")
	}
	return nil
}

// cancelReconnect stops any in-flight backoff loop, used on an intentional
// Stop/Close so a deliberate disconnect never triggers a reconnect attempt.
func (w *Worker) cancelReconnect() {
	w.reconnectMu.Lock()
	defer w.reconnectMu.Unlock()
	close(w.reconnectCancel)
	w.reconnectCancel = make(chan struct{})
	w.reconnectAttempt = 0
}

func (w *Worker) SendDirectMessage(ctx context.Context, jid string, text string) error {
	if !w.client.IsConnected() {
		return domainworker.ErrNotOnline
	}

	recipient, ok := parseJID(jid)
	if !ok {
		return fmt.Errorf("invalid recipient JID: %s", jid)
	}

	_, err := w.client.SendMessage(ctx, recipient, &waE2E.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (w *Worker) GetStatus() domainworker.ConnectionStatus {
	if !w.client.IsConnected() {
		return domainworker.ConnectionOffline
	}
	if w.client.Store.ID == nil {
		return domainworker.ConnectionLoading
	}
	return domainworker.ConnectionOnline
}

func (w *Worker) GenerateQR(ctx context.Context) (string, error) {
	if w.client.Store.ID != nil {
		return "", fmt.Errorf("already authenticated")
	}
	w.qrMu.RLock()
	defer w.qrMu.RUnlock()
	if w.currentQRBase64 == "" {
		return "", fmt.Errorf("QR code not yet available")
	}
	return w.currentQRBase64, nil
}

func (w *Worker) PairPhone(ctx context.Context, phone string) (string, error) {
	if w.client.Store.ID != nil {
		return "", fmt.Errorf("already authenticated")
	}
	code, err := w.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return "", fmt.Errorf("failed to pair phone: %w", err)
	}
	return code, nil
}

func (w *Worker) Close() error {
	w.cancelReconnect()
	w.client.Disconnect()
	return nil
}

func (w *Worker) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		w.reconnectMu.Lock()
		w.reconnectAttempt = 0
		w.reconnectMu.Unlock()
	case *events.Disconnected:
		if w.handler != nil {
			w.handler.OnDisconnected(w.botID, "stream disconnected")
		}
		go w.attemptReconnect()
	case *events.LoggedOut:
		w.cancelReconnect()
		if w.handler != nil {
			w.handler.OnAuthenticationFailed(w.botID, fmt.Sprintf("logged out: %v", e.Reason))
		}
	case *events.ConnectFailure:
		if w.handler != nil {
			w.handler.OnError(w.botID, fmt.Errorf("connect failure: %v", e.Reason))
		}
	case *events.StreamError:
		if w.handler != nil {
			w.handler.OnError(w.botID, fmt.Errorf("stream error: %s", e.Code))
		}
	case *events.Message:
		if w.handler != nil && e.Message.GetConversation() != "" {
			w.handler.OnMessage(w.botID, e.Info.Sender.String(), e.Message.GetConversation())
		}
	}
}

// attemptReconnect runs the bounded exponential-backoff reconnect state
// machine of §4.3: one failed stream earns a retry after a growing delay,
// capped at maxReconnectDelay; once maxReconnectAttempts is exhausted the
// worker stops trying and escalates to the handler as an error so the
// Supervisor can surface status=error instead of silently staying offline.
func (w *Worker) attemptReconnect() {
	w.reconnectMu.Lock()
	w.reconnectAttempt++
	attempt := w.reconnectAttempt
	cancel := w.reconnectCancel
	w.reconnectMu.Unlock()

	if attempt > maxReconnectAttempts {
		if w.handler != nil {
			w.handler.OnError(w.botID, fmt.Errorf("reconnect budget of %d attempts exhausted", maxReconnectAttempts))
		}
		return
	}

	delay := baseReconnectDelay * time.Duration(1<<uint(attempt-1))
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}

	select {
	case <-cancel:
		return
	case <-time.After(delay):
	}

	w.opMu.Lock()
	defer w.opMu.Unlock()

	select {
	case <-cancel:
		return
	default:
	}

	if w.client.IsConnected() {
		return
	}

	if err := w.client.Connect(); err != nil {
		w.logger.WarnWithFields("reconnect attempt failed", logger.Fields{
			"bot_id": w.botID, "attempt": attempt, "error": err.Error(),
		})
		go w.attemptReconnect()
	}
}
