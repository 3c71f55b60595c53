package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"botfleet/internal/domain/bot"
	domainworker "botfleet/internal/domain/worker"
	"botfleet/internal/domain/registry"
	"botfleet/internal/infra/broadcast"
	"botfleet/pkg/logger"
)

const (
	resumeStagger           = 2 * time.Second
	creationWatchdogWindow  = 5 * time.Minute
	approvalNotifyDelay     = 5 * time.Second
	pairingWatchdogWindow   = 4 * time.Minute
	connectionTestTimeout   = 60 * time.Second
)

// botEntry holds everything the Supervisor tracks for one live bot: its
// Worker, and a capacity-1 channel acting as a per-bot mutex so
// start/stop/restart/destroy on the same bot always execute in invocation
// order while different bots proceed concurrently.
type botEntry struct {
	opLock           chan struct{}
	worker           domainworker.Worker
	creationWatchdog *time.Timer
	pairingWatchdog  *time.Timer
}

func newBotEntry() *botEntry {
	return &botEntry{opLock: make(chan struct{}, 1)}
}

func (e *botEntry) lock()   { e.opLock <- struct{}{} }
func (e *botEntry) unlock() { <-e.opLock }

// Supervisor is the Bot Supervisor (C4): a per-tenancy registry of live
// Workers, keyed by botID, doubling as the realtime broadcaster for every
// state transition it drives.
type Supervisor struct {
	tenancy          bot.TenancyName
	factory          domainworker.Factory
	botRepo          bot.Repository
	activityRepo     registry.ActivityRepository
	registrationRepo registry.GlobalRegistrationRepository
	serverRepo       registry.ServerRepository
	broadcaster      *broadcast.Broadcaster
	logger           logger.Logger

	mu      sync.RWMutex
	entries map[string]*botEntry
}

func NewSupervisor(
	tenancy bot.TenancyName,
	factory domainworker.Factory,
	botRepo bot.Repository,
	activityRepo registry.ActivityRepository,
	registrationRepo registry.GlobalRegistrationRepository,
	serverRepo registry.ServerRepository,
	broadcaster *broadcast.Broadcaster,
	log logger.Logger,
) *Supervisor {
	return &Supervisor{
		tenancy:          tenancy,
		factory:          factory,
		botRepo:          botRepo,
		activityRepo:     activityRepo,
		registrationRepo: registrationRepo,
		serverRepo:       serverRepo,
		broadcaster:      broadcaster,
		logger:           log,
		entries:          make(map[string]*botEntry),
	}
}

func (s *Supervisor) entryFor(botID string) *botEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[botID]
	if !ok {
		e = newBotEntry()
		s.entries[botID] = e
	}
	return e
}

func (s *Supervisor) publish(kind broadcast.EventKind, botID, detail string) {
	s.broadcaster.Publish(broadcast.Event{Kind: kind, Tenancy: s.tenancy.String(), BotID: botID, Detail: detail})
}

func (s *Supervisor) logActivity(ctx context.Context, botID, kind, detail string) {
	a := registry.NewActivity(s.tenancy.String(), botID, kind, detail)
	if err := s.activityRepo.Create(ctx, a); err != nil {
		s.logger.ErrorWithError("failed to log activity", err, logger.Fields{"bot_id": botID, "kind": kind})
	}
}

// CreateBot persists a brand-new BotInstance and, if it already carries
// credentials, arms the 5-minute creation watchdog: if the bot is still
// loading/error at expiry it is auto-deleted.
func (s *Supervisor) CreateBot(ctx context.Context, b *bot.BotInstance) error {
	if err := s.botRepo.Create(ctx, b.Tenancy(), b); err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	s.logActivity(ctx, b.ID().String(), "bot_created", "bot instance registered")

	if b.HasCredentials() {
		s.armCreationWatchdog(b.ID())
	}
	return nil
}

func (s *Supervisor) armCreationWatchdog(id bot.BotID) {
	e := s.entryFor(id.String())
	e.creationWatchdog = time.AfterFunc(creationWatchdogWindow, func() {
		s.onCreationTimeout(id)
	})
}

func (s *Supervisor) onCreationTimeout(id bot.BotID) {
	ctx := context.Background()
	e := s.entryFor(id.String())
	e.lock()
	defer e.unlock()

	current, err := s.botRepo.GetByID(ctx, s.tenancy, id)
	if err != nil {
		return
	}
	if current.Status() != bot.StatusLoading && current.Status() != bot.StatusError {
		return
	}

	if err := s.botRepo.Delete(ctx, current.Tenancy(), id); err != nil {
		s.logger.ErrorWithError("failed to auto-delete stalled bot", err, logger.Fields{"bot_id": id.String()})
		return
	}
	s.logActivity(ctx, id.String(), "auto_cleanup", "bot deleted after creation watchdog expiry")
	s.publish(broadcast.EventAutoCleanup, id.String(), "creation watchdog expired")

	s.mu.Lock()
	delete(s.entries, id.String())
	s.mu.Unlock()
}

// StartBot creates the Worker if needed and starts it.
func (s *Supervisor) StartBot(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	e := s.entryFor(id.String())
	e.lock()
	defer e.unlock()

	b, err := s.botRepo.GetByID(ctx, tenancy, id)
	if err != nil {
		return fmt.Errorf("failed to load bot: %w", err)
	}

	if e.worker == nil {
		w, err := s.factory.NewWorker(id.String(), tenancy.String(), b.ProxyURL().String(), s)
		if err != nil {
			return fmt.Errorf("failed to build worker: %w", err)
		}
		e.worker = w
	}

	b.SetLoading()
	if err := s.botRepo.Update(ctx, tenancy, b); err != nil {
		s.logger.ErrorWithError("failed to persist loading status", err, logger.Fields{"bot_id": id.String()})
	}
	s.publish(broadcast.EventBotConnecting, id.String(), "")

	if err := e.worker.Start(ctx); err != nil {
		if err == domainworker.ErrAlreadyStarted {
			return nil
		}
		b.SetError(err.Error())
		_ = s.botRepo.Update(ctx, tenancy, b)
		s.publish(broadcast.EventBotError, id.String(), err.Error())
		return fmt.Errorf("failed to start worker: %w", err)
	}
	return nil
}

// StopBot stops the live Worker, if any, and marks the bot offline.
func (s *Supervisor) StopBot(ctx context.Context, tenancy bot.TenancyName, id bot.BotID, preserveCredentials bool) error {
	e := s.entryFor(id.String())
	e.lock()
	defer e.unlock()

	if e.worker != nil {
		if err := e.worker.Stop(ctx, preserveCredentials); err != nil {
			s.logger.ErrorWithError("failed to stop worker", err, logger.Fields{"bot_id": id.String()})
		}
	}

	b, err := s.botRepo.GetByID(ctx, tenancy, id)
	if err != nil {
		return fmt.Errorf("failed to load bot: %w", err)
	}
	b.SetOffline()
	if err := s.botRepo.Update(ctx, tenancy, b); err != nil {
		return fmt.Errorf("failed to persist offline status: %w", err)
	}
	s.publish(broadcast.EventBotDisconnected, id.String(), "stopped by request")
	return nil
}

// RestartBot stops then starts the bot; used after credential rotation.
func (s *Supervisor) RestartBot(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	if err := s.StopBot(ctx, tenancy, id, true); err != nil {
		return err
	}
	return s.StartBot(ctx, tenancy, id)
}

// DestroyBot stops the worker unconditionally, releases it, and cascades the
// delete: Activity rows, then the BotInstance row, then the God Registry
// entry reserving its phone number, then the tenancy's active count.
// Commands carry no bot-level linkage in this schema (they are per-tenancy
// declarative records), so there is nothing to cascade there.
func (s *Supervisor) DestroyBot(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	e := s.entryFor(id.String())
	e.lock()
	if e.worker != nil {
		_ = e.worker.Stop(ctx, false)
		_ = e.worker.Close()
	}
	if e.creationWatchdog != nil {
		e.creationWatchdog.Stop()
	}
	if e.pairingWatchdog != nil {
		e.pairingWatchdog.Stop()
	}
	e.unlock()

	s.mu.Lock()
	delete(s.entries, id.String())
	s.mu.Unlock()

	b, err := s.botRepo.GetByID(ctx, tenancy, id)
	if err != nil {
		if bot.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to load bot before delete: %w", err)
	}

	if err := s.activityRepo.DeleteByBot(ctx, tenancy.String(), id.String()); err != nil {
		s.logger.ErrorWithError("failed to delete bot activities", err, logger.Fields{"bot_id": id.String()})
	}

	if err := s.botRepo.Delete(ctx, tenancy, id); err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}

	if err := s.registrationRepo.Delete(ctx, b.PhoneNumber().String()); err != nil && err != registry.ErrGlobalRegistrationMissing {
		s.logger.ErrorWithError("failed to delete global registration", err, logger.Fields{"bot_id": id.String(), "phone": b.PhoneNumber().String()})
	}

	if err := s.serverRepo.UpdateActiveCount(ctx, tenancy.String(), -1); err != nil {
		s.logger.ErrorWithError("failed to decrement active count after delete", err, logger.Fields{"tenancy": tenancy.String()})
	}

	s.publish(broadcast.EventBotDeleted, id.String(), "")
	return nil
}

// GetStatus reports the Supervisor's live view of one bot's connection
// state, falling back to ConnectionOffline when no Worker is tracked.
func (s *Supervisor) GetStatus(botID string) domainworker.ConnectionStatus {
	s.mu.RLock()
	e, ok := s.entries[botID]
	s.mu.RUnlock()
	if !ok || e.worker == nil {
		return domainworker.ConnectionOffline
	}
	return e.worker.GetStatus()
}

// GetAllStatuses snapshots every tracked bot's connection state.
func (s *Supervisor) GetAllStatuses() map[string]domainworker.ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domainworker.ConnectionStatus, len(s.entries))
	for id, e := range s.entries {
		if e.worker != nil {
			out[id] = e.worker.GetStatus()
		} else {
			out[id] = domainworker.ConnectionOffline
		}
	}
	return out
}

// SendMessageThroughBot sends a direct message through a live worker.
func (s *Supervisor) SendMessageThroughBot(ctx context.Context, botID, jid, text string) error {
	s.mu.RLock()
	e, ok := s.entries[botID]
	s.mu.RUnlock()
	if !ok || e.worker == nil {
		return domainworker.ErrNotOnline
	}
	return e.worker.SendDirectMessage(ctx, jid, text)
}

// GenerateQR asks the bot's Worker for a QR pairing code. It arms no
// watchdog; callers arm one with ArmPairingWatchdog. The Worker must
// already exist, i.e. StartBot was called first.
func (s *Supervisor) GenerateQR(ctx context.Context, botID string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[botID]
	s.mu.RUnlock()
	if !ok || e.worker == nil {
		return "", domainworker.ErrNotOnline
	}
	return e.worker.GenerateQR(ctx)
}

// PairPhone requests a pairing code for a phone number on the bot's Worker.
func (s *Supervisor) PairPhone(ctx context.Context, botID, phone string) (string, error) {
	s.mu.RLock()
	e, ok := s.entries[botID]
	s.mu.RUnlock()
	if !ok || e.worker == nil {
		return "", domainworker.ErrNotOnline
	}
	return e.worker.PairPhone(ctx, phone)
}

// ResumeAll enumerates every eligible BotInstance in this tenancy (approved
// and either credential-verified or credential-less) and starts its Worker,
// staggered by resumeStagger to avoid a thundering-herd handshake load. Each
// start is isolated: a failing Worker logs error on its own row and
// broadcasts BOT_ERROR without blocking the rest of the batch.
func (s *Supervisor) ResumeAll(ctx context.Context, tenancy bot.TenancyName) error {
	approved := bot.ApprovalApproved
	bots, _, err := s.botRepo.ListByApprovalStatus(ctx, tenancy, approved, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list bots for resume: %w", err)
	}

	eligible := make([]*bot.BotInstance, 0, len(bots))
	for _, b := range bots {
		if b.EligibleForAutoStart() {
			eligible = append(eligible, b)
		}
	}

	s.logger.InfoWithFields("resuming bots on startup", logger.Fields{
		"tenancy": tenancy.String(), "count": len(eligible),
	})

	for i, b := range eligible {
		delay := time.Duration(i) * resumeStagger
		id := b.ID()
		time.AfterFunc(delay, func() {
			if err := s.StartBot(context.Background(), tenancy, id); err != nil {
				s.logger.ErrorWithError("resume start failed", err, logger.Fields{"bot_id": id.String()})
			}
		})
	}
	return nil
}

// ScheduleApprovalNotification arms the 5-second delayed, best-effort
// notification sent through the bot itself to its owner's phone after
// approval. Failure is logged and never propagated.
func (s *Supervisor) ScheduleApprovalNotification(botID, ownerPhoneJID, message string) {
	time.AfterFunc(approvalNotifyDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTestTimeout)
		defer cancel()
		if err := s.SendMessageThroughBot(ctx, botID, ownerPhoneJID, message); err != nil {
			s.logger.WarnWithFields("approval notification failed", logger.Fields{
				"bot_id": botID, "error": err.Error(),
			})
		}
	})
	s.publish(broadcast.EventBotApproved, botID, "")
}

// ArmPairingWatchdog bounds a freshly created bot's pairing handshake to
// pairingWatchdogWindow; the caller is expected to clear the watchdog on
// successful authentication.
func (s *Supervisor) ArmPairingWatchdog(botID string, onTimeout func()) {
	e := s.entryFor(botID)
	if e.pairingWatchdog != nil {
		e.pairingWatchdog.Stop()
	}
	e.pairingWatchdog = time.AfterFunc(pairingWatchdogWindow, onTimeout)
}

func (s *Supervisor) ClearPairingWatchdog(botID string) {
	s.mu.RLock()
	e, ok := s.entries[botID]
	s.mu.RUnlock()
	if ok && e.pairingWatchdog != nil {
		e.pairingWatchdog.Stop()
	}
}

// --- domainworker.EventHandler ---
//
// The Supervisor is every Worker's event handler: it persists the resulting
// BotInstance state and republishes it through the broadcaster.

func (s *Supervisor) OnConnecting(botID string) {
	s.publish(broadcast.EventBotConnecting, botID, "")
}

func (s *Supervisor) OnConnected(botID string) {
	s.withBot(botID, func(b *bot.BotInstance) { b.SetOnline() })
	s.publish(broadcast.EventBotConnected, botID, "")
}

func (s *Supervisor) OnQRCode(botID, code string) {
	s.publish(broadcast.EventBotQRCode, botID, code)
}

func (s *Supervisor) OnAuthenticated(botID string) {
	s.ClearPairingWatchdog(botID)
	s.withBot(botID, func(b *bot.BotInstance) { b.SetOnline() })
	s.publish(broadcast.EventBotAuthenticated, botID, "")
}

func (s *Supervisor) OnAuthenticationFailed(botID string, reason string) {
	s.withBot(botID, func(b *bot.BotInstance) {
		b.InvalidateCredentials(reason)
		b.SetError(reason)
	})
	s.publish(broadcast.EventBotError, botID, reason)
}

func (s *Supervisor) OnDisconnected(botID string, reason string) {
	s.withBot(botID, func(b *bot.BotInstance) { b.SetOffline() })
	s.publish(broadcast.EventBotDisconnected, botID, reason)
}

func (s *Supervisor) OnMessage(botID string, fromJID, text string) {
	s.withBot(botID, func(b *bot.BotInstance) { b.IncrementMessagesCount() })
}

func (s *Supervisor) OnError(botID string, err error) {
	s.withBot(botID, func(b *bot.BotInstance) { b.SetError(err.Error()) })
	s.publish(broadcast.EventBotError, botID, err.Error())
}

// withBot loads, mutates, and persists botID's row under its tenancy,
// logging but not propagating any error: event-handler callbacks have no
// caller to return an error to.
func (s *Supervisor) withBot(botID string, mutate func(*bot.BotInstance)) {
	ctx := context.Background()
	id, err := bot.BotIDFromString(botID)
	if err != nil {
		return
	}
	b, err := s.botRepo.GetByID(ctx, s.tenancy, id)
	if err != nil {
		s.logger.ErrorWithError("failed to load bot for event update", err, logger.Fields{"bot_id": botID})
		return
	}
	mutate(b)
	if err := s.botRepo.Update(ctx, s.tenancy, b); err != nil {
		s.logger.ErrorWithError("failed to persist bot event update", err, logger.Fields{"bot_id": botID})
	}
}
