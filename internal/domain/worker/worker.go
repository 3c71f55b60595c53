// Package worker defines the Session Worker contract: the in-process owner
// of one bot's live WhatsApp session, as seen by the Supervisor.
package worker

import (
	"context"
	"errors"
)

// Worker owns one bot's WhatsApp client session.
type Worker interface {
	// Start connects, restoring credentials from disk if present, and
	// begins emitting status events to the handler supplied at construction.
	Start(ctx context.Context) error
	// Stop closes the session cleanly. If preserveCredentials is false the
	// on-disk credential mirror is purged.
	Stop(ctx context.Context, preserveCredentials bool) error
	// SendDirectMessage is a best-effort send; it fails if the worker is
	// not online.
	SendDirectMessage(ctx context.Context, jid, text string) error
	// GetStatus reports the worker's own view of its connection state.
	GetStatus() ConnectionStatus
	// GenerateQR starts a QR-code pairing session and returns the current
	// code, or ErrPairingTimeout if none opened within the pairing window.
	GenerateQR(ctx context.Context) (string, error)
	// PairPhone requests a pairing code for a phone number already known to
	// the worker's credential store.
	PairPhone(ctx context.Context, phone string) (string, error)
	// Close releases all resources unconditionally. Called by the
	// Supervisor on destroy.
	Close() error
}

// ConnectionStatus mirrors bot.Status for the worker's own internal use,
// kept as a distinct type so the worker package has no domain/bot import
// cycle.
type ConnectionStatus int

const (
	ConnectionOffline ConnectionStatus = iota
	ConnectionLoading
	ConnectionOnline
	ConnectionError
)

func (c ConnectionStatus) String() string {
	switch c {
	case ConnectionOffline:
		return "offline"
	case ConnectionLoading:
		return "loading"
	case ConnectionOnline:
		return "online"
	case ConnectionError:
		return "error"
	default:
		return "unknown"
	}
}

// EventHandler receives status events from a Worker. The Supervisor
// implements this interface and persists/broadcasts on each callback.
type EventHandler interface {
	OnConnecting(botID string)
	OnConnected(botID string)
	OnQRCode(botID, code string)
	OnAuthenticated(botID string)
	// OnAuthenticationFailed marks a 401-equivalent disconnect: credentials
	// are revoked and the worker must not auto-reconnect.
	OnAuthenticationFailed(botID string, reason string)
	OnDisconnected(botID string, reason string)
	OnMessage(botID string, fromJID, text string)
	OnError(botID string, err error)
}

var (
	// ErrNotOnline is returned by SendDirectMessage when the worker is not connected.
	ErrNotOnline = errors.New("worker is not online")
	// ErrPairingTimeout is returned when no pairing handshake opens within the window.
	ErrPairingTimeout = errors.New("pairing session timed out waiting for handshake")
	// ErrAlreadyStarted is returned by Start on an already-running worker.
	ErrAlreadyStarted = errors.New("worker already started")
)

// Factory constructs a Worker for one bot, wiring it to the given event
// handler and optional proxy. Implemented in infra/worker.
type Factory interface {
	NewWorker(botID, tenancy string, proxyURL string, handler EventHandler) (Worker, error)
}
