// Package rpc hosts the inbound handling of cross-tenancy RPC operations
// (the HTTP plane's business logic, called by internal/http/handler/rpc.go
// after signature verification) and the direct-DB fast path for operations
// that only touch rows.
package rpc

import (
	"context"
	"fmt"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	domainrpc "botfleet/internal/domain/rpc"
	"botfleet/internal/infra/worker"
	"botfleet/pkg/logger"
)

// Dispatcher executes a verified RPC operation against this tenancy's own
// repositories and Supervisor, and logs a cross-tenancy Activity recording
// the source and operation on every call that succeeds; a call that
// returns an error logs no Activity.
type Dispatcher struct {
	bots         bot.Repository
	activities   registry.ActivityRepository
	supervisor   *worker.Supervisor
	thisTenancy  bot.TenancyName
	logger       logger.Logger
}

func NewDispatcher(
	bots bot.Repository,
	activities registry.ActivityRepository,
	supervisor *worker.Supervisor,
	thisTenancy bot.TenancyName,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{bots: bots, activities: activities, supervisor: supervisor, thisTenancy: thisTenancy, logger: log}
}

func (d *Dispatcher) logInbound(ctx context.Context, sourceServer, botID, op string) {
	a := registry.NewActivity(d.thisTenancy.String(), botID, "rpc_"+op, fmt.Sprintf("from %s", sourceServer))
	if err := d.activities.Create(ctx, a); err != nil {
		d.logger.ErrorWithError("failed to log inbound RPC activity", err, logger.Fields{"op": op, "source": sourceServer})
	}
}

func (d *Dispatcher) Health(ctx context.Context, sourceServer string) (*domainrpc.Envelope, error) {
	d.logInbound(ctx, sourceServer, "", string(domainrpc.OpHealth))
	return &domainrpc.Envelope{Success: true, Data: map[string]string{"tenancy": d.thisTenancy.String()}}, nil
}

func (d *Dispatcher) Create(ctx context.Context, sourceServer string, payload domainrpc.CreatePayload) (*domainrpc.Envelope, error) {
	name, _ := payload.BotData["name"].(string)
	phone, err := bot.NewPhoneNumber(payload.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("invalid phone number in create payload: %w", err)
	}
	isGuest, _ := payload.BotData["isGuest"].(bool)

	instance := bot.NewBotInstance(d.thisTenancy, name, phone, isGuest)
	if err := d.bots.Create(ctx, d.thisTenancy, instance); err != nil {
		return nil, fmt.Errorf("failed to create bot via RPC: %w", err)
	}

	d.logInbound(ctx, sourceServer, instance.ID().String(), string(domainrpc.OpCreate))
	return &domainrpc.Envelope{Success: true, Data: map[string]string{"botId": instance.ID().String()}}, nil
}

func (d *Dispatcher) Update(ctx context.Context, sourceServer string, payload domainrpc.UpdatePayload) (*domainrpc.Envelope, error) {
	id, err := bot.BotIDFromString(payload.BotID)
	if err != nil {
		return nil, err
	}
	b, err := d.bots.GetByID(ctx, d.thisTenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot for RPC update: %w", err)
	}

	if flags, ok := payload.Updates["flags"].(map[string]interface{}); ok {
		typing, _ := payload.Updates["typingMode"].(string)
		presence, _ := payload.Updates["presenceMode"].(string)
		_ = flags
		b.SetPresence(typing, presence)
	}

	if err := d.bots.Update(ctx, d.thisTenancy, b); err != nil {
		return nil, fmt.Errorf("failed to persist RPC update: %w", err)
	}
	d.logInbound(ctx, sourceServer, payload.BotID, string(domainrpc.OpUpdate))
	return &domainrpc.Envelope{Success: true}, nil
}

func (d *Dispatcher) Credentials(ctx context.Context, sourceServer string, payload domainrpc.CredentialsPayload) (*domainrpc.Envelope, error) {
	id, err := bot.BotIDFromString(payload.BotID)
	if err != nil {
		return nil, err
	}
	b, err := d.bots.GetByID(ctx, d.thisTenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot for RPC credential update: %w", err)
	}
	b.VerifyCredentials([]byte(payload.Credentials))
	if err := d.bots.Update(ctx, d.thisTenancy, b); err != nil {
		return nil, fmt.Errorf("failed to persist RPC credential update: %w", err)
	}
	d.logInbound(ctx, sourceServer, payload.BotID, string(domainrpc.OpCredentials))
	return &domainrpc.Envelope{Success: true}, nil
}

// Lifecycle is the only RPC operation that requires an in-process
// Supervisor on the owning tenancy (§4.6): it cannot be short-circuited
// through the direct-DB plane.
func (d *Dispatcher) Lifecycle(ctx context.Context, sourceServer string, payload domainrpc.LifecyclePayload) (*domainrpc.Envelope, error) {
	if !payload.Action.IsValid() {
		return nil, domainrpc.ErrUnsupportedOperation
	}
	id, err := bot.BotIDFromString(payload.BotID)
	if err != nil {
		return nil, err
	}

	switch payload.Action {
	case domainrpc.ActionStart:
		err = d.supervisor.StartBot(ctx, d.thisTenancy, id)
	case domainrpc.ActionStop:
		err = d.supervisor.StopBot(ctx, d.thisTenancy, id, true)
	case domainrpc.ActionRestart:
		err = d.supervisor.RestartBot(ctx, d.thisTenancy, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply RPC lifecycle action: %w", err)
	}

	d.logInbound(ctx, sourceServer, payload.BotID, string(domainrpc.OpLifecycle))
	return &domainrpc.Envelope{Success: true}, nil
}

func (d *Dispatcher) Status(ctx context.Context, sourceServer string, payload domainrpc.StatusPayload) (*domainrpc.Envelope, error) {
	id, err := bot.BotIDFromString(payload.BotID)
	if err != nil {
		return nil, err
	}
	b, err := d.bots.GetByID(ctx, d.thisTenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot for RPC status: %w", err)
	}
	d.logInbound(ctx, sourceServer, payload.BotID, string(domainrpc.OpStatus))
	return &domainrpc.Envelope{Success: true, Data: map[string]string{
		"status": b.Status().String(), "approvalStatus": string(b.ApprovalStatus()),
	}}, nil
}
