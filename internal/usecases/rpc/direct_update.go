package rpc

import (
	"context"
	"fmt"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	domainrpc "botfleet/internal/domain/rpc"
	"botfleet/pkg/logger"
)

// DirectUpdater implements the direct-DB plane (§4.6): because every
// tenancy shares one database, row-only operations (credential updates,
// status reads, activity logging) short-circuit RPC entirely, so long as
// every write stays scoped to (phoneNumber, serverName=canonicalTenancy).
// It has no method for feature-toggle writes. Lifecycle commands are
// explicitly rejected here; they must go through Dispatcher.Lifecycle.
type DirectUpdater struct {
	bots          bot.Repository
	registrations registry.GlobalRegistrationRepository
	activities    registry.ActivityRepository
	logger        logger.Logger
}

func NewDirectUpdater(
	bots bot.Repository,
	registrations registry.GlobalRegistrationRepository,
	activities registry.ActivityRepository,
	log logger.Logger,
) *DirectUpdater {
	return &DirectUpdater{bots: bots, registrations: registrations, activities: activities, logger: log}
}

// UpdateCredentials writes new credentials onto the bot owned by phone's
// canonical tenancy, resolved through the God Registry, without going
// through signed RPC.
func (d *DirectUpdater) UpdateCredentials(ctx context.Context, phone string, raw []byte) error {
	reg, err := d.registrations.FindByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to resolve canonical tenancy for %s: %w", phone, err)
	}

	tenancy, err := bot.NewTenancyName(reg.Tenancy)
	if err != nil {
		return err
	}
	phoneVO, err := bot.NewPhoneNumber(phone)
	if err != nil {
		return err
	}

	b, err := d.bots.GetBotOnServerByPhone(ctx, tenancy, phoneVO)
	if err != nil {
		return fmt.Errorf("failed to load bot on canonical tenancy: %w", err)
	}

	b.VerifyCredentials(raw)
	if err := d.bots.UpdateBotOnServer(ctx, tenancy, b); err != nil {
		return fmt.Errorf("failed to persist direct-DB credential update: %w", err)
	}

	d.logger.InfoWithFields("direct-DB credential update applied", logger.Fields{
		"phone": phone, "tenancy": reg.Tenancy, "bot_id": b.ID().String(),
	})
	return nil
}

// ReadStatus is a pure row read, safe to short-circuit without RPC.
func (d *DirectUpdater) ReadStatus(ctx context.Context, phone string) (*bot.BotInstance, error) {
	reg, err := d.registrations.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve canonical tenancy for %s: %w", phone, err)
	}
	tenancy, err := bot.NewTenancyName(reg.Tenancy)
	if err != nil {
		return nil, err
	}
	phoneVO, err := bot.NewPhoneNumber(phone)
	if err != nil {
		return nil, err
	}
	return d.bots.GetBotOnServerByPhone(ctx, tenancy, phoneVO)
}

// LogCrossTenancyActivity records an activity row on an arbitrary tenancy,
// used by callers that only need an audit entry, not a Supervisor action.
func (d *DirectUpdater) LogCrossTenancyActivity(ctx context.Context, tenancy, botID, kind, detail string) error {
	a := registry.NewActivity(tenancy, botID, kind, detail)
	return d.activities.CreateCrossTenancy(ctx, tenancy, a)
}

// RejectLifecycleOverDirectDB is called by any caller attempting to route a
// lifecycle command (start/stop/restart) through this plane instead of
// signed HTTP RPC.
func (d *DirectUpdater) RejectLifecycleOverDirectDB() error {
	return domainrpc.ErrLifecycleOverDirectDB
}
