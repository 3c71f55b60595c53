package bot

import (
	"context"
	"fmt"
	"time"

	"botfleet/internal/domain/bot"
	registryuc "botfleet/internal/usecases/registry"
	"botfleet/internal/infra/worker"
	"botfleet/pkg/logger"
)

// LifecycleUseCase implements the Lifecycle Orchestrator (C8): admin-driven
// approve/revoke/reject/delete and batch operations over BotInstances,
// coordinating with the Supervisor to start/stop live Workers and with the
// PlacementEngine for approval-triggered migration.
type LifecycleUseCase struct {
	bots       bot.Repository
	supervisor *worker.Supervisor
	placement  *registryuc.PlacementEngine
	logger     logger.Logger
}

func NewLifecycleUseCase(
	bots bot.Repository,
	supervisor *worker.Supervisor,
	placement *registryuc.PlacementEngine,
	log logger.Logger,
) *LifecycleUseCase {
	return &LifecycleUseCase{bots: bots, supervisor: supervisor, placement: placement, logger: log}
}

// ApproveRequest approves a pending/dormant bot, optionally migrating it to
// a different tenancy as part of the same operation.
type ApproveRequest struct {
	Tenancy          bot.TenancyName
	BotID            bot.BotID
	ExpirationMonths int
	TargetTenancy    string
}

func (uc *LifecycleUseCase) Approve(ctx context.Context, req ApproveRequest) (*bot.BotInstance, error) {
	b, err := uc.bots.GetByID(ctx, req.Tenancy, req.BotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot: %w", err)
	}

	if req.TargetTenancy != "" && req.TargetTenancy != req.Tenancy.String() {
		if err := uc.placement.MigrateBot(ctx, req.BotID, req.Tenancy.String(), req.TargetTenancy); err != nil {
			return nil, fmt.Errorf("migration-in-approval failed: %w", err)
		}
		newTenancy, err := bot.NewTenancyName(req.TargetTenancy)
		if err != nil {
			return nil, err
		}
		b, err = uc.bots.GetByID(ctx, newTenancy, req.BotID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload bot after migration: %w", err)
		}
		req.Tenancy = newTenancy
	}

	if err := b.Approve(req.ExpirationMonths); err != nil {
		return nil, err
	}
	if err := uc.bots.Update(ctx, req.Tenancy, b); err != nil {
		return nil, fmt.Errorf("failed to persist approval: %w", err)
	}

	uc.supervisor.ScheduleApprovalNotification(b.ID().String(), b.PhoneNumber().String(), "Your bot has been approved.")

	if b.AutoStart() {
		if err := uc.supervisor.StartBot(ctx, req.Tenancy, b.ID()); err != nil {
			uc.logger.WarnWithFields("auto-start after approval failed", logger.Fields{"bot_id": b.ID().String(), "error": err.Error()})
		}
	}

	return b, nil
}

func (uc *LifecycleUseCase) Revoke(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, err := uc.bots.GetByID(ctx, tenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot: %w", err)
	}
	if err := uc.supervisor.StopBot(ctx, tenancy, id, true); err != nil {
		uc.logger.WarnWithFields("failed to stop worker during revoke", logger.Fields{"bot_id": id.String(), "error": err.Error()})
	}
	if err := b.Revoke(); err != nil {
		return nil, err
	}
	if err := uc.bots.Update(ctx, tenancy, b); err != nil {
		return nil, fmt.Errorf("failed to persist revocation: %w", err)
	}
	return b, nil
}

func (uc *LifecycleUseCase) Reject(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, err := uc.bots.GetByID(ctx, tenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot: %w", err)
	}
	if err := b.Reject(); err != nil {
		return nil, err
	}
	if err := uc.bots.Update(ctx, tenancy, b); err != nil {
		return nil, fmt.Errorf("failed to persist rejection: %w", err)
	}
	return b, nil
}

func (uc *LifecycleUseCase) Delete(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	return uc.supervisor.DestroyBot(ctx, tenancy, id)
}

// IsExpired and ExpirationOf implement the approvalDate + expirationMonths*30d rule.
func (uc *LifecycleUseCase) IsExpired(b *bot.BotInstance, now time.Time) bool {
	return b.IsExpired(now)
}

func (uc *LifecycleUseCase) ExpirationOf(b *bot.BotInstance) *time.Time {
	if b.ApprovalDate() == nil || b.ExpirationMonths() <= 0 {
		return nil
	}
	expiry := b.ApprovalDate().Add(time.Duration(b.ExpirationMonths()) * 30 * 24 * time.Hour)
	return &expiry
}

// BatchItem names one (botId, tenancy) target of a batch operation.
type BatchItem struct {
	Tenancy string
	BotID   string
}

// BatchOperation is one of the lifecycle verbs a batch request may apply.
type BatchOperation string

const (
	BatchStart   BatchOperation = "start"
	BatchStop    BatchOperation = "stop"
	BatchApprove BatchOperation = "approve"
	BatchRevoke  BatchOperation = "revoke"
	BatchDelete  BatchOperation = "delete"
	BatchMigrate BatchOperation = "migrate"
)

// BatchResult carries per-item outcome so a caller can report partial
// success, grounded on the teacher's multi-error aggregation pattern in
// AppContainer.Close.
type BatchResult struct {
	Item  BatchItem
	Error error
}

// BatchOperate applies op to every item, accumulating per-item errors
// instead of aborting on the first failure.
func (uc *LifecycleUseCase) BatchOperate(ctx context.Context, op BatchOperation, items []BatchItem, migrateTarget string) []BatchResult {
	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		err := uc.applyOne(ctx, op, item, migrateTarget)
		results = append(results, BatchResult{Item: item, Error: err})
	}
	return results
}

func (uc *LifecycleUseCase) applyOne(ctx context.Context, op BatchOperation, item BatchItem, migrateTarget string) error {
	tenancy, err := bot.NewTenancyName(item.Tenancy)
	if err != nil {
		return err
	}
	id, err := bot.BotIDFromString(item.BotID)
	if err != nil {
		return err
	}

	switch op {
	case BatchStart:
		return uc.supervisor.StartBot(ctx, tenancy, id)
	case BatchStop:
		return uc.supervisor.StopBot(ctx, tenancy, id, true)
	case BatchApprove:
		_, err := uc.Approve(ctx, ApproveRequest{Tenancy: tenancy, BotID: id})
		return err
	case BatchRevoke:
		_, err := uc.Revoke(ctx, tenancy, id)
		return err
	case BatchDelete:
		return uc.Delete(ctx, tenancy, id)
	case BatchMigrate:
		return uc.placement.MigrateBot(ctx, id, item.Tenancy, migrateTarget)
	default:
		return fmt.Errorf("unknown batch operation: %s", op)
	}
}
