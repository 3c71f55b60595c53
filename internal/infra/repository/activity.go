package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"botfleet/internal/domain/registry"
	"botfleet/internal/infra/database"
	"botfleet/pkg/logger"
)

// ActivityRepository implements registry.ActivityRepository using Bun ORM.
type ActivityRepository struct {
	db     bun.IDB
	logger logger.Logger
}

// NewActivityRepository accepts either a live *bun.DB or a bun.Tx, so it can
// be bound to a transaction boundary as well as the ambient connection.
func NewActivityRepository(db bun.IDB, logger logger.Logger) registry.ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func (r *ActivityRepository) Create(ctx context.Context, a *registry.Activity) error {
	return r.createOn(ctx, a.Tenancy, a)
}

func (r *ActivityRepository) createOn(ctx context.Context, tenancy string, a *registry.Activity) error {
	model := database.ToActivityModel(a)
	model.Tenancy = tenancy
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByBot(ctx context.Context, tenancy, botID string, limit, offset int) ([]*registry.Activity, int, error) {
	var models []database.ActivityModel
	err := r.db.NewSelect().
		Model(&models).
		Where("tenancy = ? AND bot_id = ?", tenancy, botID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.ActivityModel)(nil)).
		Where("tenancy = ? AND bot_id = ?", tenancy, botID).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	out := make([]*registry.Activity, 0, len(models))
	for i := range models {
		out = append(out, database.FromActivityModel(&models[i]))
	}
	return out, total, nil
}

// DeleteByBot removes every activity row linked to a bot. Used by the bot
// deletion cascade; Commands carry no bot linkage in this schema and are
// left untouched (see DESIGN.md).
func (r *ActivityRepository) DeleteByBot(ctx context.Context, tenancy, botID string) error {
	if _, err := r.db.NewDelete().
		Model((*database.ActivityModel)(nil)).
		Where("tenancy = ? AND bot_id = ?", tenancy, botID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bot activities: %w", err)
	}
	return nil
}

// CreateCrossTenancy writes an activity row onto an arbitrary tenancy. RPC-layer only.
func (r *ActivityRepository) CreateCrossTenancy(ctx context.Context, tenancy string, a *registry.Activity) error {
	r.logger.WarnWithFields("cross-tenancy activity write", logger.Fields{"tenancy": tenancy, "kind": a.Kind})
	return r.createOn(ctx, tenancy, a)
}
