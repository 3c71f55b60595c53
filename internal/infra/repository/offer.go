package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"botfleet/internal/domain/registry"
	"botfleet/internal/infra/database"
	"botfleet/pkg/logger"
)

// OfferRepository implements registry.OfferRepository using Bun ORM.
type OfferRepository struct {
	db     bun.IDB
	logger logger.Logger
}

func NewOfferRepository(db bun.IDB, logger logger.Logger) registry.OfferRepository {
	return &OfferRepository{db: db, logger: logger}
}

func (r *OfferRepository) Get(ctx context.Context, tenancy string) (*registry.OfferConfig, error) {
	var model database.OfferConfigModel
	err := r.db.NewSelect().Model(&model).Where("tenancy = ?", tenancy).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return registry.DefaultOfferConfig(tenancy), nil
		}
		return nil, fmt.Errorf("failed to get offer config: %w", err)
	}
	return database.FromOfferConfigModel(&model), nil
}

func (r *OfferRepository) Upsert(ctx context.Context, o *registry.OfferConfig) error {
	model := database.ToOfferConfigModel(o)
	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (tenancy) DO UPDATE").
		Set("auto_approve_enabled = EXCLUDED.auto_approve_enabled").
		Set("default_expiration_months = EXCLUDED.default_expiration_months").
		Set("max_free_bots = EXCLUDED.max_free_bots").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert offer config: %w", err)
	}
	return nil
}
