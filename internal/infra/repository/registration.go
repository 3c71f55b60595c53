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

// GlobalRegistrationRepository implements registry.GlobalRegistrationRepository
// using Bun ORM. This is the God Registry: the single fleet-wide phone-to-tenancy map.
type GlobalRegistrationRepository struct {
	db     bun.IDB
	logger logger.Logger
}

// NewGlobalRegistrationRepository accepts either a live *bun.DB or a bun.Tx,
// so it can be bound to a transaction boundary as well as the ambient
// connection.
func NewGlobalRegistrationRepository(db bun.IDB, logger logger.Logger) registry.GlobalRegistrationRepository {
	return &GlobalRegistrationRepository{db: db, logger: logger}
}

func (r *GlobalRegistrationRepository) Create(ctx context.Context, g *registry.GlobalRegistration) error {
	model := database.ToGlobalRegistrationModel(g)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create global registration: %w", err)
	}
	return nil
}

func (r *GlobalRegistrationRepository) FindByPhone(ctx context.Context, phone string) (*registry.GlobalRegistration, error) {
	var model database.GlobalRegistrationModel
	err := r.db.NewSelect().Model(&model).Where("phone_number = ?", phone).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, registry.ErrGlobalRegistrationMissing
		}
		return nil, fmt.Errorf("failed to find global registration: %w", err)
	}
	return database.FromGlobalRegistrationModel(&model), nil
}

func (r *GlobalRegistrationRepository) Update(ctx context.Context, g *registry.GlobalRegistration) error {
	model := database.ToGlobalRegistrationModel(g)
	result, err := r.db.NewUpdate().Model(model).Where("phone_number = ?", g.PhoneNumber).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update global registration: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrGlobalRegistrationMissing
	}
	return nil
}

func (r *GlobalRegistrationRepository) Delete(ctx context.Context, phone string) error {
	result, err := r.db.NewDelete().
		Model((*database.GlobalRegistrationModel)(nil)).
		Where("phone_number = ?", phone).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete global registration: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrGlobalRegistrationMissing
	}
	return nil
}
