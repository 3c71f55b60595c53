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

// ServerRepository implements registry.ServerRepository using Bun ORM.
type ServerRepository struct {
	db     bun.IDB
	logger logger.Logger
}

// NewServerRepository accepts either a live *bun.DB or a bun.Tx, so it can be
// bound to a transaction boundary as well as the ambient connection.
func NewServerRepository(db bun.IDB, logger logger.Logger) registry.ServerRepository {
	return &ServerRepository{db: db, logger: logger}
}

func (r *ServerRepository) Create(ctx context.Context, s *registry.Server) error {
	model := database.ToServerModel(s)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return nil
}

func (r *ServerRepository) GetByName(ctx context.Context, name string) (*registry.Server, error) {
	var model database.ServerModel
	err := r.db.NewSelect().Model(&model).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, registry.ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return database.FromServerModel(&model), nil
}

func (r *ServerRepository) List(ctx context.Context) ([]*registry.Server, error) {
	var models []database.ServerModel
	if err := r.db.NewSelect().Model(&models).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	out := make([]*registry.Server, 0, len(models))
	for i := range models {
		out = append(out, database.FromServerModel(&models[i]))
	}
	return out, nil
}

func (r *ServerRepository) Update(ctx context.Context, s *registry.Server) error {
	model := database.ToServerModel(s)
	result, err := r.db.NewUpdate().Model(model).Where("name = ?", s.Name).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrServerNotFound
	}
	return nil
}

func (r *ServerRepository) UpdateActiveCount(ctx context.Context, name string, delta int) error {
	result, err := r.db.NewUpdate().
		Model((*database.ServerModel)(nil)).
		Set("active_count = active_count + ?", delta).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update server active count: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrServerNotFound
	}
	return nil
}

func (r *ServerRepository) SetHealthy(ctx context.Context, name string, healthy bool) error {
	result, err := r.db.NewUpdate().
		Model((*database.ServerModel)(nil)).
		Set("healthy = ?", healthy).
		Set("last_seen_at = CURRENT_TIMESTAMP").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set server health: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrServerNotFound
	}
	return nil
}
