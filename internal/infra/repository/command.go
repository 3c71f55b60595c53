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

// CommandRepository implements registry.CommandRepository using Bun ORM.
type CommandRepository struct {
	db     bun.IDB
	logger logger.Logger
}

func NewCommandRepository(db bun.IDB, logger logger.Logger) registry.CommandRepository {
	return &CommandRepository{db: db, logger: logger}
}

func (r *CommandRepository) Create(ctx context.Context, c *registry.Command) error {
	model := database.ToCommandModel(c)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create command: %w", err)
	}
	return nil
}

func (r *CommandRepository) GetByTrigger(ctx context.Context, tenancy, trigger string) (*registry.Command, error) {
	var model database.CommandModel
	err := r.db.NewSelect().
		Model(&model).
		Where("tenancy = ? AND trigger = ?", tenancy, trigger).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, registry.ErrCommandNotFound
		}
		return nil, fmt.Errorf("failed to get command: %w", err)
	}
	return database.FromCommandModel(&model), nil
}

func (r *CommandRepository) List(ctx context.Context, tenancy string) ([]*registry.Command, error) {
	var models []database.CommandModel
	err := r.db.NewSelect().
		Model(&models).
		Where("tenancy = ?", tenancy).
		Order("trigger ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	out := make([]*registry.Command, 0, len(models))
	for i := range models {
		out = append(out, database.FromCommandModel(&models[i]))
	}
	return out, nil
}

func (r *CommandRepository) Update(ctx context.Context, c *registry.Command) error {
	model := database.ToCommandModel(c)
	result, err := r.db.NewUpdate().
		Model(model).
		Where("id = ? AND tenancy = ?", c.ID, c.Tenancy).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update command: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrCommandNotFound
	}
	return nil
}

func (r *CommandRepository) Delete(ctx context.Context, tenancy, id string) error {
	result, err := r.db.NewDelete().
		Model((*database.CommandModel)(nil)).
		Where("id = ? AND tenancy = ?", id, tenancy).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete command: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return registry.ErrCommandNotFound
	}
	return nil
}
