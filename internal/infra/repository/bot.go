package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"botfleet/internal/domain/bot"
	"botfleet/internal/infra/database"
	"botfleet/pkg/logger"
)

// BotRepository implements bot.Repository using Bun ORM, scoping every
// tenancy-local method by server_name and leaving the explicitly-named
// cross-tenancy methods as the only way to touch another tenancy's rows.
type BotRepository struct {
	db     bun.IDB
	logger logger.Logger
}

// NewBotRepository creates a new bot repository using Bun ORM. db accepts
// either a live *bun.DB or a bun.Tx, so the same implementation binds a
// repository to a transaction boundary.
func NewBotRepository(db bun.IDB, logger logger.Logger) bot.Repository {
	return &BotRepository{db: db, logger: logger}
}

func (r *BotRepository) Create(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	return r.createOn(ctx, tenancy, b)
}

func (r *BotRepository) createOn(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	model := database.ToBotInstanceModel(b)
	model.ServerName = tenancy.String()

	_, err := r.db.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		r.logger.ErrorWithError("failed to create bot", err, logger.Fields{
			"bot_id": b.ID().String(), "tenancy": tenancy.String(),
		})
		return fmt.Errorf("failed to create bot: %w", err)
	}
	return nil
}

func (r *BotRepository) GetByID(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	return r.getOn(ctx, tenancy, id)
}

func (r *BotRepository) getOn(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	var model database.BotInstanceModel
	err := r.db.NewSelect().
		Model(&model).
		Where("id = ? AND server_name = ?", id.String(), tenancy.String()).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, bot.ErrBotNotFound
		}
		return nil, fmt.Errorf("failed to get bot by id: %w", err)
	}
	return database.FromBotInstanceModel(&model)
}

func (r *BotRepository) GetByName(ctx context.Context, tenancy bot.TenancyName, name string) (*bot.BotInstance, error) {
	var model database.BotInstanceModel
	err := r.db.NewSelect().
		Model(&model).
		Where("name = ? AND server_name = ?", name, tenancy.String()).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, bot.ErrBotNotFound
		}
		return nil, fmt.Errorf("failed to get bot by name: %w", err)
	}
	return database.FromBotInstanceModel(&model)
}

func (r *BotRepository) GetByPhone(ctx context.Context, tenancy bot.TenancyName, phone bot.PhoneNumber) (*bot.BotInstance, error) {
	var model database.BotInstanceModel
	err := r.db.NewSelect().
		Model(&model).
		Where("phone_number = ? AND server_name = ?", phone.String(), tenancy.String()).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, bot.ErrBotNotFound
		}
		return nil, fmt.Errorf("failed to get bot by phone: %w", err)
	}
	return database.FromBotInstanceModel(&model)
}

func (r *BotRepository) List(ctx context.Context, tenancy bot.TenancyName, limit, offset int) ([]*bot.BotInstance, int, error) {
	var models []database.BotInstanceModel
	err := r.db.NewSelect().
		Model(&models).
		Where("server_name = ?", tenancy.String()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bots: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("server_name = ?", tenancy.String()).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bots: %w", err)
	}

	return r.fromModels(models), total, nil
}

func (r *BotRepository) ListByApprovalStatus(ctx context.Context, tenancy bot.TenancyName, status bot.ApprovalStatus, limit, offset int) ([]*bot.BotInstance, int, error) {
	var models []database.BotInstanceModel
	err := r.db.NewSelect().
		Model(&models).
		Where("server_name = ? AND approval_status = ?", tenancy.String(), string(status)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bots by approval status: %w", err)
	}

	total, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("server_name = ? AND approval_status = ?", tenancy.String(), string(status)).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bots by approval status: %w", err)
	}

	return r.fromModels(models), total, nil
}

func (r *BotRepository) Update(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	return r.updateOn(ctx, tenancy, b)
}

func (r *BotRepository) updateOn(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	model := database.ToBotInstanceModel(b)
	model.ServerName = tenancy.String()

	result, err := r.db.NewUpdate().
		Model(model).
		Where("id = ? AND server_name = ?", b.ID().String(), tenancy.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return bot.ErrBotNotFound
	}
	return nil
}

func (r *BotRepository) Delete(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	return r.deleteOn(ctx, tenancy, id)
}

func (r *BotRepository) deleteOn(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	result, err := r.db.NewDelete().
		Model((*database.BotInstanceModel)(nil)).
		Where("id = ? AND server_name = ?", id.String(), tenancy.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return bot.ErrBotNotFound
	}
	return nil
}

func (r *BotRepository) UpdateStatus(ctx context.Context, tenancy bot.TenancyName, id bot.BotID, status bot.Status) error {
	result, err := r.db.NewUpdate().
		Model((*database.BotInstanceModel)(nil)).
		Set("status = ?", status.String()).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ? AND server_name = ?", id.String(), tenancy.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bot status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return bot.ErrBotNotFound
	}
	return nil
}

func (r *BotRepository) CountActive(ctx context.Context, tenancy bot.TenancyName) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("server_name = ? AND status = ?", tenancy.String(), bot.StatusOnline.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bots: %w", err)
	}
	return count, nil
}

func (r *BotRepository) CountApproved(ctx context.Context, tenancy bot.TenancyName) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("server_name = ? AND approval_status = ?", tenancy.String(), string(bot.ApprovalApproved)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count approved bots: %w", err)
	}
	return count, nil
}

func (r *BotRepository) Exists(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("id = ? AND server_name = ?", id.String(), tenancy.String()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check bot existence: %w", err)
	}
	return count > 0, nil
}

func (r *BotRepository) ExistsByName(ctx context.Context, tenancy bot.TenancyName, name string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.BotInstanceModel)(nil)).
		Where("name = ? AND server_name = ?", name, tenancy.String()).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check bot existence by name: %w", err)
	}
	return count > 0, nil
}

// GetBotOnServer reads a bot row from an arbitrary tenancy. RPC-layer only.
func (r *BotRepository) GetBotOnServer(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	r.logger.WarnWithFields("cross-tenancy bot read", logger.Fields{"tenancy": tenancy.String(), "bot_id": id.String()})
	return r.getOn(ctx, tenancy, id)
}

// GetBotOnServerByPhone reads a bot by phone from an arbitrary tenancy. RPC-layer only.
func (r *BotRepository) GetBotOnServerByPhone(ctx context.Context, tenancy bot.TenancyName, phone bot.PhoneNumber) (*bot.BotInstance, error) {
	r.logger.WarnWithFields("cross-tenancy bot read by phone", logger.Fields{"tenancy": tenancy.String(), "phone": phone.String()})
	return r.GetByPhone(ctx, tenancy, phone)
}

// UpdateBotOnServer writes a bot row on an arbitrary tenancy. RPC-layer only.
func (r *BotRepository) UpdateBotOnServer(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	r.logger.WarnWithFields("cross-tenancy bot write", logger.Fields{"tenancy": tenancy.String(), "bot_id": b.ID().String()})
	return r.updateOn(ctx, tenancy, b)
}

// CreateBotOnServer creates a bot row on an arbitrary tenancy. RPC-layer only.
func (r *BotRepository) CreateBotOnServer(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	r.logger.WarnWithFields("cross-tenancy bot create", logger.Fields{"tenancy": tenancy.String(), "bot_id": b.ID().String()})
	return r.createOn(ctx, tenancy, b)
}

// DeleteBotOnServer removes a bot row on an arbitrary tenancy. RPC-layer only.
func (r *BotRepository) DeleteBotOnServer(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	r.logger.WarnWithFields("cross-tenancy bot delete", logger.Fields{"tenancy": tenancy.String(), "bot_id": id.String()})
	return r.deleteOn(ctx, tenancy, id)
}

func (r *BotRepository) fromModels(models []database.BotInstanceModel) []*bot.BotInstance {
	out := make([]*bot.BotInstance, 0, len(models))
	for i := range models {
		b, err := database.FromBotInstanceModel(&models[i])
		if err != nil {
			r.logger.ErrorWithError("failed to convert bot model", err, logger.Fields{"bot_id": models[i].ID})
			continue
		}
		out = append(out, b)
	}
	return out
}
