package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	registryuc "botfleet/internal/usecases/registry"
	"botfleet/pkg/logger"
)

// UnitOfWork implements registryuc.TxRunner over a real Bun transaction. Each
// call to RunInTx opens a bun.Tx via DB.RunInTx and constructs a fresh set of
// repositories bound to it (bun.IDB is satisfied by both *bun.DB and bun.Tx),
// so callback code keeps calling ordinary repository methods without knowing
// it is inside a transaction.
type UnitOfWork struct {
	db     *bun.DB
	logger logger.Logger
}

// NewUnitOfWork wires the Placement Engine's TxRunner port to Bun's
// transaction support.
func NewUnitOfWork(db *bun.DB, logger logger.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger}
}

func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, repos registryuc.TxRepos) error) error {
	err := u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repos := registryuc.TxRepos{
			Servers:       NewServerRepository(tx, u.logger),
			Registrations: NewGlobalRegistrationRepository(tx, u.logger),
			Bots:          NewBotRepository(tx, u.logger),
		}
		return fn(ctx, repos)
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
