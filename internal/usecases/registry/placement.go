// Package registry implements the Placement Engine (C5): capacity checks
// and the cross-tenancy registration/migration transactions that keep the
// God Registry, the Server catalog's active counts, and each tenancy's
// BotInstance rows mutually consistent.
package registry

import (
	"context"
	"fmt"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	"botfleet/pkg/logger"
)

// TxRepos bundles the repository set bound to a single database transaction,
// handed to the callback passed to TxRunner.RunInTx.
type TxRepos struct {
	Servers       registry.ServerRepository
	Registrations registry.GlobalRegistrationRepository
	Bots          bot.Repository
}

// TxRunner runs fn inside a single database transaction and hands it
// repositories bound to that transaction. An error returned from fn rolls
// the transaction back; a nil return commits it. Implemented by an infra
// adapter over bun.DB.RunInTx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// PlacementEngine resolves where a newly registering phone number's bot
// should live and carries out the transactional moves that follow.
type PlacementEngine struct {
	servers       registry.ServerRepository
	registrations registry.GlobalRegistrationRepository
	bots          bot.Repository
	tx            TxRunner
	logger        logger.Logger
}

func NewPlacementEngine(
	servers registry.ServerRepository,
	registrations registry.GlobalRegistrationRepository,
	bots bot.Repository,
	tx TxRunner,
	log logger.Logger,
) *PlacementEngine {
	return &PlacementEngine{servers: servers, registrations: registrations, bots: bots, tx: tx, logger: log}
}

// ResolveCanonicalTenancy implements placement step 1: an existing global
// registration always wins; absent one, an explicit caller choice is
// honored; absent that, the current tenancy is canonical.
func (p *PlacementEngine) ResolveCanonicalTenancy(ctx context.Context, phone, selectedServer, currentTenancy string) (string, error) {
	existing, err := p.registrations.FindByPhone(ctx, phone)
	if err == nil && existing != nil {
		return existing.Tenancy, nil
	}
	if selectedServer != "" {
		return selectedServer, nil
	}
	return currentTenancy, nil
}

// CheckCapacity implements placement step 2: if the canonical tenancy is
// full and the caller made no explicit choice, fall back to the catalog
// tenancy with the most free slots and capacity>0.
func (p *PlacementEngine) CheckCapacity(ctx context.Context, canonicalTenancy string, explicitChoice bool) (string, error) {
	server, err := p.servers.GetByName(ctx, canonicalTenancy)
	if err != nil {
		return "", fmt.Errorf("failed to load tenancy %q: %w", canonicalTenancy, err)
	}
	if server.HasCapacity() {
		return canonicalTenancy, nil
	}
	if explicitChoice {
		return "", registry.ErrNoTenancyHasCapacity
	}

	all, err := p.servers.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list tenancy catalog: %w", err)
	}

	var best *registry.Server
	for _, s := range all {
		if s.FreeSlots() <= 0 {
			continue
		}
		if best == nil || s.FreeSlots() > best.FreeSlots() {
			best = s
		}
	}
	if best == nil {
		return "", registry.ErrNoTenancyHasCapacity
	}
	return best.Name, nil
}

// CreateCrossServerRegistration implements placement step 3: it persists
// the BotInstance on the target tenancy, records the God Registry mapping,
// and bumps the target's active count inside a single database transaction,
// so a reader never observes a bot row without its registration and a
// mid-sequence failure rolls every write back automatically.
func (p *PlacementEngine) CreateCrossServerRegistration(ctx context.Context, targetTenancy string, b *bot.BotInstance) error {
	tenancy, err := bot.NewTenancyName(targetTenancy)
	if err != nil {
		return fmt.Errorf("invalid target tenancy: %w", err)
	}

	err = p.tx.RunInTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if err := repos.Bots.CreateBotOnServer(ctx, tenancy, b); err != nil {
			return fmt.Errorf("failed to create bot on target tenancy: %w", err)
		}

		reg := registry.NewGlobalRegistration(b.PhoneNumber().String(), targetTenancy, b.ID().String())
		if err := repos.Registrations.Create(ctx, reg); err != nil {
			return fmt.Errorf("failed to create global registration: %w", err)
		}

		if err := repos.Servers.UpdateActiveCount(ctx, targetTenancy, 1); err != nil {
			return fmt.Errorf("failed to bump active count after registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.InfoWithFields("cross-server registration created", logger.Fields{
		"bot_id": b.ID().String(), "tenancy": targetTenancy, "phone": b.PhoneNumber().String(),
	})
	return nil
}

// MigrateBot implements placement step 4: it requires capacity on target,
// atomically relocates the BotInstance row, updates the God Registry entry,
// and adjusts both tenancies' active counts. The phone number remains
// globally unique and points at target after success; any failure rolls
// the move back to source.
func (p *PlacementEngine) MigrateBot(ctx context.Context, id bot.BotID, source, target string) error {
	if source == target {
		return nil
	}

	targetServer, err := p.servers.GetByName(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to load target tenancy: %w", err)
	}
	if !targetServer.HasCapacity() {
		return registry.ErrNoTenancyHasCapacity
	}

	sourceTenancy, err := bot.NewTenancyName(source)
	if err != nil {
		return fmt.Errorf("invalid source tenancy: %w", err)
	}
	targetTenancy, err := bot.NewTenancyName(target)
	if err != nil {
		return fmt.Errorf("invalid target tenancy: %w", err)
	}

	b, err := p.bots.GetBotOnServer(ctx, sourceTenancy, id)
	if err != nil {
		return fmt.Errorf("failed to load bot on source tenancy: %w", err)
	}
	phone := b.PhoneNumber().String()
	b.Relocate(targetTenancy)

	err = p.tx.RunInTx(ctx, func(ctx context.Context, repos TxRepos) error {
		if err := repos.Bots.CreateBotOnServer(ctx, targetTenancy, b); err != nil {
			return fmt.Errorf("failed to create bot on target tenancy: %w", err)
		}
		if err := repos.Bots.DeleteBotOnServer(ctx, sourceTenancy, id); err != nil {
			return fmt.Errorf("failed to remove bot from source tenancy: %w", err)
		}

		reg, err := repos.Registrations.FindByPhone(ctx, phone)
		if err == nil && reg != nil {
			reg.Tenancy = target
			if err := repos.Registrations.Update(ctx, reg); err != nil {
				return fmt.Errorf("failed to update global registration after migration: %w", err)
			}
		}

		if err := repos.Servers.UpdateActiveCount(ctx, source, -1); err != nil {
			return fmt.Errorf("failed to decrement source active count: %w", err)
		}
		if err := repos.Servers.UpdateActiveCount(ctx, target, 1); err != nil {
			return fmt.Errorf("failed to increment target active count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.InfoWithFields("bot migrated", logger.Fields{"bot_id": id.String(), "source": source, "target": target})
	return nil
}
