package bot

import (
	"context"
	"fmt"

	"botfleet/internal/domain/bot"
	"botfleet/internal/infra/worker"
)

// QueryUseCase serves the read-only bot-admin endpoints: get, list, and
// live status, the latter sourced from the Supervisor rather than the
// database since it reflects the in-process Worker's own view.
type QueryUseCase struct {
	bots       bot.Repository
	supervisor *worker.Supervisor
}

func NewQueryUseCase(bots bot.Repository, supervisor *worker.Supervisor) *QueryUseCase {
	return &QueryUseCase{bots: bots, supervisor: supervisor}
}

func (uc *QueryUseCase) Get(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, err := uc.bots.GetByID(ctx, tenancy, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot: %w", err)
	}
	return b, nil
}

func (uc *QueryUseCase) List(ctx context.Context, tenancy bot.TenancyName, limit, offset int) ([]*bot.BotInstance, int, error) {
	return uc.bots.List(ctx, tenancy, limit, offset)
}

// GetAllStatuses returns the Supervisor's live connection-status snapshot
// for every bot it currently tracks in this tenancy.
func (uc *QueryUseCase) GetAllStatuses() map[string]string {
	statuses := uc.supervisor.GetAllStatuses()
	out := make(map[string]string, len(statuses))
	for id, status := range statuses {
		out[id] = status.String()
	}
	return out
}
