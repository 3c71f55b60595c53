package bot

import (
	"context"

	"botfleet/internal/domain/bot"
	"botfleet/internal/infra/worker"
)

// ControlUseCase exposes the Supervisor's start/stop/restart operations to
// the admin HTTP layer, enforcing the approval gate the Supervisor itself
// does not know about.
type ControlUseCase struct {
	bots       bot.Repository
	supervisor *worker.Supervisor
}

func NewControlUseCase(bots bot.Repository, supervisor *worker.Supervisor) *ControlUseCase {
	return &ControlUseCase{bots: bots, supervisor: supervisor}
}

func (uc *ControlUseCase) Start(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	b, err := uc.bots.GetByID(ctx, tenancy, id)
	if err != nil {
		return err
	}
	if !b.IsApproved() {
		return bot.ErrBotNotApproved
	}
	return uc.supervisor.StartBot(ctx, tenancy, id)
}

func (uc *ControlUseCase) Stop(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	return uc.supervisor.StopBot(ctx, tenancy, id, true)
}

func (uc *ControlUseCase) Restart(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	return uc.supervisor.RestartBot(ctx, tenancy, id)
}

func (uc *ControlUseCase) SendMessage(ctx context.Context, id bot.BotID, jid, text string) error {
	return uc.supervisor.SendMessageThroughBot(ctx, id.String(), jid, text)
}
