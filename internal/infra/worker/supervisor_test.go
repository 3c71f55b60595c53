package worker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	domainworker "botfleet/internal/domain/worker"
	"botfleet/internal/infra/broadcast"
	"botfleet/internal/infra/worker"
	"botfleet/pkg/logger"
)

type fakeBotRepo struct {
	bot.Repository
	rows map[string]*bot.BotInstance
}

func newFakeBotRepo() *fakeBotRepo { return &fakeBotRepo{rows: make(map[string]*bot.BotInstance)} }

func (f *fakeBotRepo) key(tenancy bot.TenancyName, id bot.BotID) string {
	return tenancy.String() + "/" + id.String()
}

func (f *fakeBotRepo) Create(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	f.rows[f.key(tenancy, b.ID())] = b
	return nil
}
func (f *fakeBotRepo) GetByID(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, ok := f.rows[f.key(tenancy, id)]
	if !ok {
		return nil, bot.ErrBotNotFound
	}
	return b, nil
}
func (f *fakeBotRepo) Delete(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	k := f.key(tenancy, id)
	if _, ok := f.rows[k]; !ok {
		return bot.ErrBotNotFound
	}
	delete(f.rows, k)
	return nil
}

type fakeActivityRepo struct {
	registry.ActivityRepository
	deletedBotID string
}

func (f *fakeActivityRepo) DeleteByBot(ctx context.Context, tenancy, botID string) error {
	f.deletedBotID = botID
	return nil
}

type fakeRegistrationRepo struct {
	registry.GlobalRegistrationRepository
	byPhone map[string]*registry.GlobalRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byPhone: make(map[string]*registry.GlobalRegistration)}
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, phone string) error {
	if _, ok := f.byPhone[phone]; !ok {
		return registry.ErrGlobalRegistrationMissing
	}
	delete(f.byPhone, phone)
	return nil
}

type fakeServerRepo struct {
	registry.ServerRepository
	activeCount map[string]int
}

func newFakeServerRepo() *fakeServerRepo { return &fakeServerRepo{activeCount: make(map[string]int)} }

func (f *fakeServerRepo) UpdateActiveCount(ctx context.Context, name string, delta int) error {
	f.activeCount[name] += delta
	return nil
}

func testLogger() logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: "console"})
}

func TestDestroyBotCascade(t *testing.T) {
	tenancy, err := bot.NewTenancyName("tenancy-a")
	require.NoError(t, err)
	phone, err := bot.NewPhoneNumber("+15550001111")
	require.NoError(t, err)

	instance := bot.NewBotInstance(tenancy, "support-bot", phone, false)

	botRepo := newFakeBotRepo()
	require.NoError(t, botRepo.Create(context.Background(), tenancy, instance))

	activityRepo := &fakeActivityRepo{}
	registrationRepo := newFakeRegistrationRepo()
	registrationRepo.byPhone[phone.String()] = registry.NewGlobalRegistration(phone.String(), tenancy.String(), instance.ID().String())
	serverRepo := newFakeServerRepo()
	serverRepo.activeCount[tenancy.String()] = 1

	sup := worker.NewSupervisor(tenancy, nil, botRepo, activityRepo, registrationRepo, serverRepo, broadcast.NewBroadcaster(8), testLogger())

	err = sup.DestroyBot(context.Background(), tenancy, instance.ID())
	require.NoError(t, err)

	assert.Equal(t, instance.ID().String(), activityRepo.deletedBotID)

	_, err = botRepo.GetByID(context.Background(), tenancy, instance.ID())
	assert.ErrorIs(t, err, bot.ErrBotNotFound)

	_, ok := registrationRepo.byPhone[phone.String()]
	assert.False(t, ok, "expected the global registration to be removed")

	assert.Equal(t, 0, serverRepo.activeCount[tenancy.String()])
}

func TestDestroyBotNoopWhenAlreadyGone(t *testing.T) {
	tenancy, err := bot.NewTenancyName("tenancy-a")
	require.NoError(t, err)

	botRepo := newFakeBotRepo()
	activityRepo := &fakeActivityRepo{}
	registrationRepo := newFakeRegistrationRepo()
	serverRepo := newFakeServerRepo()

	sup := worker.NewSupervisor(tenancy, nil, botRepo, activityRepo, registrationRepo, serverRepo, broadcast.NewBroadcaster(8), testLogger())

	err = sup.DestroyBot(context.Background(), tenancy, bot.NewBotID())
	assert.NoError(t, err)
	assert.Empty(t, activityRepo.deletedBotID)
}

var _ domainworker.EventHandler = (*worker.Supervisor)(nil)
