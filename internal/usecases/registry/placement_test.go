package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
	domainregistry "botfleet/internal/domain/registry"
	"botfleet/pkg/logger"
	usecase "botfleet/internal/usecases/registry"
)

type fakeServerRepo struct {
	servers map[string]*domainregistry.Server
}

func newFakeServerRepo(servers ...*domainregistry.Server) *fakeServerRepo {
	m := make(map[string]*domainregistry.Server)
	for _, s := range servers {
		m[s.Name] = s
	}
	return &fakeServerRepo{servers: m}
}

func (f *fakeServerRepo) Create(ctx context.Context, s *domainregistry.Server) error {
	f.servers[s.Name] = s
	return nil
}
func (f *fakeServerRepo) GetByName(ctx context.Context, name string) (*domainregistry.Server, error) {
	s, ok := f.servers[name]
	if !ok {
		return nil, domainregistry.ErrServerNotFound
	}
	return s, nil
}
func (f *fakeServerRepo) List(ctx context.Context) ([]*domainregistry.Server, error) {
	out := make([]*domainregistry.Server, 0, len(f.servers))
	for _, s := range f.servers {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeServerRepo) Update(ctx context.Context, s *domainregistry.Server) error {
	f.servers[s.Name] = s
	return nil
}
func (f *fakeServerRepo) UpdateActiveCount(ctx context.Context, name string, delta int) error {
	if s, ok := f.servers[name]; ok {
		s.ActiveCount += delta
	}
	return nil
}
func (f *fakeServerRepo) SetHealthy(ctx context.Context, name string, healthy bool) error {
	if s, ok := f.servers[name]; ok {
		s.Healthy = healthy
	}
	return nil
}

type fakeRegistrationRepo struct {
	byPhone map[string]*domainregistry.GlobalRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byPhone: make(map[string]*domainregistry.GlobalRegistration)}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, g *domainregistry.GlobalRegistration) error {
	f.byPhone[g.PhoneNumber] = g
	return nil
}
func (f *fakeRegistrationRepo) FindByPhone(ctx context.Context, phone string) (*domainregistry.GlobalRegistration, error) {
	g, ok := f.byPhone[phone]
	if !ok {
		return nil, domainregistry.ErrGlobalRegistrationMissing
	}
	return g, nil
}
func (f *fakeRegistrationRepo) Update(ctx context.Context, g *domainregistry.GlobalRegistration) error {
	f.byPhone[g.PhoneNumber] = g
	return nil
}
func (f *fakeRegistrationRepo) Delete(ctx context.Context, phone string) error {
	delete(f.byPhone, phone)
	return nil
}

type fakeBotRepo struct {
	rows map[string]*bot.BotInstance // keyed by tenancy+"/"+id
}

func newFakeBotRepo() *fakeBotRepo {
	return &fakeBotRepo{rows: make(map[string]*bot.BotInstance)}
}

func key(tenancy, id string) string { return tenancy + "/" + id }

func (f *fakeBotRepo) Create(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	f.rows[key(tenancy.String(), b.ID().String())] = b
	return nil
}
func (f *fakeBotRepo) GetByID(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	return f.GetBotOnServer(ctx, tenancy, id)
}
func (f *fakeBotRepo) GetByName(ctx context.Context, tenancy bot.TenancyName, name string) (*bot.BotInstance, error) {
	return nil, bot.ErrBotNotFound
}
func (f *fakeBotRepo) GetByPhone(ctx context.Context, tenancy bot.TenancyName, phone bot.PhoneNumber) (*bot.BotInstance, error) {
	return nil, bot.ErrBotNotFound
}
func (f *fakeBotRepo) List(ctx context.Context, tenancy bot.TenancyName, limit, offset int) ([]*bot.BotInstance, int, error) {
	return nil, 0, nil
}
func (f *fakeBotRepo) ListByApprovalStatus(ctx context.Context, tenancy bot.TenancyName, status bot.ApprovalStatus, limit, offset int) ([]*bot.BotInstance, int, error) {
	return nil, 0, nil
}
func (f *fakeBotRepo) Update(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	return f.UpdateBotOnServer(ctx, tenancy, b)
}
func (f *fakeBotRepo) Delete(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	return f.DeleteBotOnServer(ctx, tenancy, id)
}
func (f *fakeBotRepo) UpdateStatus(ctx context.Context, tenancy bot.TenancyName, id bot.BotID, status bot.Status) error {
	return nil
}
func (f *fakeBotRepo) CountActive(ctx context.Context, tenancy bot.TenancyName) (int, error) {
	return 0, nil
}
func (f *fakeBotRepo) CountApproved(ctx context.Context, tenancy bot.TenancyName) (int, error) {
	return 0, nil
}
func (f *fakeBotRepo) Exists(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (bool, error) {
	_, ok := f.rows[key(tenancy.String(), id.String())]
	return ok, nil
}
func (f *fakeBotRepo) ExistsByName(ctx context.Context, tenancy bot.TenancyName, name string) (bool, error) {
	return false, nil
}
func (f *fakeBotRepo) GetBotOnServer(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, ok := f.rows[key(tenancy.String(), id.String())]
	if !ok {
		return nil, bot.ErrBotNotFound
	}
	return b, nil
}
func (f *fakeBotRepo) GetBotOnServerByPhone(ctx context.Context, tenancy bot.TenancyName, phone bot.PhoneNumber) (*bot.BotInstance, error) {
	return nil, bot.ErrBotNotFound
}
func (f *fakeBotRepo) UpdateBotOnServer(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	f.rows[key(tenancy.String(), b.ID().String())] = b
	return nil
}
func (f *fakeBotRepo) CreateBotOnServer(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	f.rows[key(tenancy.String(), b.ID().String())] = b
	return nil
}
func (f *fakeBotRepo) DeleteBotOnServer(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) error {
	delete(f.rows, key(tenancy.String(), id.String()))
	return nil
}

// fakeTxRunner runs the callback directly against the repos it was built
// with, standing in for a real bun.Tx without needing a database in these
// tests. It does not roll back: a failing step leaves the writes made before
// it in the fakes' in-memory maps.
type fakeTxRunner struct {
	repos usecase.TxRepos
}

func newFakeTxRunner(servers domainregistry.ServerRepository, regs domainregistry.GlobalRegistrationRepository, bots bot.Repository) *fakeTxRunner {
	return &fakeTxRunner{repos: usecase.TxRepos{Servers: servers, Registrations: regs, Bots: bots}}
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, repos usecase.TxRepos) error) error {
	return fn(ctx, f.repos)
}

func testLogger() logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: "console"})
}

func mustTenancy(t *testing.T, raw string) bot.TenancyName {
	t.Helper()
	tn, err := bot.NewTenancyName(raw)
	require.NoError(t, err)
	return tn
}

func mustPhone(t *testing.T, raw string) bot.PhoneNumber {
	t.Helper()
	p, err := bot.NewPhoneNumber(raw)
	require.NoError(t, err)
	return p
}

func TestResolveCanonicalTenancy(t *testing.T) {
	servers := newFakeServerRepo()
	regs := newFakeRegistrationRepo()
	bots := newFakeBotRepo()
	engine := usecase.NewPlacementEngine(servers, regs, bots, newFakeTxRunner(servers, regs, bots), testLogger())

	t.Run("an existing global registration always wins", func(t *testing.T) {
		regs.byPhone["+15550001111"] = domainregistry.NewGlobalRegistration("+15550001111", "tenancy-home", "bot-1")
		tenancy, err := engine.ResolveCanonicalTenancy(context.Background(), "+15550001111", "tenancy-other", "tenancy-current")
		require.NoError(t, err)
		assert.Equal(t, "tenancy-home", tenancy)
	})

	t.Run("absent a registration, an explicit choice is honored", func(t *testing.T) {
		tenancy, err := engine.ResolveCanonicalTenancy(context.Background(), "+15559999999", "tenancy-chosen", "tenancy-current")
		require.NoError(t, err)
		assert.Equal(t, "tenancy-chosen", tenancy)
	})

	t.Run("absent both, the current tenancy is canonical", func(t *testing.T) {
		tenancy, err := engine.ResolveCanonicalTenancy(context.Background(), "+15559999999", "", "tenancy-current")
		require.NoError(t, err)
		assert.Equal(t, "tenancy-current", tenancy)
	})
}

func TestCheckCapacity(t *testing.T) {
	t.Run("canonical tenancy with free slots is used as-is", func(t *testing.T) {
		servers := newFakeServerRepo(&domainregistry.Server{Name: "tenancy-a", Capacity: 10, ActiveCount: 2})
		engine := usecase.NewPlacementEngine(servers, newFakeRegistrationRepo(), newFakeBotRepo(), newFakeTxRunner(servers, newFakeRegistrationRepo(), newFakeBotRepo()), testLogger())

		tenancy, err := engine.CheckCapacity(context.Background(), "tenancy-a", false)
		require.NoError(t, err)
		assert.Equal(t, "tenancy-a", tenancy)
	})

	t.Run("full canonical tenancy with an explicit choice fails", func(t *testing.T) {
		servers := newFakeServerRepo(&domainregistry.Server{Name: "tenancy-a", Capacity: 1, ActiveCount: 1})
		engine := usecase.NewPlacementEngine(servers, newFakeRegistrationRepo(), newFakeBotRepo(), newFakeTxRunner(servers, newFakeRegistrationRepo(), newFakeBotRepo()), testLogger())

		_, err := engine.CheckCapacity(context.Background(), "tenancy-a", true)
		assert.ErrorIs(t, err, domainregistry.ErrNoTenancyHasCapacity)
	})

	t.Run("full canonical tenancy falls back to the tenancy with the most free slots", func(t *testing.T) {
		servers := newFakeServerRepo(
			&domainregistry.Server{Name: "tenancy-a", Capacity: 1, ActiveCount: 1},
			&domainregistry.Server{Name: "tenancy-b", Capacity: 10, ActiveCount: 8},
			&domainregistry.Server{Name: "tenancy-c", Capacity: 10, ActiveCount: 2},
		)
		engine := usecase.NewPlacementEngine(servers, newFakeRegistrationRepo(), newFakeBotRepo(), newFakeTxRunner(servers, newFakeRegistrationRepo(), newFakeBotRepo()), testLogger())

		tenancy, err := engine.CheckCapacity(context.Background(), "tenancy-a", false)
		require.NoError(t, err)
		assert.Equal(t, "tenancy-c", tenancy)
	})

	t.Run("no tenancy has capacity", func(t *testing.T) {
		servers := newFakeServerRepo(&domainregistry.Server{Name: "tenancy-a", Capacity: 1, ActiveCount: 1})
		engine := usecase.NewPlacementEngine(servers, newFakeRegistrationRepo(), newFakeBotRepo(), newFakeTxRunner(servers, newFakeRegistrationRepo(), newFakeBotRepo()), testLogger())

		_, err := engine.CheckCapacity(context.Background(), "tenancy-a", false)
		assert.ErrorIs(t, err, domainregistry.ErrNoTenancyHasCapacity)
	})
}

func TestCreateCrossServerRegistration(t *testing.T) {
	servers := newFakeServerRepo(&domainregistry.Server{Name: "tenancy-b", Capacity: 10, ActiveCount: 0})
	regs := newFakeRegistrationRepo()
	bots := newFakeBotRepo()
	engine := usecase.NewPlacementEngine(servers, regs, bots, newFakeTxRunner(servers, regs, bots), testLogger())

	b := bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "support-bot", mustPhone(t, "+15550001111"), false)
	err := engine.CreateCrossServerRegistration(context.Background(), "tenancy-b", b)
	require.NoError(t, err)

	stored, err := bots.GetBotOnServer(context.Background(), mustTenancy(t, "tenancy-b"), b.ID())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), stored.ID())

	reg, err := regs.FindByPhone(context.Background(), "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "tenancy-b", reg.Tenancy)

	assert.Equal(t, 1, servers.servers["tenancy-b"].ActiveCount)
}

func TestMigrateBot(t *testing.T) {
	servers := newFakeServerRepo(
		&domainregistry.Server{Name: "tenancy-a", Capacity: 10, ActiveCount: 1},
		&domainregistry.Server{Name: "tenancy-b", Capacity: 10, ActiveCount: 0},
	)
	regs := newFakeRegistrationRepo()
	bots := newFakeBotRepo()
	engine := usecase.NewPlacementEngine(servers, regs, bots, newFakeTxRunner(servers, regs, bots), testLogger())

	b := bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "support-bot", mustPhone(t, "+15550001111"), false)
	require.NoError(t, bots.CreateBotOnServer(context.Background(), mustTenancy(t, "tenancy-a"), b))
	require.NoError(t, regs.Create(context.Background(), domainregistry.NewGlobalRegistration("+15550001111", "tenancy-a", b.ID().String())))

	err := engine.MigrateBot(context.Background(), b.ID(), "tenancy-a", "tenancy-b")
	require.NoError(t, err)

	_, err = bots.GetBotOnServer(context.Background(), mustTenancy(t, "tenancy-a"), b.ID())
	assert.ErrorIs(t, err, bot.ErrBotNotFound)

	moved, err := bots.GetBotOnServer(context.Background(), mustTenancy(t, "tenancy-b"), b.ID())
	require.NoError(t, err)
	assert.Equal(t, mustTenancy(t, "tenancy-b"), moved.Tenancy())

	reg, err := regs.FindByPhone(context.Background(), "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "tenancy-b", reg.Tenancy)
}

func TestMigrateBotNoopWhenSourceEqualsTarget(t *testing.T) {
	engine := usecase.NewPlacementEngine(newFakeServerRepo(), newFakeRegistrationRepo(), newFakeBotRepo(), newFakeTxRunner(newFakeServerRepo(), newFakeRegistrationRepo(), newFakeBotRepo()), testLogger())
	err := engine.MigrateBot(context.Background(), bot.NewBotID(), "tenancy-a", "tenancy-a")
	assert.NoError(t, err)
}
