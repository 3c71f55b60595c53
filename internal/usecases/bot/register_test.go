package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
	domainregistry "botfleet/internal/domain/registry"
	"botfleet/internal/infra/credential"
	botuc "botfleet/internal/usecases/bot"
	registryuc "botfleet/internal/usecases/registry"
	"botfleet/pkg/logger"
	"botfleet/pkg/validator"
)

type fakeServerRepo struct {
	domainregistry.ServerRepository
	servers map[string]*domainregistry.Server
}

func newFakeServerRepo(servers ...*domainregistry.Server) *fakeServerRepo {
	m := make(map[string]*domainregistry.Server)
	for _, s := range servers {
		m[s.Name] = s
	}
	return &fakeServerRepo{servers: m}
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
func (f *fakeServerRepo) UpdateActiveCount(ctx context.Context, name string, delta int) error {
	if s, ok := f.servers[name]; ok {
		s.ActiveCount += delta
	}
	return nil
}

type fakeRegistrationRepo struct {
	domainregistry.GlobalRegistrationRepository
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

type fakeBotRepo struct {
	bot.Repository
	rows map[string]*bot.BotInstance
}

func newFakeBotRepo() *fakeBotRepo { return &fakeBotRepo{rows: make(map[string]*bot.BotInstance)} }

func (f *fakeBotRepo) key(tenancy bot.TenancyName, id bot.BotID) string {
	return tenancy.String() + "/" + id.String()
}
func (f *fakeBotRepo) CreateBotOnServer(ctx context.Context, tenancy bot.TenancyName, b *bot.BotInstance) error {
	f.rows[f.key(tenancy, b.ID())] = b
	return nil
}
func (f *fakeBotRepo) GetBotOnServer(ctx context.Context, tenancy bot.TenancyName, id bot.BotID) (*bot.BotInstance, error) {
	b, ok := f.rows[f.key(tenancy, id)]
	if !ok {
		return nil, bot.ErrBotNotFound
	}
	return b, nil
}

type fakeTxRunner struct {
	repos registryuc.TxRepos
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, repos registryuc.TxRepos) error) error {
	return fn(ctx, f.repos)
}

type fakeOfferRepo struct{}

func (fakeOfferRepo) Get(ctx context.Context, tenancy string) (*domainregistry.OfferConfig, error) {
	return domainregistry.DefaultOfferConfig(tenancy), nil
}
func (fakeOfferRepo) Upsert(ctx context.Context, o *domainregistry.OfferConfig) error { return nil }

func testLogger() logger.Logger {
	return logger.New(&logger.Config{Level: "error", Output: "console"})
}

// TestRegisterLocalWritesGlobalRegistration locks in the fix for the bug
// where registering on the caller's own tenancy bypassed the God Registry:
// every registration, local or cross-tenancy, must produce a
// GlobalRegistration row and bump the target tenancy's active count.
func TestRegisterLocalWritesGlobalRegistration(t *testing.T) {
	servers := newFakeServerRepo(&domainregistry.Server{Name: "tenancy-a", Capacity: 10, ActiveCount: 0})
	regs := newFakeRegistrationRepo()
	bots := newFakeBotRepo()
	tx := &fakeTxRunner{repos: registryuc.TxRepos{Servers: servers, Registrations: regs, Bots: bots}}
	placement := registryuc.NewPlacementEngine(servers, regs, bots, tx, testLogger())

	vault := credential.NewVault(t.TempDir(), testLogger())
	uc := botuc.NewRegisterUseCase(bots, fakeOfferRepo{}, placement, vault, "tenancy-a", testLogger(), validator.New())

	resp, err := uc.Execute(context.Background(), botuc.RegisterRequest{
		Name:  "support-01",
		Phone: "+15550001111",
	})
	require.NoError(t, err)
	assert.Equal(t, "tenancy-a", resp.CanonicalTenancy)
	assert.False(t, resp.CrossServer)

	reg, err := regs.FindByPhone(context.Background(), "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "tenancy-a", reg.Tenancy)

	assert.Equal(t, 1, servers.servers["tenancy-a"].ActiveCount)

	_, err = bots.GetBotOnServer(context.Background(), mustTenancy(t, "tenancy-a"), resp.Bot.ID())
	require.NoError(t, err)
}

// TestRegisterDuplicatePhoneResolvesToExistingTenancy verifies the God
// Registry's global-uniqueness invariant holds on the second registration of
// the same phone: it resolves to wherever the first bot actually landed.
func TestRegisterDuplicatePhoneResolvesToExistingTenancy(t *testing.T) {
	servers := newFakeServerRepo(
		&domainregistry.Server{Name: "tenancy-a", Capacity: 10, ActiveCount: 0},
		&domainregistry.Server{Name: "tenancy-b", Capacity: 10, ActiveCount: 0},
	)
	regs := newFakeRegistrationRepo()
	bots := newFakeBotRepo()
	tx := &fakeTxRunner{repos: registryuc.TxRepos{Servers: servers, Registrations: regs, Bots: bots}}
	placement := registryuc.NewPlacementEngine(servers, regs, bots, tx, testLogger())

	vault := credential.NewVault(t.TempDir(), testLogger())
	ucA := botuc.NewRegisterUseCase(bots, fakeOfferRepo{}, placement, vault, "tenancy-a", testLogger(), validator.New())
	ucB := botuc.NewRegisterUseCase(bots, fakeOfferRepo{}, placement, vault, "tenancy-b", testLogger(), validator.New())

	first, err := ucA.Execute(context.Background(), botuc.RegisterRequest{Name: "support-01", Phone: "+15550002222"})
	require.NoError(t, err)
	assert.Equal(t, "tenancy-a", first.CanonicalTenancy)

	second, err := ucB.Execute(context.Background(), botuc.RegisterRequest{Name: "support-02", Phone: "+15550002222"})
	require.NoError(t, err)
	assert.Equal(t, "tenancy-a", second.CanonicalTenancy, "the existing global registration must win over the requesting tenancy")
	assert.True(t, second.CrossServer)
}

func mustTenancy(t *testing.T, raw string) bot.TenancyName {
	t.Helper()
	tn, err := bot.NewTenancyName(raw)
	require.NoError(t, err)
	return tn
}
