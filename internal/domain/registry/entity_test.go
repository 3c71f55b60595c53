package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"botfleet/internal/domain/registry"
)

func TestServerCapacity(t *testing.T) {
	cases := []struct {
		name        string
		server      registry.Server
		hasCapacity bool
		freeSlots   int
	}{
		{"empty tenancy has full capacity", registry.Server{Capacity: 10, ActiveCount: 0}, true, 10},
		{"partially filled tenancy", registry.Server{Capacity: 10, ActiveCount: 7}, true, 3},
		{"full tenancy has no capacity", registry.Server{Capacity: 10, ActiveCount: 10}, false, 0},
		{"overcommitted tenancy clamps free slots to zero", registry.Server{Capacity: 10, ActiveCount: 12}, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.hasCapacity, tc.server.HasCapacity())
			assert.Equal(t, tc.freeSlots, tc.server.FreeSlots())
		})
	}
}

func TestNewActivity(t *testing.T) {
	a := registry.NewActivity("tenancy-a", "bot-1", "bot_created", "bot instance registered")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "tenancy-a", a.Tenancy)
	assert.Equal(t, "bot-1", a.BotID)
	assert.Equal(t, "bot_created", a.Kind)
	assert.Equal(t, "bot instance registered", a.Detail)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestNewCommand(t *testing.T) {
	c := registry.NewCommand("tenancy-a", "!help", "shows available commands")

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "tenancy-a", c.Tenancy)
	assert.Equal(t, "!help", c.Trigger)
	assert.True(t, c.Enabled)
}

func TestNewGlobalRegistration(t *testing.T) {
	g := registry.NewGlobalRegistration("+15550001111", "tenancy-a", "bot-1")

	assert.Equal(t, "+15550001111", g.PhoneNumber)
	assert.Equal(t, "tenancy-a", g.Tenancy)
	assert.Equal(t, "bot-1", g.BotID)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestDefaultOfferConfig(t *testing.T) {
	cfg := registry.DefaultOfferConfig("tenancy-a")

	assert.Equal(t, "tenancy-a", cfg.Tenancy)
	assert.False(t, cfg.AutoApproveEnabled)
	assert.Equal(t, 12, cfg.DefaultExpirationMo)
	assert.Equal(t, 0, cfg.MaxFreeBots)
}
