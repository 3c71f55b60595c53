package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	"botfleet/internal/http/dto"
)

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

func TestToBotResponse(t *testing.T) {
	b := bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "support-bot", mustPhone(t, "+15550001111"), true)

	resp := dto.ToBotResponse(b)

	assert.Equal(t, b.ID().String(), resp.ID)
	assert.Equal(t, "tenancy-a", resp.Tenancy)
	assert.Equal(t, "support-bot", resp.Name)
	assert.Equal(t, "loading", resp.Status)
	assert.Equal(t, "pending", resp.ApprovalStatus)
	assert.True(t, resp.IsGuest)
	assert.False(t, resp.CredentialVerified)
}

func TestToBotResponseList(t *testing.T) {
	bots := []*bot.BotInstance{
		bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "bot-1", mustPhone(t, "+15550001111"), false),
		bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "bot-2", mustPhone(t, "+15550002222"), false),
	}
	out := dto.ToBotResponseList(bots)
	require.Len(t, out, 2)
	assert.Equal(t, "bot-1", out[0].Name)
	assert.Equal(t, "bot-2", out[1].Name)
}

func TestToBotResponseListEmpty(t *testing.T) {
	out := dto.ToBotResponseList(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMaskForGuest(t *testing.T) {
	full := &dto.BotResponse{
		Tenancy:            "tenancy-a",
		Status:             "online",
		CredentialVerified: true,
		MessagesCount:      42,
	}
	masked := dto.MaskForGuest(full)

	assert.Equal(t, "online", masked.Status)
	assert.True(t, masked.CredentialVerified)
}

func TestToServerResponse(t *testing.T) {
	now := time.Now()
	s := &registry.Server{
		Name: "tenancy-a", BaseURL: "https://tenancy-a.example.com", SharedSecret: "super-secret-value",
		Capacity: 10, ActiveCount: 4, Healthy: true, LastSeenAt: now, CreatedAt: now, UpdatedAt: now,
	}

	resp := dto.ToServerResponse(s)

	assert.Equal(t, "tenancy-a", resp.Name)
	assert.Equal(t, 6, resp.FreeSlots)
	assert.True(t, resp.Healthy)
}

func TestToCommandResponse(t *testing.T) {
	c := registry.NewCommand("tenancy-a", "!help", "shows available commands")
	resp := dto.ToCommandResponse(c)

	assert.Equal(t, c.ID, resp.ID)
	assert.Equal(t, "!help", resp.Trigger)
	assert.True(t, resp.Enabled)
}

func TestToCommandResponseList(t *testing.T) {
	cmds := []*registry.Command{
		registry.NewCommand("tenancy-a", "!help", ""),
		registry.NewCommand("tenancy-a", "!ping", ""),
	}
	out := dto.ToCommandResponseList(cmds)
	require.Len(t, out, 2)
}
