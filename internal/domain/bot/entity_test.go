package bot_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/bot"
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

func newTestBot(t *testing.T) *bot.BotInstance {
	t.Helper()
	return bot.NewBotInstance(mustTenancy(t, "tenancy-a"), "support-bot", mustPhone(t, "+15550001111"), false)
}

func TestNewBotInstance(t *testing.T) {
	b := newTestBot(t)

	assert.False(t, b.ID().IsEmpty())
	assert.Equal(t, bot.StatusLoading, b.Status())
	assert.Equal(t, bot.ApprovalPending, b.ApprovalStatus())
	assert.True(t, b.AutoStart())
	assert.False(t, b.IsGuest())
	assert.False(t, b.IsApproved())
	assert.False(t, b.HasCredentials())
}

func TestApprove(t *testing.T) {
	t.Run("pending bot can be approved", func(t *testing.T) {
		b := newTestBot(t)
		err := b.Approve(12)
		require.NoError(t, err)

		assert.True(t, b.IsApproved())
		assert.Equal(t, 12, b.ExpirationMonths())
		require.NotNil(t, b.ApprovalDate())
		assert.Equal(t, bot.StatusLoading, b.Status())
	})

	t.Run("already approved bot cannot be approved again", func(t *testing.T) {
		b := newTestBot(t)
		require.NoError(t, b.Approve(12))

		err := b.Approve(6)
		assert.ErrorIs(t, err, bot.ErrInvalidApprovalState)
	})
}

func TestRejectAndRevoke(t *testing.T) {
	t.Run("reject moves pending bot to terminal rejected state", func(t *testing.T) {
		b := newTestBot(t)
		require.NoError(t, b.Reject())
		assert.Equal(t, bot.ApprovalRejected, b.ApprovalStatus())
		assert.Equal(t, bot.StatusOffline, b.Status())
	})

	t.Run("revoke returns an approved bot to pending and clears approval date", func(t *testing.T) {
		b := newTestBot(t)
		require.NoError(t, b.Approve(12))
		require.NoError(t, b.Revoke())

		assert.Equal(t, bot.ApprovalPending, b.ApprovalStatus())
		assert.Nil(t, b.ApprovalDate())
		assert.Equal(t, bot.StatusOffline, b.Status())
	})
}

func TestIsExpired(t *testing.T) {
	b := newTestBot(t)
	require.NoError(t, b.Approve(1))

	assert.False(t, b.IsExpired(time.Now()))
	assert.True(t, b.IsExpired(time.Now().Add(40*24*time.Hour)))
}

func TestEligibleForAutoStart(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(b *bot.BotInstance)
		expected bool
	}{
		{
			name:     "pending bot is not eligible",
			setup:    func(b *bot.BotInstance) {},
			expected: false,
		},
		{
			name: "approved bot with no credentials is eligible",
			setup: func(b *bot.BotInstance) {
				require.NoError(t, b.Approve(12))
			},
			expected: true,
		},
		{
			name: "approved bot with unverified credentials is not eligible",
			setup: func(b *bot.BotInstance) {
				require.NoError(t, b.Approve(12))
				b.VerifyCredentials([]byte("creds"))
				b.InvalidateCredentials("signature mismatch")
			},
			expected: false,
		},
		{
			name: "approved bot with verified credentials is eligible",
			setup: func(b *bot.BotInstance) {
				require.NoError(t, b.Approve(12))
				b.VerifyCredentials([]byte("creds"))
			},
			expected: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBot(t)
			tc.setup(b)
			assert.Equal(t, tc.expected, b.EligibleForAutoStart())
		})
	}
}

func TestCredentialLifecycle(t *testing.T) {
	b := newTestBot(t)

	b.VerifyCredentials([]byte("creds"))
	assert.True(t, b.HasCredentials())
	assert.True(t, b.CredentialVerified())

	b.InvalidateCredentials("phone mismatch")
	assert.True(t, b.HasCredentials())
	assert.False(t, b.CredentialVerified())
	assert.Equal(t, "phone mismatch", b.InvalidReason())

	b.ClearCredentials()
	assert.False(t, b.HasCredentials())
	assert.False(t, b.CredentialVerified())
}

func TestValidate(t *testing.T) {
	t.Run("fresh bot is valid", func(t *testing.T) {
		b := newTestBot(t)
		assert.NoError(t, b.Validate())
	})

	t.Run("approved bot without approval date is invalid", func(t *testing.T) {
		b := bot.RestoreBotInstance(
			bot.NewBotID(), mustTenancy(t, "tenancy-a"), "support-bot", mustPhone(t, "+15550001111"),
			bot.StatusOffline, bot.ApprovalApproved, nil, bot.ProxyURL{}, bot.Flags{}, "", "",
			false, "", true, false, 0, 0, 12, nil, nil, time.Now(), time.Now(),
		)
		assert.ErrorIs(t, b.Validate(), bot.ErrInvalidApprovalState)
	})
}

func TestRelocate(t *testing.T) {
	b := newTestBot(t)
	target := mustTenancy(t, "tenancy-b")
	b.Relocate(target)
	assert.Equal(t, target, b.Tenancy())
}
