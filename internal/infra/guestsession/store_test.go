package guestsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/domain/guest"
	"botfleet/internal/infra/guestsession"
	"botfleet/pkg/logger"
)

func testStore(t *testing.T) *guestsession.Store {
	t.Helper()
	return guestsession.NewStore(logger.New(&logger.Config{Level: "error", Output: "console"}))
}

func TestStorePutGetDelete(t *testing.T) {
	s := testStore(t)
	sess := &guest.Session{
		PhoneNumber:  "+15550001111",
		OTP:          "123456",
		OTPExpiresAt: time.Now().Add(5 * time.Minute),
		BotID:        "bot-1",
		CreatedAt:    time.Now(),
	}

	s.Put(sess)

	got, ok := s.Get("+15550001111")
	require.True(t, ok)
	assert.Equal(t, "123456", got.OTP)

	s.Delete("+15550001111")
	_, ok = s.Get("+15550001111")
	assert.False(t, ok)
}

func TestStoreGetMissing(t *testing.T) {
	s := testStore(t)
	_, ok := s.Get("+15559999999")
	assert.False(t, ok)
}

func TestRunSweeperEvictsExpiredSessions(t *testing.T) {
	s := testStore(t)
	s.Put(&guest.Session{
		PhoneNumber:  "+15550001111",
		OTP:          "000000",
		OTPExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt:    time.Now(),
	})
	s.Put(&guest.Session{
		PhoneNumber:  "+15550002222",
		OTP:          "111111",
		OTPExpiresAt: time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.RunSweeper(ctx, 10*time.Millisecond)

	_, expiredStillThere := s.Get("+15550001111")
	assert.False(t, expiredStillThere)

	_, freshStillThere := s.Get("+15550002222")
	assert.True(t, freshStillThere)
}
