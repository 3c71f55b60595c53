package broadcast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botfleet/internal/infra/broadcast"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	b := broadcast.NewBroadcaster(4)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(broadcast.Event{Kind: broadcast.EventBotConnected, Tenancy: "tenancy-a", BotID: "bot-1"})

	select {
	case ev := <-ch:
		assert.Equal(t, broadcast.EventBotConnected, ev.Kind)
		assert.Equal(t, "bot-1", ev.BotID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	b := broadcast.NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(broadcast.Event{Kind: broadcast.EventBotConnecting, BotID: "bot-1"})
	b.Publish(broadcast.Event{Kind: broadcast.EventBotConnected, BotID: "bot-1"})

	first := <-ch
	assert.Equal(t, broadcast.EventBotConnecting, first.Kind)

	select {
	case <-ch:
		t.Fatal("expected the second event to have been dropped, not queued")
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := broadcast.NewBroadcaster(4)
	ch, cancel := b.Subscribe()
	cancel()

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after cancel")

	// Publishing after cancel must not panic even though no subscribers remain.
	assert.NotPanics(t, func() {
		b.Publish(broadcast.Event{Kind: broadcast.EventBotDeleted, BotID: "bot-1"})
	})
}
