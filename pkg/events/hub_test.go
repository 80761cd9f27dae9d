package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(BatteryState, BatteryStateEvent{From: "normal", To: "confirming_shutdown", Percentage: 4})

	ev := <-ch
	assert.Equal(t, BatteryState, ev.Name)

	payload, err := DecodeAs[BatteryStateEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "normal", payload.From)
	assert.Equal(t, "confirming_shutdown", payload.To)
	assert.InDelta(t, 4.0, payload.Percentage, 1e-9)
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()

	for i := 0; i < 100; i++ {
		h.Publish(DisplayUpdate, DisplayUpdateEvent{Key: "ups", Value: "50%"})
	}
	assert.Len(t, ch, cap(ch))

	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())
	// Unsubscribing twice must not panic on the closed channel.
	h.Unsubscribe(ch)
}

func TestNilHub(t *testing.T) {
	var h *EventHub
	h.Publish(BatteryShutdown, BatteryShutdownEvent{Message: "bye"})
	assert.Equal(t, 0, h.Subscribers())
}
