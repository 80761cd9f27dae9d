package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inaups/inaups/pkg/events"
)

func TestBoard(t *testing.T) {
	hub := events.NewEventHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	b := NewBoard(hub)
	b.AddElement("volt", Element{Label: "VOL", Value: "-", Position: Position{X: 10, Y: 20}})
	b.AddElement("ups", Element{Label: "UPS", Value: "-"})

	b.Set("ups", "50%")
	b.Set("ups", "50%")
	b.Set("missing", "x")

	e, ok := b.Get("ups")
	require.True(t, ok)
	assert.Equal(t, "50%", e.Value)

	snap := b.Snapshot()
	require.Len(t, snap.Elements, 2)
	assert.Equal(t, "ups", snap.Elements[0].Key)
	assert.Equal(t, "volt", snap.Elements[1].Key)
	assert.Equal(t, Position{X: 10, Y: 20}, snap.Elements[1].Position)

	// Two AddElement calls and one effective Set.
	assert.Len(t, ch, 3)
}

func TestBoardStatus(t *testing.T) {
	b := NewBoard(nil)
	b.SetStatus("Battery exhausted, bye ...")
	assert.Equal(t, "Battery exhausted, bye ...", b.Status())
	assert.Equal(t, "Battery exhausted, bye ...", b.Snapshot().Status)
}
