package admin

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/telemetry"
)

func TestHubWritersQueueEvents(t *testing.T) {
	h := NewHub()
	assert.NoError(t, h.WriteFrame(telemetry.FrameRow{Tick: 2}))
	assert.NoError(t, h.WriteAttackEvent(telemetry.AttackEventRow{Action: telemetry.ActionJam}))
	assert.NoError(t, h.WriteBriefing(advisory.State{Text: "hold"}))

	var types []string
	for i := 0; i < 3; i++ {
		types = append(types, (<-h.broadcast).Type)
	}
	assert.Equal(t, []string{"frame", "attack", "briefing"}, types)
}

func TestHubBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Broadcast(Event{Type: "frame"})
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))
	assert.Equal(t, 0, h.Clients())
}

func TestHubBroadcastLogsToRunLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.NewWithLevel(&buf, "debug")
	assert.NoError(t, err)
	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), l))
	cancel()

	h := NewHub()
	h.Run(ctx)
	for i := 0; i < cap(h.broadcast)+1; i++ {
		h.Broadcast(Event{Type: "frame"})
	}
	assert.Contains(t, buf.String(), "dropping event")
	assert.Contains(t, buf.String(), "type=frame")
}
