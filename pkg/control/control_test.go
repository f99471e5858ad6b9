package control

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_SafeDefaults(t *testing.T) {
	s := NewState(Driver)
	assert.Equal(t, State{Mode: Driver}, *s)
	assert.False(t, s.AutoShooting)
	assert.False(t, s.LongArmOut)
	assert.False(t, s.AutoReady)
}

func TestMode_Text(t *testing.T) {
	var cfg struct {
		Mode Mode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"auto-far"}`), &cfg))
	assert.Equal(t, AutoFar, cfg.Mode)
	assert.True(t, cfg.Mode.IsAuto())

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"auto-far"}`, string(data))

	_, err = ParseMode("teleop")
	assert.Error(t, err)
}

func TestInput_Apply(t *testing.T) {
	var in Input
	in.Apply(ButtonEvent(EUp, Press))
	in.Apply(ButtonEvent(FUp, Press))
	in.Apply(AxisEvent(AxisD, -40))
	assert.True(t, in.Pressing(EUp))
	assert.Equal(t, []Button{EUp, FUp}, in.Held())
	assert.Equal(t, -40.0, in.Position(AxisD))

	in.Apply(ButtonEvent(EUp, Release))
	assert.False(t, in.Pressing(EUp))
	assert.False(t, in.Pressing(Button(42)))
}

func TestParseButton(t *testing.T) {
	b, err := ParseButton("fdown")
	require.NoError(t, err)
	assert.Equal(t, FDown, b)

	_, err = ParseButton("X")
	assert.Error(t, err)
}

type countingObserver map[string]int

func (c countingObserver) ObserveHandler(b Button, e Edge) { c[b.String()+" "+e.String()]++ }

func TestDispatcher_DeferredAndInterrupt(t *testing.T) {
	events := make(chan Event, 8)
	var in Input
	obs := countingObserver{}
	d := NewDispatcher(events, &in, zerolog.Nop()).WithObserver(obs)

	var order []string
	d.OnPress(EUp, func(context.Context) { order = append(order, "rock up") })
	d.OnPress(EDown, func(context.Context) { order = append(order, "rock down") })
	d.InterruptOnRelease(RUp, func() { order = append(order, "stop auto") })

	events <- ButtonEvent(EUp, Press)
	events <- ButtonEvent(EDown, Press)
	events <- ButtonEvent(RUp, Release)
	d.Poll()

	// interrupt runs during Poll, deferred handlers wait for RunPending
	assert.Equal(t, []string{"stop auto"}, order)
	assert.Equal(t, 2, d.Pending())
	assert.True(t, in.Pressing(EUp))

	require.NoError(t, d.RunPending(context.Background()))
	assert.Equal(t, []string{"stop auto", "rock up", "rock down"}, order)
	assert.Zero(t, d.Pending())
	assert.Equal(t, 1, obs["EUp press"])
	assert.Equal(t, 1, obs["RUp release"])
}

func TestDispatcher_InterruptDuringHandler(t *testing.T) {
	events := make(chan Event, 8)
	var in Input
	d := NewDispatcher(events, &in, zerolog.Nop())
	state := NewState(Driver)

	var observed []bool
	d.InterruptOnRelease(RUp, func() { state.AutoShooting = false })
	d.OnPress(RUp, func(context.Context) {
		state.AutoShooting = true
		for i := 0; i < 3; i++ {
			observed = append(observed, state.AutoShooting)
			if i == 0 {
				events <- ButtonEvent(RUp, Release)
			}
			d.Poll() // what a yield point does
		}
	})

	events <- ButtonEvent(RUp, Press)
	d.Poll()
	require.NoError(t, d.RunPending(context.Background()))

	assert.Equal(t, []bool{true, false, false}, observed)
}

func TestDispatcher_HandlersQueuedDuringRunWaitForNextBoundary(t *testing.T) {
	events := make(chan Event, 8)
	var in Input
	d := NewDispatcher(events, &in, zerolog.Nop())

	var ran []string
	d.OnPress(LUp, func(context.Context) {
		ran = append(ran, "raise")
		events <- ButtonEvent(LDown, Press)
		d.Poll()
	})
	d.OnPress(LDown, func(context.Context) { ran = append(ran, "lower") })

	events <- ButtonEvent(LUp, Press)
	d.Poll()
	require.NoError(t, d.RunPending(context.Background()))
	assert.Equal(t, []string{"raise"}, ran)

	require.NoError(t, d.RunPending(context.Background()))
	assert.Equal(t, []string{"raise", "lower"}, ran)
}

func TestDispatcher_RunPendingCanceled(t *testing.T) {
	var in Input
	d := NewDispatcher(nil, &in, zerolog.Nop())
	ran := false
	d.Defer("x", func(context.Context) { ran = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.RunPending(ctx), context.Canceled)
	assert.False(t, ran)
}

func TestParseEdgeAndAxis(t *testing.T) {
	e, err := ParseEdge("Release")
	require.NoError(t, err)
	assert.Equal(t, Release, e)
	_, err = ParseEdge("hold")
	assert.Error(t, err)

	a, err := ParseAxis("d")
	require.NoError(t, err)
	assert.Equal(t, AxisD, a)
	_, err = ParseAxis("B")
	assert.Error(t, err)
}
