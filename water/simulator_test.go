package water

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_WrongAddress(t *testing.T) {
	sim := NewSimulator()
	ctx := context.Background()
	assert.ErrorIs(t, sim.WriteToAddr(ctx, 0x3d, []byte{regVersion}), ErrNoAck)
	_, err := sim.ReadFromAddr(ctx, 0x3d, make([]byte, 1))
	assert.ErrorIs(t, err, ErrNoAck)
}

func TestSimulator_PinOverridesRegister(t *testing.T) {
	sim := NewSimulator()
	p := New(sim, WithSleeper(func(d time.Duration) {}))
	ctx := context.Background()

	sim.Pin(regVersion, []byte{0xFF})
	ok, err := p.Connected(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	sim.Unpin(regVersion)
	ok, err = p.Connected(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSimulator_CalibrationTask(t *testing.T) {
	sim := NewSimulator(SimWithReadings(2.0, 35, 25))
	p := New(sim, WithSleeper(func(d time.Duration) {}))
	ctx := context.Background()

	require.NoError(t, p.CalibrateEC(ctx, 1.0))
	ec, err := p.MeasureEC(ctx, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ec, 1e-5)

	assert.NoError(t, sim.Close())
	assert.True(t, sim.Closed())
}
