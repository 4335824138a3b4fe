package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/ecprobe"
	"github.com/mklimuk/ecprobe/cmd/ecprobe/console"
	"github.com/mklimuk/ecprobe/pkg/config"
	"github.com/mklimuk/ecprobe/water"
)

func noSleep(time.Duration) {}

// runCLI runs the tool against sim and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, sim *water.Simulator, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	console.NoColor()
	console.SetOutput(&out, &errOut)
	probeOpts = []water.ProbeOpt{water.WithSleeper(noSleep)}
	newSimulator = func(*config.Config) ecprobe.I2CBusCloser { return sim }
	t.Cleanup(func() {
		console.SetOutput(os.Stdout, os.Stderr)
		probeOpts = nil
		settings = config.Default()
	})
	code := run(append([]string{"ecprobe", "--adapter", "sim"}, args...))
	return out.String(), errOut.String(), code
}

func testProbe(sim *water.Simulator) *water.Probe {
	return water.New(sim, water.WithAddress(sim.Address()), water.WithSleeper(noSleep))
}

func TestMeasure(t *testing.T) {
	sim := water.NewSimulator()
	out, _, code := runCLI(t, sim, "measure", "--count", "2", "--interval", "1ms")
	require.Equal(t, 0, code)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("1.413 mS")), out)
	assert.Contains(t, out, "1413.0 µS")
	// compensated by default: temperature, constant, conductivity
	writes := sim.Writes()
	require.Len(t, writes, 10)
	assert.Equal(t, []byte{0x27, 20}, writes[0])
	assert.Equal(t, []byte{0x27, 80}, writes[3])
	assert.Equal(t, []byte{0x02}, writes[4])
}

func TestMeasure_Salinity(t *testing.T) {
	sim := water.NewSimulator()
	out, _, code := runCLI(t, sim, "measure", "--salinity", "--compensate=false")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "35.00 PSU")
	// salinity conversion task, then the salinity result register
	assert.Equal(t, [][]byte{{0x27, 40}, {0x06}}, sim.Writes())
}

func TestTemperature(t *testing.T) {
	sim := water.NewSimulator(water.SimWithReadings(1.413, 35, 21.5))
	out, _, code := runCLI(t, sim, "temp")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "21.50 °C")
	assert.Contains(t, out, "70.70 °F")
}

func TestConfig(t *testing.T) {
	sim := water.NewSimulator()
	out, _, code := runCLI(t, sim, "config")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "0x3c")
	assert.Contains(t, out, "version: 2")
	assert.Contains(t, out, "firmware: 10")
	assert.Contains(t, out, "temperature_compensation: true")
}

func TestConfig_AfterReset(t *testing.T) {
	sim := water.NewSimulator()
	_, _, code := runCLI(t, sim, "reset", "--yes")
	require.Equal(t, 0, code)

	out, _, code := runCLI(t, sim, "config")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "calibration_ec: none")
	assert.Contains(t, out, "temperature_compensation: false")
}

func TestCalibrate(t *testing.T) {
	sim := water.NewSimulator()
	out, _, code := runCLI(t, sim, "calibrate", "ec", "--yes", "2.0")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "conductivity calibrated")

	factor, err := testProbe(sim).GetCalibrationEC(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.0/1.413, factor, 1e-4)
}

func TestCalibrate_Declined(t *testing.T) {
	defer func(orig func(*cli.Context, string) (bool, error)) { confirm = orig }(confirm)
	confirm = func(*cli.Context, string) (bool, error) { return false, nil }

	sim := water.NewSimulator()
	_, errOut, code := runCLI(t, sim, "calibrate", "sw", "35")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "calibration aborted")
	assert.Empty(t, sim.Frames(), "nothing sent to the probe")
}

func TestSet(t *testing.T) {
	sim := water.NewSimulator()
	_, _, code := runCLI(t, sim, "set", "compensation", "off")
	require.Equal(t, 0, code)
	_, _, code = runCLI(t, sim, "set", "temp-constant", "18.5")
	require.Equal(t, 0, code)

	p := testProbe(sim)
	enabled, err := p.UsingTemperatureCompensation(context.Background())
	require.NoError(t, err)
	assert.False(t, enabled)
	temp, err := p.GetTempConstant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(18.5), temp)

	_, errOut, code := runCLI(t, sim, "set", "compensation", "maybe")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "expected on or off")
}

func TestAddress(t *testing.T) {
	sim := water.NewSimulator()
	out, _, code := runCLI(t, sim, "address", "--yes", "0x3d")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "0x3d")
	assert.Equal(t, byte(0x3d), sim.Address())
}

func TestEEPROM(t *testing.T) {
	sim := water.NewSimulator()
	_, _, code := runCLI(t, sim, "eeprom", "write", "3", "42.5")
	require.Equal(t, 0, code)
	out, _, code := runCLI(t, sim, "eeprom", "read", "3")
	require.Equal(t, 0, code)
	assert.Equal(t, "42.5\n", out)
}

func TestExitCodes(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		sim := water.NewSimulator()
		sim.FailNextWrite(errors.New("nack"))
		_, errOut, code := runCLI(t, sim, "temp")
		assert.Equal(t, exitTransport, code)
		assert.Contains(t, errOut, "nack")
	})
	t.Run("decode", func(t *testing.T) {
		sim := water.NewSimulator()
		sim.ShortNextRead(2)
		_, _, code := runCLI(t, sim, "temp")
		assert.Equal(t, exitDecode, code)
	})
	t.Run("invalid address", func(t *testing.T) {
		_, errOut, code := runCLI(t, water.NewSimulator(), "--address", "0x02", "temp")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "configuration error")
	})
	t.Run("missing argument", func(t *testing.T) {
		_, errOut, code := runCLI(t, water.NewSimulator(), "calibrate", "ec", "--yes")
		assert.Equal(t, 2, code)
		assert.Contains(t, errOut, "missing solution")
	})
}

func TestRepeat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := repeat(ctx, 0, time.Millisecond, func() error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	boom := errors.New("boom")
	err = repeat(context.Background(), 5, 0, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}
