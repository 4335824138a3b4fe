package water

import (
	"context"
	"errors"
	"time"

	"github.com/mklimuk/ecprobe"
)

var errEmptyCommand = errors.New("empty command")

// Transport is the device handle: a bus bound to the probe address.
// It is not safe for concurrent use; Probe serialises access to it.
type Transport struct {
	bus     ecprobe.I2CBus
	address byte
	sleep   func(time.Duration)
}

func NewTransport(bus ecprobe.I2CBus, address byte, sleep func(time.Duration)) *Transport {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Transport{bus: bus, address: address, sleep: sleep}
}

func (t *Transport) Address() byte {
	return t.address
}

// Execute writes command in one bus transaction, waits delay for the probe to
// process it and reads responseLen bytes back. A zero responseLen skips the read.
//
// There is exactly one attempt. Once the command is written the delay and the
// read always happen, ctx only reaches the bus calls. A short read is not an
// error here: the bytes received are returned and the codec rejects them.
func (t *Transport) Execute(ctx context.Context, command []byte, responseLen int, delay time.Duration) ([]byte, error) {
	if len(command) == 0 {
		return nil, &TransportError{Op: "write", Err: errEmptyCommand}
	}
	reg := command[0]
	err := t.bus.WriteToAddr(ctx, t.address, command)
	if err != nil {
		if errors.Is(err, ecprobe.ErrBusBusy) {
			// free the bridge for the next command, the caller decides on a retry
			_ = t.bus.Release(ctx)
		}
		return nil, registerErr("write", reg, err)
	}
	t.sleep(delay)
	if responseLen <= 0 {
		return nil, nil
	}
	resp := make([]byte, responseLen)
	n, err := t.bus.ReadFromAddr(ctx, t.address, resp)
	if err != nil {
		return nil, registerErr("read", reg, err)
	}
	if n < 0 {
		n = 0
	}
	if n > responseLen {
		n = responseLen
	}
	return resp[:n], nil
}

func opName(phase string, reg byte) string {
	cmd, ok := Lookup(reg)
	if !ok {
		return phase
	}
	return phase + " " + cmd.Name
}
