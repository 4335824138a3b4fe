package i2c

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/ecprobe"
	"github.com/mklimuk/ecprobe/snsctx"
)

var _ ecprobe.I2CBusCloser = &GobotBus{}

type finalizer interface {
	Finalize() error
}

// GobotBus adapts a gobot i2c.Connector (board adaptor) to ecprobe.I2CBus.
// Connections are opened lazily, one per device address.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	busNr     int
	conns     map[byte]i2c.Connection
	owned     finalizer
}

// NewGobotBus wraps an already connected adaptor. A negative busNr selects
// the adaptor default bus.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]i2c.Connection),
	}
}

// NewNanoPiBus connects a NanoPi NEO adaptor and serves the given bus number.
// The adaptor is finalized on Close.
func NewNanoPiBus(busNr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	bus := NewGobotBus(npi, busNr)
	bus.owned = npi
	return bus, nil
}

func (b *GobotBus) conn(address byte) (i2c.Connection, error) {
	c, ok := b.conns[address]
	if ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %#x on bus %d: %w", address, b.busNr, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return 0, err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return n, fmt.Errorf("read error from %#x: %w", address, err)
	}
	snsctx.Trace(ctx, "gobot read", "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer[:n]))
	return n, nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	snsctx.Trace(ctx, "gobot write", "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	n, err := c.Write(buffer)
	if err != nil {
		return fmt.Errorf("write error to %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %#x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %#x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	if b.owned != nil {
		if err := b.owned.Finalize(); err != nil {
			errs = append(errs, fmt.Errorf("finalize adaptor: %w", err))
		}
		b.owned = nil
	}
	return errors.Join(errs...)
}
