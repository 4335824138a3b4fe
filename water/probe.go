package water

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mklimuk/ecprobe"
	"github.com/mklimuk/ecprobe/i2c"
)

type ProbeOpts struct {
	Address   byte
	ByteOrder binary.ByteOrder
	Sleep     func(time.Duration)
}

type ProbeOpt func(*ProbeOpts)

func WithAddress(address byte) ProbeOpt {
	return func(o *ProbeOpts) {
		o.Address = address
	}
}

// WithByteOrder sets the byte order of float registers. Firmware builds that
// pack floats natively on a little-endian MCU need binary.LittleEndian.
func WithByteOrder(order binary.ByteOrder) ProbeOpt {
	return func(o *ProbeOpts) {
		o.ByteOrder = order
	}
}

// WithSleeper replaces time.Sleep for the settle delays.
func WithSleeper(sleep func(time.Duration)) ProbeOpt {
	return func(o *ProbeOpts) {
		o.Sleep = sleep
	}
}

// Probe represents a uFire EC Salinity probe.
// Typical usage:
//
//	p, err := water.Open("/dev/i2c-3", water.DefaultAddress)
//	defer p.Close()
//	ms, err := p.MeasureEC(ctx, true)
//
// Every method performs one complete operation on the device and holds the
// probe lock until it is done, so callers in different goroutines never
// interleave their bus transactions.
type Probe struct {
	mx        sync.Mutex
	transport *Transport
	codec     Codec
	owned     io.Closer
}

var openBus = func(path string) (ecprobe.I2CBusCloser, error) {
	bus, err := i2c.NewGenericBus(path)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Open opens the I2C bus at path and binds a probe to address on it.
// The device itself is not contacted; the first command fails if it is absent.
func Open(path string, address byte, opts ...ProbeOpt) (*Probe, error) {
	if !ValidAddress(address) {
		return nil, &TransportError{Op: "open", Err: fmt.Errorf("%w: %#x", ErrInvalidAddress, address)}
	}
	bus, err := openBus(path)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	p := New(bus, append(opts, WithAddress(address))...)
	p.owned = bus
	return p, nil
}

// New binds a probe to an already open bus. The caller keeps ownership of bus.
func New(bus ecprobe.I2CBus, opts ...ProbeOpt) *Probe {
	config := ProbeOpts{
		Address:   DefaultAddress,
		ByteOrder: binary.BigEndian,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Probe{
		transport: NewTransport(bus, config.Address, config.Sleep),
		codec:     NewCodec(config.ByteOrder),
	}
}

// Address returns the address the probe is currently bound to.
func (p *Probe) Address() byte {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.transport.Address()
}

// Close releases the bus if the probe opened it. It is safe to call twice.
func (p *Probe) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.owned == nil {
		return nil
	}
	err := p.owned.Close()
	p.owned = nil
	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// ValidAddress reports whether address is outside the reserved i2c ranges.
func ValidAddress(address byte) bool {
	return address >= 0x03 && address <= 0x77
}

func (p *Probe) read(ctx context.Context, cmd Command) ([]byte, error) {
	return p.transport.Execute(ctx, p.codec.EncodeRead(cmd), cmd.ResponseLen(), cmd.ReadDelay)
}

// convert is one measurement cycle: the conversion task is written, the probe
// is given the conversion time, then the result register is selected and read.
func (p *Probe) convert(ctx context.Context, cmd Command) ([]byte, error) {
	_, err := p.transport.Execute(ctx, p.codec.EncodeByte(cmdTask, cmd.Task), 0, cmd.ConvertDelay)
	if err != nil {
		return nil, err
	}
	return p.read(ctx, cmd)
}

func (p *Probe) readFloat(ctx context.Context, cmd Command) (float32, error) {
	resp, err := p.read(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return p.codec.DecodeFloat(cmd, resp)
}

func (p *Probe) readUint8(ctx context.Context, cmd Command) (int, error) {
	resp, err := p.read(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return p.codec.DecodeUint8(cmd, resp)
}

func (p *Probe) readBool(ctx context.Context, cmd Command) (bool, error) {
	resp, err := p.read(ctx, cmd)
	if err != nil {
		return false, err
	}
	return p.codec.DecodeBool(cmd, resp)
}

func (p *Probe) writeFloat(ctx context.Context, cmd Command, value float32) error {
	_, err := p.transport.Execute(ctx, p.codec.EncodeFloat(cmd, value), 0, cmd.WriteDelay)
	return err
}

func (p *Probe) writeByte(ctx context.Context, cmd Command, value byte) error {
	_, err := p.transport.Execute(ctx, p.codec.EncodeByte(cmd, value), 0, cmd.WriteDelay)
	return err
}

func (p *Probe) runTask(ctx context.Context, task byte) error {
	_, err := p.transport.Execute(ctx, p.codec.EncodeByte(cmdTask, task), 0, taskDelay(task))
	return err
}
