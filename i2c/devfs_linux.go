//go:build linux

package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/ecprobe"
	"github.com/mklimuk/ecprobe/snsctx"
)

// i2cSlave is the I2C_SLAVE ioctl request from linux/i2c-dev.h.
const i2cSlave = 0x0703

var _ ecprobe.I2CBusCloser = &DevfsBus{}

// DevfsBus talks to /dev/i2c-N directly through the i2c-dev character device.
// Plain read(2)/write(2) calls are used so the number of bytes returned by the
// adapter is visible to the caller.
type DevfsBus struct {
	mx      sync.Mutex
	fd      int
	path    string
	current int
}

func NewDevfsBus(path string) (*DevfsBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return &DevfsBus{fd: fd, path: path, current: -1}, nil
}

func (b *DevfsBus) selectAddr(address byte) error {
	if b.current == int(address) {
		return nil
	}
	err := unix.IoctlSetInt(b.fd, i2cSlave, int(address))
	if err != nil {
		return fmt.Errorf("could not select slave %#x on %s: %w", address, b.path, err)
	}
	b.current = int(address)
	return nil
}

func (b *DevfsBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) (int, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.selectAddr(address); err != nil {
		return 0, err
	}
	n, err := unix.Read(b.fd, buffer)
	if err != nil {
		return 0, fmt.Errorf("could not read from %x: %w", address, err)
	}
	snsctx.Trace(ctx, "devfs read", "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer[:n]))
	return n, nil
}

func (b *DevfsBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.selectAddr(address); err != nil {
		return err
	}
	snsctx.Trace(ctx, "devfs write", "addr", fmt.Sprintf("%#x", address), "data", hex.EncodeToString(buffer))
	n, err := unix.Write(b.fd, buffer)
	if err != nil {
		return fmt.Errorf("could not write to %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *DevfsBus) Release(ctx context.Context) error {
	return nil
}

func (b *DevfsBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
