//go:build !linux

package i2c

import (
	"context"
	"errors"
)

var errDevfsUnsupported = errors.New("i2c-dev is only available on linux")

type DevfsBus struct{}

func NewDevfsBus(path string) (*DevfsBus, error) {
	return nil, errDevfsUnsupported
}

func (b *DevfsBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) (int, error) {
	return 0, errDevfsUnsupported
}

func (b *DevfsBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return errDevfsUnsupported
}

func (b *DevfsBus) Release(ctx context.Context) error {
	return nil
}

func (b *DevfsBus) Close() error {
	return nil
}
