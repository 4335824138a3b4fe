package ecprobe

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// AddressableReader reads up to len(buffer) bytes from the device at address.
// The returned count is the number of bytes the device actually delivered.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) (int, error)
}

// AddressableWriter writes buffer to the device at address in a single transaction.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// I2CBusCloser is a bus whose underlying handle has to be released once the
// caller is done with it.
type I2CBusCloser interface {
	I2CBus
	Close() error
}
