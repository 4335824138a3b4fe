package water

import (
	"errors"
	"fmt"
)

var (
	// ErrResponseLength means the device returned fewer (or more) bytes than the register holds.
	ErrResponseLength = errors.New("unexpected response length")

	// ErrUnavailable means the device answered with its "no measurement" marker.
	ErrUnavailable = errors.New("measurement unavailable")

	// ErrNotFinite means a float register decoded to NaN or infinity.
	ErrNotFinite = errors.New("non-finite value")

	// ErrInvalidAddress means the address is outside the 0x03..0x77 range usable by a device.
	ErrInvalidAddress = errors.New("invalid 7-bit i2c address")
)

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "none"
	}
}

// TransportError is returned when the bus could not be opened or a write/read
// on it failed. The device is unreachable or did not acknowledge.
// Register is only meaningful for errors raised by a register cycle.
type TransportError struct {
	Op       string
	Register byte
	Err      error

	cycle bool
}

func registerErr(phase string, reg byte, err error) *TransportError {
	return &TransportError{Op: opName(phase, reg), Register: reg, Err: err, cycle: true}
}

func (e *TransportError) Error() string {
	if !e.cycle {
		return fmt.Sprintf("water: %s: transport: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("water: %s (reg %#02x): transport: %v", e.Op, e.Register, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the device answered but the payload could not
// be turned into a value.
type DecodeError struct {
	Op       string
	Register byte
	Data     []byte
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("water: %s (reg %#02x): decode % x: %v", e.Op, e.Register, e.Data, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// KindOf tells which failure class err belongs to.
func KindOf(err error) ErrorKind {
	var terr *TransportError
	if errors.As(err, &terr) {
		return KindTransport
	}
	var derr *DecodeError
	if errors.As(err, &derr) {
		return KindDecode
	}
	return KindNone
}
