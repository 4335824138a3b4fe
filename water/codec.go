package water

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Codec turns register values into bus frames and back. Frames are the opcode
// followed by the payload; floats are IEEE-754 single precision.
type Codec struct {
	order binary.ByteOrder
}

// NewCodec returns a codec using order for float payloads; nil means big-endian.
func NewCodec(order binary.ByteOrder) Codec {
	if order == nil {
		order = binary.BigEndian
	}
	return Codec{order: order}
}

func (c Codec) EncodeRead(cmd Command) []byte {
	return []byte{cmd.Opcode}
}

func (c Codec) EncodeFloat(cmd Command, value float32) []byte {
	frame := make([]byte, 5)
	frame[0] = cmd.Opcode
	c.order.PutUint32(frame[1:], math.Float32bits(value))
	return frame
}

func (c Codec) EncodeByte(cmd Command, value byte) []byte {
	return []byte{cmd.Opcode, value}
}

// DecodeFloat decodes a 4 byte register. All zero bytes is how the probe says
// it has no reading, so it is never returned as 0.0.
func (c Codec) DecodeFloat(cmd Command, resp []byte) (float32, error) {
	if err := checkLen(cmd, resp, 4); err != nil {
		return 0, err
	}
	if resp[0]|resp[1]|resp[2]|resp[3] == 0 {
		return 0, decodeErr(cmd, resp, ErrUnavailable)
	}
	value := math.Float32frombits(c.order.Uint32(resp))
	if math.IsNaN(float64(value)) {
		return 0, decodeErr(cmd, resp, ErrUnavailable)
	}
	if math.IsInf(float64(value), 0) {
		return 0, decodeErr(cmd, resp, ErrNotFinite)
	}
	return value, nil
}

func (c Codec) DecodeUint8(cmd Command, resp []byte) (int, error) {
	if err := checkLen(cmd, resp, 1); err != nil {
		return 0, err
	}
	return int(resp[0]), nil
}

// DecodeBool treats any non-zero byte as true.
func (c Codec) DecodeBool(cmd Command, resp []byte) (bool, error) {
	if err := checkLen(cmd, resp, 1); err != nil {
		return false, err
	}
	return resp[0] != 0, nil
}

func checkLen(cmd Command, resp []byte, want int) error {
	if len(resp) != want {
		return decodeErr(cmd, resp, fmt.Errorf("%w: expected %d, got %d", ErrResponseLength, want, len(resp)))
	}
	return nil
}

func decodeErr(cmd Command, resp []byte, err error) *DecodeError {
	return &DecodeError{
		Op:       cmd.Name,
		Register: cmd.Opcode,
		Data:     append([]byte(nil), resp...),
		Err:      err,
	}
}
