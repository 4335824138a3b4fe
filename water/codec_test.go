package water

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_DecodeFloat(t *testing.T) {
	codec := NewCodec(nil)
	tests := []struct {
		given    []byte
		expected float32
	}{
		{[]byte{0x3F, 0x80, 0x00, 0x00}, 1.0},
		{[]byte{0x41, 0xC8, 0x00, 0x00}, 25.0},
		{[]byte{0x3F, 0xB4, 0xDD, 0x2F}, 1.413},
		{[]byte{0xC2, 0xFE, 0x00, 0x00}, -127.0},
		{[]byte{0x80, 0x00, 0x00, 0x00}, 0.0},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			val, err := codec.DecodeFloat(cmdCalibrateEC, test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, val)
		})
	}
}

func TestCodec_DecodeFloatLittleEndian(t *testing.T) {
	codec := NewCodec(binary.LittleEndian)
	val, err := codec.DecodeFloat(cmdTempConstant, []byte{0x00, 0x00, 0xC8, 0x41})
	require.NoError(t, err)
	assert.Equal(t, float32(25.0), val)
}

func TestCodec_DecodeFloatInvalid(t *testing.T) {
	codec := NewCodec(binary.BigEndian)
	tests := []struct {
		given    []byte
		expected error
	}{
		{[]byte{0x00, 0x00, 0x00, 0x00}, ErrUnavailable},
		{[]byte{0x7F, 0xC0, 0x00, 0x00}, ErrUnavailable},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF}, ErrUnavailable},
		{[]byte{0x7F, 0x80, 0x00, 0x00}, ErrNotFinite},
		{[]byte{0xFF, 0x80, 0x00, 0x00}, ErrNotFinite},
		{[]byte{0x41, 0xC8, 0x00}, ErrResponseLength},
		{[]byte{}, ErrResponseLength},
		{[]byte{0x41, 0xC8, 0x00, 0x00, 0x00}, ErrResponseLength},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			val, err := codec.DecodeFloat(cmdMeasureEC, test.given)
			assert.ErrorIs(t, err, test.expected)
			assert.Equal(t, KindDecode, KindOf(err))
			assert.Zero(t, val)
			var derr *DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, regMS, derr.Register)
			assert.Equal(t, "measure ec", derr.Op)
		})
	}
}

func TestCodec_DecodeBytes(t *testing.T) {
	codec := NewCodec(nil)

	on, err := codec.DecodeBool(cmdCompensation, []byte{0x01})
	require.NoError(t, err)
	assert.True(t, on)
	on, err = codec.DecodeBool(cmdCompensation, []byte{0x80})
	require.NoError(t, err)
	assert.True(t, on)
	on, err = codec.DecodeBool(cmdCompensation, []byte{0x00})
	require.NoError(t, err)
	assert.False(t, on)

	ver, err := codec.DecodeUint8(cmdVersion, []byte{0xFE})
	require.NoError(t, err)
	assert.Equal(t, 254, ver)

	_, err = codec.DecodeUint8(cmdFirmware, nil)
	assert.ErrorIs(t, err, ErrResponseLength)
	_, err = codec.DecodeBool(cmdCompensation, []byte{0x01, 0x00})
	assert.ErrorIs(t, err, ErrResponseLength)
}

func TestCodec_Encode(t *testing.T) {
	tests := []struct {
		name     string
		order    binary.ByteOrder
		value    float32
		expected []byte
	}{
		{"big endian", binary.BigEndian, 25.0, []byte{regTempConstant, 0x41, 0xC8, 0x00, 0x00}},
		{"little endian", binary.LittleEndian, 25.0, []byte{regTempConstant, 0x00, 0x00, 0xC8, 0x41}},
		{"negative", binary.BigEndian, -1.5, []byte{regTempConstant, 0xBF, 0xC0, 0x00, 0x00}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, NewCodec(test.order).EncodeFloat(cmdTempConstant, test.value))
		})
	}
	codec := NewCodec(nil)
	assert.Equal(t, []byte{regConfig, 0x01}, codec.EncodeByte(cmdCompensation, 1))
	assert.Equal(t, []byte{regVersion}, codec.EncodeRead(cmdVersion))
}
