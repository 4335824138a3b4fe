package adapter

import (
	"context"
	"testing"

	"github.com/mklimuk/ecprobe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCP2221_BufferToStatus(t *testing.T) {
	buf := make([]byte, reportSize)
	buf[9], buf[10] = 0x04, 0x00
	buf[11], buf[12] = 0x02, 0x00
	buf[13] = 3
	buf[14] = 0x76
	buf[15] = 0x10
	buf[16], buf[17] = 0x78, 0x00
	buf[25] = 1

	status := bufferToStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   3,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x10,
		CurrentAddress:         "7800",
		LastWriteRequestedSize: 4,
		LastWriteSentSize:      2,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_ResetBuffer(t *testing.T) {
	buf := []byte{0x90, 0x01, 0x02, 0xFF}
	resetBuffer(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

type fakeHID struct {
	requests [][]byte
	replies  [][]byte
	short    bool
	closed   int
}

func (f *fakeHID) Write(b []byte) (int, error) {
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if f.short {
		return 1, nil
	}
	if len(f.replies) > 0 {
		copy(b, f.replies[0])
		f.replies = f.replies[1:]
	}
	return len(b), nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func newFakeMCP2221(dev *fakeHID) *MCP2221 {
	d := NewMCP2221()
	d.responseWait = 0
	d.openDev = func() (hidDevice, error) { return dev, nil }
	return d
}

func TestMCP2221_SendReadsEveryResponse(t *testing.T) {
	dev := &fakeHID{}
	d := newFakeMCP2221(dev)
	err := d.WriteToAddr(context.Background(), 0x3c, []byte{0x27, 80})
	require.NoError(t, err)
	require.Len(t, dev.requests, 1)
	assert.Equal(t, []byte{cmdI2CWrite, 2, 0, 0x3c << 1, 0x27, 80}, dev.requests[0][:6])
	assert.Equal(t, 1, dev.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	reply := make([]byte, reportSize)
	reply[1] = statusBusy
	dev := &fakeHID{replies: [][]byte{reply}}
	d := newFakeMCP2221(dev)
	err := d.WriteToAddr(context.Background(), 0x3c, []byte{0x0a})
	assert.ErrorIs(t, err, ecprobe.ErrBusBusy)
}

func TestMCP2221_ShortResponse(t *testing.T) {
	dev := &fakeHID{short: true}
	d := newFakeMCP2221(dev)
	_, err := d.Status(context.Background())
	assert.ErrorContains(t, err, "short read: 1")
	assert.Equal(t, 1, dev.closed)
}
