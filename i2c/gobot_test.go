package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

type fakeConn struct {
	i2c.Connection
	written [][]byte
	read    []byte
	closed  bool
	err     error
}

func (c *fakeConn) Read(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return copy(b, c.read), nil
}

func (c *fakeConn) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns   map[int]*fakeConn
	opened  []int
	busNr   int
	defBus  int
	openErr error
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, address)
	f.busNr = busNr
	c, ok := f.conns[address]
	if !ok {
		c = &fakeConn{}
		f.conns[address] = c
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return f.defBus
}

func TestGobotBus_ReadWrite(t *testing.T) {
	conn := &fakeConn{read: []byte{0x41, 0xC8, 0x00}}
	connector := &fakeConnector{conns: map[int]*fakeConn{0x3c: conn}, defBus: 2}
	bus := NewGobotBus(connector, -1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, 0x3c, []byte{0x0A}))
	buf := make([]byte, 4)
	n, err := bus.ReadFromAddr(ctx, 0x3c, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x41, 0xC8, 0x00, 0x00}, buf)
	assert.Equal(t, [][]byte{{0x0A}}, conn.written)
	// connection is reused for the same address
	assert.Equal(t, []int{0x3c}, connector.opened)
	assert.Equal(t, 2, connector.busNr)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_Errors(t *testing.T) {
	connector := &fakeConnector{conns: map[int]*fakeConn{}, openErr: errors.New("no bus")}
	bus := NewGobotBus(connector, 1)
	err := bus.WriteToAddr(context.Background(), 0x3c, []byte{0x00})
	assert.ErrorContains(t, err, "no bus")

	failing := &fakeConn{err: errors.New("nack")}
	connector = &fakeConnector{conns: map[int]*fakeConn{0x3c: failing}}
	bus = NewGobotBus(connector, 1)
	_, err = bus.ReadFromAddr(context.Background(), 0x3c, make([]byte, 1))
	assert.ErrorContains(t, err, "nack")
}
