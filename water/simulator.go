package water

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/mklimuk/ecprobe"
)

// ErrNoAck is returned by the simulator for frames sent to another address.
var ErrNoAck = errors.New("simulator: address not acknowledged")

// tempCoefEC is the linear EC temperature coefficient used by the probe firmware.
const tempCoefEC = 0.019

var _ ecprobe.I2CBusCloser = &Simulator{}

// Frame is a single bus transaction seen by the simulator.
type Frame struct {
	Write bool
	Data  []byte
}

type SimulatorOpts struct {
	Address      byte
	ByteOrder    binary.ByteOrder
	Version      byte
	Firmware     byte
	EC           float32
	Salinity     float32
	Temp         float32
	Compensation bool
}

type SimulatorOpt func(*SimulatorOpts)

func SimWithAddress(address byte) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Address = address
	}
}

func SimWithByteOrder(order binary.ByteOrder) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.ByteOrder = order
	}
}

func SimWithVersion(version, firmware byte) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Version = version
		o.Firmware = firmware
	}
}

// SimWithReadings sets what the simulated solution measures before calibration
// and compensation: EC in mS, salinity in PSU and temperature in °C.
func SimWithReadings(ec, salinity, temp float32) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.EC = ec
		o.Salinity = salinity
		o.Temp = temp
	}
}

func SimWithCompensation(enabled bool) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Compensation = enabled
	}
}

// Simulator emulates the probe firmware behind an ecprobe.I2CBus. Register
// writes are stored and echoed back by later reads, and tasks (conversions,
// calibration, EEPROM, address change) run immediately. A measurement register
// only changes when its conversion task is written. Faults can be injected for the next write or read.
type Simulator struct {
	mx      sync.Mutex
	config  SimulatorOpts
	address byte
	pointer byte
	regs    map[byte][]byte
	pinned  map[byte][]byte
	eeprom  map[int][]byte
	frames  []Frame

	writeErr  error
	readErr   error
	shortRead int
	closed    bool
}

func NewSimulator(opts ...SimulatorOpt) *Simulator {
	config := SimulatorOpts{
		Address:      DefaultAddress,
		ByteOrder:    binary.BigEndian,
		Version:      2,
		Firmware:     10,
		EC:           1.413,
		Salinity:     35,
		Temp:         25,
		Compensation: true,
	}
	for _, opt := range opts {
		opt(&config)
	}
	s := &Simulator{
		config:    config,
		address:   config.Address,
		regs:      make(map[byte][]byte),
		pinned:    make(map[byte][]byte),
		eeprom:    make(map[int][]byte),
		shortRead: -1,
	}
	s.regs[regVersion] = []byte{config.Version}
	s.regs[regFirmware] = []byte{config.Firmware}
	s.regs[regCalibrateEC] = s.encode(1)
	s.regs[regCalibrateSW] = s.encode(1)
	s.regs[regTempConstant] = s.encode(defaultTempConstant)
	s.regs[regConfig] = []byte{0}
	if config.Compensation {
		s.regs[regConfig] = []byte{1}
	}
	return s
}

func (s *Simulator) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.frames = append(s.frames, Frame{Write: true, Data: append([]byte(nil), buffer...)})
	if s.writeErr != nil {
		err := s.writeErr
		s.writeErr = nil
		return err
	}
	if address != s.address {
		return ErrNoAck
	}
	if len(buffer) == 0 {
		return nil
	}
	s.pointer = buffer[0]
	if len(buffer) == 1 {
		return nil
	}
	payload := append([]byte(nil), buffer[1:]...)
	if s.pointer == regTask {
		s.runTask(payload[0])
		return nil
	}
	s.regs[s.pointer] = payload
	return nil
}

func (s *Simulator) ReadFromAddr(ctx context.Context, address byte, buffer []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.frames = append(s.frames, Frame{Write: false, Data: nil})
	if s.readErr != nil {
		err := s.readErr
		s.readErr = nil
		return 0, err
	}
	if address != s.address {
		return 0, ErrNoAck
	}
	data, ok := s.pinned[s.pointer]
	if !ok {
		data = s.regs[s.pointer]
	}
	clear(buffer)
	n := copy(buffer, data)
	if n < len(buffer) && len(data) == 0 {
		// an unset register reads as zeros
		n = len(buffer)
	}
	if s.shortRead >= 0 && s.shortRead < n {
		n = s.shortRead
		s.shortRead = -1
	}
	s.frames[len(s.frames)-1].Data = append([]byte(nil), buffer[:n]...)
	return n, nil
}

func (s *Simulator) Release(ctx context.Context) error {
	return nil
}

func (s *Simulator) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Simulator) Closed() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.closed
}

// Address is the address the simulated probe currently answers on.
func (s *Simulator) Address() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.address
}

// SetReadings changes the simulated solution.
func (s *Simulator) SetReadings(ec, salinity, temp float32) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.config.EC = ec
	s.config.Salinity = salinity
	s.config.Temp = temp
}

// Pin makes every read of reg return payload until Unpin is called.
func (s *Simulator) Pin(reg byte, payload []byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.pinned[reg] = append([]byte(nil), payload...)
}

func (s *Simulator) Unpin(reg byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	delete(s.pinned, reg)
}

// FailNextWrite makes the next write return err.
func (s *Simulator) FailNextWrite(err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.writeErr = err
}

// FailNextRead makes the next read return err.
func (s *Simulator) FailNextRead(err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.readErr = err
}

// ShortNextRead truncates the next read to n bytes.
func (s *Simulator) ShortNextRead(n int) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.shortRead = n
}

// Frames returns the transactions seen so far.
func (s *Simulator) Frames() []Frame {
	s.mx.Lock()
	defer s.mx.Unlock()
	return append([]Frame(nil), s.frames...)
}

// Writes returns only the written frames.
func (s *Simulator) Writes() [][]byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	var writes [][]byte
	for _, f := range s.frames {
		if f.Write {
			writes = append(writes, f.Data)
		}
	}
	return writes
}

func (s *Simulator) ClearFrames() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.frames = nil
}

func (s *Simulator) encode(v float32) []byte {
	b := make([]byte, 4)
	s.config.ByteOrder.PutUint32(b, math.Float32bits(v))
	return b
}

func (s *Simulator) decode(reg byte) float32 {
	b := s.regs[reg]
	if len(b) != 4 {
		return float32(math.NaN())
	}
	return math.Float32frombits(s.config.ByteOrder.Uint32(b))
}

func (s *Simulator) compensation() float32 {
	if cfg := s.regs[regConfig]; len(cfg) == 0 || cfg[0] == 0 {
		return 1
	}
	temp := s.decode(regTempConstant)
	if math.IsNaN(float64(temp)) {
		return 1
	}
	return 1 + tempCoefEC*(temp-25)
}

func (s *Simulator) factor(reg byte) float32 {
	f := s.decode(reg)
	if math.IsNaN(float64(f)) || f == 0 {
		return 1
	}
	return f
}

// convert runs the conversion that stores its result in reg.
func (s *Simulator) convert(reg byte) {
	switch reg {
	case regTemp:
		s.regs[regTemp] = s.encode(s.config.Temp)
	case regMS:
		raw := s.config.EC
		s.regs[regRaw] = s.encode(raw * 1000)
		if raw == 0 {
			s.regs[regMS] = make([]byte, 4)
			return
		}
		s.regs[regMS] = s.encode(raw * s.factor(regCalibrateEC) / s.compensation())
	case regSalinityPSU:
		raw := s.config.Salinity
		s.regs[regRaw] = s.encode(raw * 1000)
		if raw == 0 {
			s.regs[regSalinityPSU] = make([]byte, 4)
			return
		}
		s.regs[regSalinityPSU] = s.encode(raw * s.factor(regCalibrateSW) / s.compensation())
	}
}

func (s *Simulator) runTask(task byte) {
	switch task {
	case taskMeasureEC:
		s.convert(regMS)
	case taskMeasureSW:
		s.convert(regSalinityPSU)
	case taskMeasureTemp:
		s.convert(regTemp)
	case taskCalibrateEC:
		solution := s.decode(regSolution)
		if s.config.EC != 0 {
			s.regs[regCalibrateEC] = s.encode(solution * s.compensation() / s.config.EC)
		}
	case taskCalibrateSW:
		solution := s.decode(regSolution)
		if s.config.Salinity != 0 {
			s.regs[regCalibrateSW] = s.encode(solution * s.compensation() / s.config.Salinity)
		}
	case taskI2C:
		s.address = byte(s.decode(regBuffer))
	case taskReadEEPROM:
		s.regs[regBuffer] = append([]byte(nil), s.eeprom[int(s.decode(regSolution))]...)
	case taskWriteEEPROM:
		s.eeprom[int(s.decode(regSolution))] = append([]byte(nil), s.regs[regBuffer]...)
	}
}
