package water

import (
	"time"
)

// DefaultAddress is the factory 7-bit address of the uFire EC Salinity probe.
const DefaultAddress = 0x3c

// Register map. Measurement registers hold the result of the last conversion;
// a conversion is started by writing its task code to regTask.
const (
	regVersion      byte = 0x00
	regFirmware     byte = 0x01
	regMS           byte = 0x02
	regSalinityPSU  byte = 0x06
	regTemp         byte = 0x0A
	regRaw          byte = 0x0E
	regSolution     byte = 0x12
	regCalibrateEC  byte = 0x16
	regCalibrateSW  byte = 0x1A
	regTempConstant byte = 0x1E
	regBuffer       byte = 0x22
	regConfig       byte = 0x26
	regTask         byte = 0x27
)

// Task codes written to regTask.
const (
	taskMeasureEC   byte = 80
	taskMeasureSW   byte = 40
	taskMeasureTemp byte = 20
	taskCalibrateEC byte = 10
	taskCalibrateSW byte = 8
	taskI2C         byte = 4
	taskReadEEPROM  byte = 2
	taskWriteEEPROM byte = 1
)

const (
	registerDelay    = 10 * time.Millisecond
	measureECDelay   = 250 * time.Millisecond
	measureTempDelay = 750 * time.Millisecond
	calibrateDelay   = 750 * time.Millisecond
)

// compensationBit is the temperature compensation bit of regConfig.
const compensationBit byte = 1 << 0

// ValueKind says how a register payload is encoded.
type ValueKind int

const (
	ValueByte ValueKind = iota
	ValueUint8
	ValueFloat
)

func (k ValueKind) size() int {
	if k == ValueFloat {
		return 4
	}
	return 1
}

// Command describes a single register: its opcode, payload type and the time
// the probe needs after the opcode has been written before the result is ready.
// Measurement registers also carry the task that starts their conversion and
// how long the conversion takes.
type Command struct {
	Name         string
	Opcode       byte
	Kind         ValueKind
	Task         byte
	ConvertDelay time.Duration
	ReadDelay    time.Duration
	WriteDelay   time.Duration
	Writable     bool
	Readable     bool
}

// ResponseLen is the number of bytes a read of this register returns.
func (c Command) ResponseLen() int {
	if !c.Readable {
		return 0
	}
	return c.Kind.size()
}

var (
	cmdVersion      = Command{Name: "version", Opcode: regVersion, Kind: ValueUint8, ReadDelay: registerDelay, Readable: true}
	cmdFirmware     = Command{Name: "firmware", Opcode: regFirmware, Kind: ValueUint8, ReadDelay: registerDelay, Readable: true}
	cmdMeasureEC    = Command{Name: "measure ec", Opcode: regMS, Kind: ValueFloat, Task: taskMeasureEC, ConvertDelay: measureECDelay, ReadDelay: registerDelay, Readable: true}
	cmdMeasureSW    = Command{Name: "measure salinity", Opcode: regSalinityPSU, Kind: ValueFloat, Task: taskMeasureSW, ConvertDelay: measureECDelay, ReadDelay: registerDelay, Readable: true}
	cmdMeasureTemp  = Command{Name: "measure temperature", Opcode: regTemp, Kind: ValueFloat, Task: taskMeasureTemp, ConvertDelay: measureTempDelay, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdRaw          = Command{Name: "raw", Opcode: regRaw, Kind: ValueFloat, ReadDelay: registerDelay, Readable: true}
	cmdSolution     = Command{Name: "solution", Opcode: regSolution, Kind: ValueFloat, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdCalibrateEC  = Command{Name: "calibration ec", Opcode: regCalibrateEC, Kind: ValueFloat, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdCalibrateSW  = Command{Name: "calibration sw", Opcode: regCalibrateSW, Kind: ValueFloat, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdTempConstant = Command{Name: "temperature constant", Opcode: regTempConstant, Kind: ValueFloat, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdBuffer       = Command{Name: "buffer", Opcode: regBuffer, Kind: ValueFloat, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdCompensation = Command{Name: "temperature compensation", Opcode: regConfig, Kind: ValueByte, ReadDelay: registerDelay, WriteDelay: registerDelay, Readable: true, Writable: true}
	cmdTask         = Command{Name: "task", Opcode: regTask, Kind: ValueByte, WriteDelay: registerDelay, Writable: true}
)

// commands is the register table indexed by opcode.
var commands = map[byte]Command{
	regVersion:      cmdVersion,
	regFirmware:     cmdFirmware,
	regMS:           cmdMeasureEC,
	regSalinityPSU:  cmdMeasureSW,
	regTemp:         cmdMeasureTemp,
	regRaw:          cmdRaw,
	regSolution:     cmdSolution,
	regCalibrateEC:  cmdCalibrateEC,
	regCalibrateSW:  cmdCalibrateSW,
	regTempConstant: cmdTempConstant,
	regBuffer:       cmdBuffer,
	regConfig:       cmdCompensation,
	regTask:         cmdTask,
}

// Lookup returns the register table entry for opcode.
func Lookup(opcode byte) (Command, bool) {
	cmd, ok := commands[opcode]
	return cmd, ok
}

// taskDelay is how long the probe needs to run a task.
func taskDelay(task byte) time.Duration {
	switch task {
	case taskMeasureEC, taskMeasureSW:
		return measureECDelay
	case taskMeasureTemp:
		return measureTempDelay
	case taskCalibrateEC, taskCalibrateSW:
		return calibrateDelay
	default:
		return registerDelay
	}
}
