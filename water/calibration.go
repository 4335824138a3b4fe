package water

import (
	"context"
	"fmt"
	"math"
)

// absentVersion is what a floating bus reads back when nothing answers.
const absentVersion = 0xFF

const defaultTempConstant = 25

func (p *Probe) GetCalibrationEC(ctx context.Context) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readFloat(ctx, cmdCalibrateEC)
}

// SetCalibrationEC writes the EC calibration factor. The value is not checked;
// the firmware decides what to do with out of range factors.
func (p *Probe) SetCalibrationEC(ctx context.Context, factor float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.writeFloat(ctx, cmdCalibrateEC, factor)
}

func (p *Probe) GetCalibrationSW(ctx context.Context) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readFloat(ctx, cmdCalibrateSW)
}

func (p *Probe) SetCalibrationSW(ctx context.Context, factor float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.writeFloat(ctx, cmdCalibrateSW, factor)
}

func (p *Probe) UsingTemperatureCompensation(ctx context.Context) (bool, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readBool(ctx, cmdCompensation)
}

// UseTemperatureCompensation sets the compensation bit of the config register.
// The register is read first so the other config bits survive.
func (p *Probe) UseTemperatureCompensation(ctx context.Context, enabled bool) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.useCompensation(ctx, enabled)
}

func (p *Probe) useCompensation(ctx context.Context, enabled bool) error {
	resp, err := p.read(ctx, cmdCompensation)
	if err != nil {
		return err
	}
	if err := checkLen(cmdCompensation, resp, 1); err != nil {
		return err
	}
	config := resp[0] &^ compensationBit
	if enabled {
		config |= compensationBit
	}
	return p.writeByte(ctx, cmdCompensation, config)
}

func (p *Probe) GetTempConstant(ctx context.Context) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readFloat(ctx, cmdTempConstant)
}

func (p *Probe) SetTempConstant(ctx context.Context, temp float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.writeFloat(ctx, cmdTempConstant, temp)
}

func (p *Probe) GetVersion(ctx context.Context) (int, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readUint8(ctx, cmdVersion)
}

func (p *Probe) GetFirmware(ctx context.Context) (int, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readUint8(ctx, cmdFirmware)
}

// GetRaw returns the raw ADC count behind the last measurement.
func (p *Probe) GetRaw(ctx context.Context) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.readFloat(ctx, cmdRaw)
}

// SetTemp overwrites the temperature register, e.g. with a reading from an
// external thermometer.
func (p *Probe) SetTemp(ctx context.Context, temp float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.writeFloat(ctx, cmdMeasureTemp, temp)
}

// CalibrateEC calibrates the probe in a reference solution of the given mS.
func (p *Probe) CalibrateEC(ctx context.Context, solution float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.calibrate(ctx, solution, taskCalibrateEC)
}

// CalibrateSW calibrates the salinity reading in a reference solution of the given PSU.
func (p *Probe) CalibrateSW(ctx context.Context, solution float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.calibrate(ctx, solution, taskCalibrateSW)
}

func (p *Probe) calibrate(ctx context.Context, solution float32, task byte) error {
	err := p.writeFloat(ctx, cmdSolution, solution)
	if err != nil {
		return err
	}
	return p.runTask(ctx, task)
}

// Reset clears both calibration factors, sets the temperature constant back
// to 25 °C and disables temperature compensation.
func (p *Probe) Reset(ctx context.Context) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	nan := float32(math.NaN())
	if err := p.writeFloat(ctx, cmdCalibrateEC, nan); err != nil {
		return err
	}
	if err := p.writeFloat(ctx, cmdCalibrateSW, nan); err != nil {
		return err
	}
	if err := p.writeFloat(ctx, cmdTempConstant, defaultTempConstant); err != nil {
		return err
	}
	return p.useCompensation(ctx, false)
}

// Connected reads the version register and reports whether a probe answered.
func (p *Probe) Connected(ctx context.Context) (bool, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	version, err := p.readUint8(ctx, cmdVersion)
	if err != nil {
		return false, err
	}
	return version != absentVersion, nil
}

// SetI2CAddress moves the probe to a new address. The probe is rebound to the
// new address once the task has been accepted.
func (p *Probe) SetI2CAddress(ctx context.Context, address byte) error {
	if !ValidAddress(address) {
		return &TransportError{Op: "set address", Err: fmt.Errorf("%w: %#x", ErrInvalidAddress, address)}
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	if err := p.writeFloat(ctx, cmdBuffer, float32(address)); err != nil {
		return err
	}
	if err := p.runTask(ctx, taskI2C); err != nil {
		return err
	}
	p.transport.address = address
	return nil
}

// ReadEEPROM reads a float from the probe EEPROM at address.
func (p *Probe) ReadEEPROM(ctx context.Context, address float32) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if err := p.writeFloat(ctx, cmdSolution, address); err != nil {
		return 0, err
	}
	if err := p.runTask(ctx, taskReadEEPROM); err != nil {
		return 0, err
	}
	return p.readFloat(ctx, cmdBuffer)
}

// WriteEEPROM stores value in the probe EEPROM at address.
func (p *Probe) WriteEEPROM(ctx context.Context, address float32, value float32) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if err := p.writeFloat(ctx, cmdSolution, address); err != nil {
		return err
	}
	if err := p.writeFloat(ctx, cmdBuffer, value); err != nil {
		return err
	}
	return p.runTask(ctx, taskWriteEEPROM)
}
