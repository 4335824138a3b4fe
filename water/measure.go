package water

import (
	"context"
)

// disconnectedTemp is what the probe reports when no thermistor is attached.
const disconnectedTemp = -127

const psuToPPT = 1.004715

// MeasureTemp runs a temperature conversion and returns °C.
func (p *Probe) MeasureTemp(ctx context.Context) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.measureTemp(ctx)
}

func (p *Probe) measureTemp(ctx context.Context) (float32, error) {
	resp, err := p.convert(ctx, cmdMeasureTemp)
	if err != nil {
		return 0, err
	}
	temp, err := p.codec.DecodeFloat(cmdMeasureTemp, resp)
	if err != nil {
		return 0, err
	}
	if temp == disconnectedTemp {
		return 0, decodeErr(cmdMeasureTemp, resp, ErrUnavailable)
	}
	return temp, nil
}

// MeasureEC measures conductivity in mS.
//
// With compensated set, a fresh temperature is measured and written to the
// temperature constant register first, so the firmware compensates with the
// current reading. That is three cycles in a fixed order (temperature,
// constant write, conductivity) and the first failing one aborts the
// measurement.
func (p *Probe) MeasureEC(ctx context.Context, compensated bool) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.measure(ctx, cmdMeasureEC, compensated)
}

// MeasureSalinity measures salinity in PSU. See MeasureEC for compensated.
func (p *Probe) MeasureSalinity(ctx context.Context, compensated bool) (float32, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.measure(ctx, cmdMeasureSW, compensated)
}

func (p *Probe) measure(ctx context.Context, cmd Command, compensated bool) (float32, error) {
	if compensated {
		temp, err := p.measureTemp(ctx)
		if err != nil {
			return 0, err
		}
		err = p.writeFloat(ctx, cmdTempConstant, temp)
		if err != nil {
			return 0, err
		}
	}
	resp, err := p.convert(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return p.codec.DecodeFloat(cmd, resp)
}

// Conductivity is an EC reading in milliSiemens.
type Conductivity float32

func (c Conductivity) Siemens() float32 {
	return float32(c) / 1000
}

func (c Conductivity) MicroSiemens() float32 {
	return float32(c) * 1000
}

// PPM500 converts to total dissolved solids with the 500 (NaCl) factor.
func (c Conductivity) PPM500() int {
	return int(float32(c) * 500)
}

// PPM640 uses the 640 (EC) factor.
func (c Conductivity) PPM640() int {
	return int(float32(c) * 640)
}

// PPM700 uses the 700 (442) factor.
func (c Conductivity) PPM700() int {
	return int(float32(c) * 700)
}

// Temperature is in °C.
type Temperature float32

func (t Temperature) Fahrenheit() float32 {
	return float32(t)*9/5 + 32
}

// Salinity is in practical salinity units.
type Salinity float32

func (s Salinity) PPT() float32 {
	return float32(s) * psuToPPT
}
