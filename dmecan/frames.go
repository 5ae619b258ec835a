package dmecan

import (
	"github.com/brutella/can"
)

const (
	FrameRPM             uint32 = 0x316
	FrameEngineState     uint32 = 0x545
	FrameTemperature     uint32 = 0x329
	FrameTractionControl uint32 = 0x153
	FrameClock           uint32 = 0x613

	frameLength = 8
)

const (
	// byte 0
	engineLightCruise uint8 = 0x08

	// byte 3
	engineLightOil      uint8 = 0x02
	engineLightOverheat uint8 = 0x08
)

// Builder produces one fixed layout frame.
type Builder interface {
	Frame() can.Frame
}

// RPM carries the scaled engine speed (0-175) in byte 3. The remaining bytes
// are constants the cluster expects from the engine controller.
type RPM struct {
	Value uint8
}

func (r RPM) Frame() can.Frame {
	return newFrame(FrameRPM, [frameLength]uint8{0x05, 0x62, 0xFF, r.Value, 0x65, 0x12, 0x00, 62})
}

// EngineState is the warning light bundle.
type EngineState struct {
	Cruise   bool
	OilLight bool
	Overheat bool
}

func (e EngineState) Frame() can.Frame {
	var load0, load3 uint8
	if e.Cruise {
		load0 |= engineLightCruise
	}
	if e.OilLight {
		load3 |= engineLightOil
	}
	if e.Overheat {
		load3 |= engineLightOverheat
	}
	return newFrame(FrameEngineState, [frameLength]uint8{load0, 0x01, 0x18, load3})
}

// Temperature carries the scaled coolant temperature in byte 1. Callers
// truncate to the low 8 bits, so scaled values above 255 wrap.
type Temperature struct {
	Value uint8
}

func (t Temperature) Frame() can.Frame {
	return newFrame(FrameTemperature, [frameLength]uint8{0x00, t.Value})
}

// TractionControl lights the traction control lamp when Light is set and
// clears it, together with the (!) lamp, otherwise.
type TractionControl struct {
	Light bool
}

func (tc TractionControl) Frame() can.Frame {
	var load1 uint8
	if tc.Light {
		load1 = 0x01
	}
	return newFrame(FrameTractionControl, [frameLength]uint8{0x00, load1})
}

type Clock struct {
	Hour   uint8
	Minute uint8
}

func (c Clock) Frame() can.Frame {
	return newFrame(FrameClock, [frameLength]uint8{0x00, 0x00, 0x10, c.Hour, c.Minute})
}

func newFrame(id uint32, data [frameLength]uint8) can.Frame {
	return can.Frame{
		ID:     id,
		Length: frameLength,
		Data:   data,
	}
}
