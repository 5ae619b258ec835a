package kbus

const (
	lampParking   byte = 0x01
	lampHighBeam  byte = 0x04
	lampTurnLeft  byte = 0x20
	lampTurnRight byte = 0x40

	lampBacklight byte = 0x01
)

// LampStatus is the light control module broadcast that drives the cluster's
// lighting indicators.
type LampStatus struct {
	Parking   bool
	HighBeam  bool
	TurnLeft  bool
	TurnRight bool
	Backlight bool
}

// Bytes packs the flags into the two lighting bytes of the telegram.
func (l LampStatus) Bytes() (byte, byte) {
	var b1, b2 byte
	if l.Parking {
		b1 |= lampParking
	}
	if l.HighBeam {
		b1 |= lampHighBeam
	}
	if l.TurnLeft {
		b1 |= lampTurnLeft
	}
	if l.TurnRight {
		b1 |= lampTurnRight
	}
	if l.Backlight {
		b2 |= lampBacklight
	}
	return b1, b2
}

func (l LampStatus) Message() Message {
	b1, b2 := l.Bytes()
	return Message{
		Source: AddrLCM,
		Dest:   AddrGlobal,
		Data:   []byte{CmdLampStatus, b1, 0x00, 0x00, b2, 0x00},
	}
}
