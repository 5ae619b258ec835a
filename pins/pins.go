package pins

import (
	"fmt"
)

// Pin is one of the bridge's digital outputs.
type Pin int

const (
	Backlight Pin = iota
	ABS
	EBrake
)

// All lists every digital output, in the order they are initialised.
var All = []Pin{Backlight, ABS, EBrake}

func (p Pin) String() string {
	switch p {
	case Backlight:
		return "backlight"
	case ABS:
		return "abs"
	case EBrake:
		return "ebrake"
	}
	return fmt.Sprintf("pin(%d)", int(p))
}
