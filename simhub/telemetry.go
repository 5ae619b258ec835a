package simhub

// Telemetry is the latest state reported by the simulation host. Boolean
// flags arrive as "True"/"False" text, the ABS and traction control fields
// as small integers.
type Telemetry struct {
	Speed       int
	RPM         int
	CoolantTemp int
	OilPressure int

	CruiseControl bool
	EBrake        bool
	OilWarning    bool
	Lights        bool

	ABSActive int
	ABSMode   int
	TCSActive int
	TCSMode   int

	HighBeam     bool
	BlinkerLeft  bool
	BlinkerRight bool
	Backlight    bool

	Game string
}
