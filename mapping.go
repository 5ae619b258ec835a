package clusterbridge

import (
	"github.com/jd3nn1s/clusterbridge/dmecan"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/jd3nn1s/clusterbridge/simhub"
)

const (
	clusterMaxRPM = 7000
	rpmScaleMax   = 175

	tempInMin  = 50
	tempInMax  = 130
	tempOutMin = 50
	tempOutMax = 260

	// the gauge is held just below the red zone at and above this temperature
	tempOverheat = 130
	tempHeld     = 125

	speedScaleMax = 250
	toneScaleMax  = 1680
)

// mapRange linearly maps x from [inMin, inMax] to [outMin, outMax] in integer
// arithmetic. Results truncate toward zero and are not clamped.
func mapRange(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// MapRPM scales engine speed to the 0-175 range of the rpm frame, saturating
// at the cluster's 7000 rpm limit.
func MapRPM(rpm int) int {
	if rpm > clusterMaxRPM {
		rpm = clusterMaxRPM
	}
	if rpm < 0 {
		rpm = 0
	}
	return mapRange(rpm, 0, clusterMaxRPM, 0, rpmScaleMax)
}

// MapTemperature scales coolant temperature from 50-130 °C to 50-260.
// Readings of 130 °C and above are shown as 125 °C. Nothing else is clamped.
func MapTemperature(temp int) int {
	if temp >= tempOverheat {
		temp = tempHeld
	}
	return mapRange(temp, tempInMin, tempInMax, tempOutMin, tempOutMax)
}

// MapSpeedTone returns the speedometer frequency for a road speed in km/h.
// 250 km/h is 1680 Hz and faster speeds keep extrapolating. ok is false when
// the needle should rest, which is at 0 km/h and below.
func MapSpeedTone(speed int) (hz int, ok bool) {
	if speed <= 0 {
		return 0, false
	}
	return mapRange(speed, 0, speedScaleMax, 0, toneScaleMax), true
}

func backlightOn(t *simhub.Telemetry) bool {
	return t.Backlight || t.Lights
}

func absLight(t *simhub.Telemetry) bool {
	return t.ABSMode == 0 || t.ABSActive == 1
}

func tractionControlLight(t *simhub.Telemetry) bool {
	return t.TCSActive != 0 || t.TCSMode != 0
}

func EncodeLights(t *simhub.Telemetry) kbus.LampStatus {
	return kbus.LampStatus{
		Parking:   t.Lights,
		HighBeam:  t.HighBeam,
		TurnLeft:  t.BlinkerLeft,
		TurnRight: t.BlinkerRight,
		Backlight: backlightOn(t),
	}
}

func EncodeEngineState(t *simhub.Telemetry) dmecan.EngineState {
	return dmecan.EngineState{
		Cruise:   t.CruiseControl,
		OilLight: t.OilWarning,
		Overheat: t.CoolantTemp >= tempOverheat,
	}
}
