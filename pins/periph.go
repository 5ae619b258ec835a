package pins

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphConfig names the header pins, as known to the periph registry
// (e.g. "GPIO18"), for each output and for the speedometer signal.
type PeriphConfig struct {
	Lines map[Pin]string
	Tone  string
}

// Periph drives the digital outputs through periph.io and produces the
// speedometer tone as a 50% duty PWM on a pin that supports it.
type Periph struct {
	lines map[Pin]gpio.PinOut
	tone  gpio.PinOut
	hz    int
}

func OpenPeriph(cfg PeriphConfig) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "unable to initialise periph host drivers")
	}
	lines := make(map[Pin]gpio.PinOut, len(All))
	for _, p := range All {
		name, ok := cfg.Lines[p]
		if !ok || name == "" {
			return nil, errors.Errorf("no gpio pin configured for %s", p)
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, errors.Errorf("unknown gpio pin %s for %s", name, p)
		}
		lines[p] = pin
	}
	tone := gpioreg.ByName(cfg.Tone)
	if tone == nil {
		return nil, errors.Errorf("unknown gpio pin %q for the speedometer", cfg.Tone)
	}
	s, err := newPeriph(lines, tone)
	if err != nil {
		return nil, err
	}
	log.WithField("tone", cfg.Tone).Info("periph outputs opened")
	return s, nil
}

func newPeriph(lines map[Pin]gpio.PinOut, tone gpio.PinOut) (*Periph, error) {
	s := &Periph{
		lines: lines,
		tone:  tone,
	}
	for _, p := range All {
		if err := s.Set(p, false); err != nil {
			return nil, err
		}
	}
	if err := s.NoTone(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Periph) Set(p Pin, on bool) error {
	pin, ok := s.lines[p]
	if !ok {
		return errors.Errorf("no gpio pin configured for %s", p)
	}
	if err := pin.Out(gpio.Level(on)); err != nil {
		return errors.Wrapf(err, "unable to set %s", p)
	}
	return nil
}

// Tone sets the speedometer signal frequency. Rewriting an unchanged
// frequency is skipped so the waveform is not restarted every cycle.
func (s *Periph) Tone(hz int) error {
	if hz <= 0 {
		return s.NoTone()
	}
	if hz == s.hz {
		return nil
	}
	if err := s.tone.PWM(gpio.DutyHalf, physic.Frequency(hz)*physic.Hertz); err != nil {
		return errors.Wrapf(err, "unable to start speedometer tone at %d Hz", hz)
	}
	s.hz = hz
	return nil
}

func (s *Periph) NoTone() error {
	s.hz = 0
	if err := s.tone.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "unable to stop speedometer tone")
	}
	return nil
}

func (s *Periph) Close() error {
	err := s.NoTone()
	for _, p := range All {
		if setErr := s.Set(p, false); setErr != nil && err == nil {
			err = setErr
		}
	}
	return err
}
