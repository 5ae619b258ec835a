package clusterbridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jd3nn1s/clusterbridge/dmecan"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/jd3nn1s/clusterbridge/pins"
	"github.com/jd3nn1s/clusterbridge/simhub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const recordBufferSize = 1

// Bridge owns the telemetry record and turns it into cluster traffic once
// per cycle.
type Bridge struct {
	CAN     CANBus
	KBus    KBus
	Outputs Outputs
	Tap     Forwarder
	// Clock supplies the time of day shown by the cluster. nil sends 00:00.
	Clock func() time.Time

	PrintTelemetry bool

	telemetry  simhub.Telemetry
	recordChan chan simhub.Telemetry
	testMode   bool
	host       HostConfig
	lastErr    string
}

func NewBridge(host HostConfig, canBus CANBus, kBus KBus, outputs Outputs) *Bridge {
	return &Bridge{
		CAN:        canBus,
		KBus:       kBus,
		Outputs:    outputs,
		recordChan: make(chan simhub.Telemetry, recordBufferSize),
		host:       host,
	}
}

func (b *Bridge) SetTestMode(testMode bool) {
	b.testMode = testMode
}

func (b *Bridge) Telemetry() simhub.Telemetry {
	return b.telemetry
}

// Ingest reads one record directly into the bridge's telemetry. It is the
// synchronous alternative to Start and must not be mixed with it.
func (b *Bridge) Ingest(src simhub.FieldReader) error {
	return simhub.ReadRecord(src, &b.telemetry)
}

// Start reads the host stream on its own goroutine. Completed records are
// handed over through CheckChannels.
func (b *Bridge) Start(ctx context.Context) {
	link := &hostLink{
		portName: b.host.Port,
		baudRate: b.host.Baud,
		sendChan: b.recordChan,
		connect:  hostConnect,
	}
	if b.testMode {
		link.connect = func(string, int) (io.ReadCloser, error) {
			return newTestStream(ctx), nil
		}
	}
	go runHost(ctx, link)
}

// CheckChannels swaps in the newest complete record, if one arrived, and
// reports whether it differs from the previous one.
func (b *Bridge) CheckChannels() (changed bool) {
	select {
	case t := <-b.recordChan:
		changed = t != b.telemetry
		b.telemetry = t
	default:
	}
	return
}

// Run drives a cycle every interval until ctx is done.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if b.CheckChannels() && b.PrintTelemetry {
			fmt.Printf("%+v\n", b.telemetry)
		}
		b.logCycleError(b.Cycle())
	}
}

func (b *Bridge) logCycleError(err error) {
	if err == nil {
		b.lastErr = ""
		return
	}
	if err.Error() != b.lastErr {
		log.WithField("err", err).Warn("cycle incomplete")
	} else {
		log.WithField("err", err).Debug("cycle incomplete")
	}
	b.lastErr = err.Error()
}

// Cycle applies the outputs and transmits every frame once, in a fixed
// order. A failing step does not stop the ones after it; the first failure
// is returned.
func (b *Bridge) Cycle() error {
	t := &b.telemetry
	var firstErr error
	check := func(step string, err error) {
		if err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "%s", step)
		}
	}

	check("backlight", b.Outputs.Set(pins.Backlight, backlightOn(t)))
	tractionControl := dmecan.TractionControl{Light: tractionControlLight(t)}
	check("abs", b.Outputs.Set(pins.ABS, absLight(t)))
	check("ebrake", b.Outputs.Set(pins.EBrake, t.EBrake))
	check("speedometer", b.writeSpeedometer(t.Speed))

	check("rpm", b.publish(dmecan.RPM{Value: uint8(MapRPM(t.RPM))}))
	check("engine state", b.publish(EncodeEngineState(t)))
	check("temperature", b.publish(dmecan.Temperature{Value: uint8(MapTemperature(t.CoolantTemp))}))
	check("traction control", b.publish(tractionControl))
	check("clock", b.publish(b.clock()))

	check("lamp status", b.send(EncodeLights(t).Message()))
	return firstErr
}

func (b *Bridge) writeSpeedometer(speed int) error {
	hz, ok := MapSpeedTone(speed)
	if !ok {
		return b.Outputs.NoTone()
	}
	return b.Outputs.Tone(hz)
}

func (b *Bridge) clock() dmecan.Clock {
	if b.Clock == nil {
		return dmecan.Clock{}
	}
	now := b.Clock()
	return dmecan.Clock{
		Hour:   uint8(now.Hour()),
		Minute: uint8(now.Minute()),
	}
}

func (b *Bridge) publish(builder dmecan.Builder) error {
	frame := builder.Frame()
	err := b.CAN.Publish(frame)
	if b.Tap != nil {
		if tapErr := b.Tap.ForwardCAN(frame); tapErr != nil {
			log.WithField("err", tapErr).Debug("unable to tap can frame")
		}
	}
	return err
}

func (b *Bridge) send(m kbus.Message) error {
	err := b.KBus.Send(m)
	if b.Tap != nil {
		if tapErr := b.Tap.ForwardKBus(m); tapErr != nil {
			log.WithField("err", tapErr).Debug("unable to tap kbus message")
		}
	}
	return err
}
