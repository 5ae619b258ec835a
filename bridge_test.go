package clusterbridge

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brutella/can"
	"github.com/jd3nn1s/clusterbridge/dmecan"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/jd3nn1s/clusterbridge/pins"
	"github.com/jd3nn1s/clusterbridge/simhub"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTripRecord = "100;3000;90;0;False;False;False;False;0;0;0;0;False;False;False;False;AssetoCorsa\n"

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type canBusStub struct {
	rec    *recorder
	frames []can.Frame
	err    error
}

func (c *canBusStub) Close() error {
	return nil
}

func (c *canBusStub) Publish(f can.Frame) error {
	c.rec.add("can %03x", f.ID)
	c.frames = append(c.frames, f)
	return c.err
}

func (c *canBusStub) frame(id uint32) can.Frame {
	for _, f := range c.frames {
		if f.ID == id {
			return f
		}
	}
	return can.Frame{}
}

type kBusStub struct {
	rec      *recorder
	messages []kbus.Message
	err      error
}

func (k *kBusStub) Close() error {
	return nil
}

func (k *kBusStub) Send(m kbus.Message) error {
	k.rec.add("kbus %02x", m.Data[0])
	k.messages = append(k.messages, m)
	return k.err
}

type outputsStub struct {
	*pins.Logger
	rec *recorder
}

func (o *outputsStub) Set(p pins.Pin, on bool) error {
	o.rec.add("set %s", p)
	return o.Logger.Set(p, on)
}

func (o *outputsStub) Tone(hz int) error {
	o.rec.add("tone")
	return o.Logger.Tone(hz)
}

func (o *outputsStub) NoTone() error {
	o.rec.add("notone")
	return o.Logger.NoTone()
}

type tapStub struct {
	frames   []can.Frame
	messages []kbus.Message
}

func (tap *tapStub) ForwardCAN(f can.Frame) error {
	tap.frames = append(tap.frames, f)
	return nil
}

func (tap *tapStub) ForwardKBus(m kbus.Message) error {
	tap.messages = append(tap.messages, m)
	return nil
}

type bridgeStubs struct {
	rec     *recorder
	can     *canBusStub
	kbus    *kBusStub
	outputs *outputsStub
}

func createBridge() (*Bridge, *bridgeStubs) {
	rec := &recorder{}
	stubs := &bridgeStubs{
		rec:     rec,
		can:     &canBusStub{rec: rec},
		kbus:    &kBusStub{rec: rec},
		outputs: &outputsStub{Logger: pins.NewLogger(), rec: rec},
	}
	return NewBridge(HostConfig{}, stubs.can, stubs.kbus, stubs.outputs), stubs
}

func TestCycleOrder(t *testing.T) {
	b, stubs := createBridge()
	assert.NoError(t, b.Cycle())
	assert.Equal(t, []string{
		"set backlight",
		"set abs",
		"set ebrake",
		"notone",
		"can 316",
		"can 545",
		"can 329",
		"can 153",
		"can 613",
		"kbus 5b",
	}, stubs.rec.events)
}

func TestCycleRoundTrip(t *testing.T) {
	b, stubs := createBridge()
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(roundTripRecord))))

	telem := b.Telemetry()
	assert.Equal(t, 100, telem.Speed)
	assert.Equal(t, 3000, telem.RPM)
	assert.Equal(t, 90, telem.CoolantTemp)
	assert.Equal(t, "AssetoCorsa", telem.Game)

	assert.NoError(t, b.Cycle())

	assert.Equal(t, 672, stubs.outputs.Frequency())
	assert.False(t, stubs.outputs.Level(pins.Backlight))
	assert.True(t, stubs.outputs.Level(pins.ABS))
	assert.False(t, stubs.outputs.Level(pins.EBrake))

	assert.Equal(t, uint8(75), stubs.can.frame(dmecan.FrameRPM).Data[3])
	assert.Equal(t, uint8(155), stubs.can.frame(dmecan.FrameTemperature).Data[1])
	assert.Equal(t, uint8(0), stubs.can.frame(dmecan.FrameTractionControl).Data[1])
	assert.Equal(t, [8]uint8{0x00, 0x01, 0x18, 0x00, 0x00, 0x00, 0x00, 0x00},
		stubs.can.frame(dmecan.FrameEngineState).Data)

	require.Len(t, stubs.kbus.messages, 1)
	buf, err := stubs.kbus.messages[0].MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xD0, 0x08, 0xBF, 0x5B, 0x00, 0x00, 0x00, 0x00, 0x00, 0x3C}, buf)
}

func TestCycleTemperatureWrap(t *testing.T) {
	b, stubs := createBridge()
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(
		"100;3000;129;0;False;False;False;False;0;0;0;0;False;False;False;False;AC\n"))))

	assert.NoError(t, b.Cycle())
	assert.Equal(t, uint8(1), stubs.can.frame(dmecan.FrameTemperature).Data[1])
	assert.Equal(t, uint8(0), stubs.can.frame(dmecan.FrameEngineState).Data[3])
}

func TestCycleOversizedSpeed(t *testing.T) {
	b, stubs := createBridge()
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(
		"10000000000000000;3000;90;0;False;False;False;False;0;0;0;0;False;False;False;False;AC\n"))))
	assert.Equal(t, 0, b.Telemetry().Speed)

	assert.NoError(t, b.Cycle())
	assert.Equal(t, 0, stubs.outputs.Frequency())
}

func TestCycleIdempotent(t *testing.T) {
	b, stubs := createBridge()
	b.Clock = func() time.Time {
		return time.Date(2024, 5, 1, 13, 37, 0, 0, time.UTC)
	}
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(
		"180;8000;135;3;True;True;True;True;1;1;1;1;True;True;False;True;iRacing\n"))))

	assert.NoError(t, b.Cycle())
	assert.NoError(t, b.Cycle())

	require.Len(t, stubs.can.frames, 10)
	assert.Equal(t, stubs.can.frames[:5], stubs.can.frames[5:])
	require.Len(t, stubs.kbus.messages, 2)
	assert.Equal(t, stubs.kbus.messages[0], stubs.kbus.messages[1])
}

func TestCycleOutputs(t *testing.T) {
	b, stubs := createBridge()
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(
		"250;9000;140;3;True;True;True;True;0;1;0;2;False;False;True;False;AC\n"))))
	assert.NoError(t, b.Cycle())

	assert.True(t, stubs.outputs.Level(pins.Backlight))
	assert.False(t, stubs.outputs.Level(pins.ABS))
	assert.True(t, stubs.outputs.Level(pins.EBrake))
	assert.Equal(t, 1680, stubs.outputs.Frequency())

	assert.Equal(t, uint8(175), stubs.can.frame(dmecan.FrameRPM).Data[3])
	assert.Equal(t, uint8(246), stubs.can.frame(dmecan.FrameTemperature).Data[1])
	assert.Equal(t, uint8(0x01), stubs.can.frame(dmecan.FrameTractionControl).Data[1])
	engine := stubs.can.frame(dmecan.FrameEngineState).Data
	assert.Equal(t, uint8(0x08), engine[0])
	assert.Equal(t, uint8(0x0A), engine[3])

	b1, b2 := stubs.kbus.messages[0].Data[1], stubs.kbus.messages[0].Data[4]
	assert.Equal(t, uint8(0x41), b1)
	assert.Equal(t, uint8(0x01), b2)

	// speed back to zero silences the speedometer
	require.NoError(t, b.Ingest(simhub.NewFieldReader(strings.NewReader(
		"0;900;80;3;False;False;False;False;0;1;0;0;False;False;False;False;AC\n"))))
	assert.NoError(t, b.Cycle())
	assert.Equal(t, 0, stubs.outputs.Frequency())
	assert.False(t, stubs.outputs.Level(pins.Backlight))
}

func TestCycleClock(t *testing.T) {
	b, stubs := createBridge()
	assert.NoError(t, b.Cycle())
	assert.Equal(t, [8]uint8{0x00, 0x00, 0x10}, stubs.can.frame(dmecan.FrameClock).Data)

	b, stubs = createBridge()
	b.Clock = func() time.Time {
		return time.Date(2024, 5, 1, 21, 5, 0, 0, time.UTC)
	}
	assert.NoError(t, b.Cycle())
	assert.Equal(t, [8]uint8{0x00, 0x00, 0x10, 21, 5}, stubs.can.frame(dmecan.FrameClock).Data)
}

func TestCycleContinuesAfterError(t *testing.T) {
	b, stubs := createBridge()
	stubs.can.err = errors.New("bus off")

	err := b.Cycle()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rpm")
	assert.Len(t, stubs.can.frames, 5)
	assert.Len(t, stubs.kbus.messages, 1, "kbus is still sent")

	stubs.can.err = nil
	stubs.kbus.err = errors.New("unplugged")
	err = b.Cycle()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lamp status")
}

func TestCycleTap(t *testing.T) {
	b, _ := createBridge()
	tap := &tapStub{}
	b.Tap = tap

	assert.NoError(t, b.Cycle())
	assert.Len(t, tap.frames, 5)
	assert.Len(t, tap.messages, 1)
	assert.Equal(t, dmecan.FrameRPM, tap.frames[0].ID)
}

func TestCheckChannels(t *testing.T) {
	b, _ := createBridge()
	assert.False(t, b.CheckChannels())

	b.recordChan <- simhub.Telemetry{Speed: 10}
	assert.True(t, b.CheckChannels())
	assert.Equal(t, 10, b.Telemetry().Speed)

	// the same record again
	b.recordChan <- simhub.Telemetry{Speed: 10}
	assert.False(t, b.CheckChannels())
	assert.Equal(t, 10, b.Telemetry().Speed)
}

func TestRun(t *testing.T) {
	b, stubs := createBridge()
	b.recordChan <- simhub.Telemetry{Speed: 125, RPM: 7000}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := b.Run(ctx, 10*time.Millisecond)
	assert.Equal(t, context.DeadlineExceeded, err)

	assert.Equal(t, 125, b.Telemetry().Speed)
	assert.NotEmpty(t, stubs.can.frames)
	assert.Equal(t, uint8(175), stubs.can.frame(dmecan.FrameRPM).Data[3])
	assert.Equal(t, 840, stubs.outputs.Frequency())
}

func TestStartTestMode(t *testing.T) {
	defer noDelays()()
	b, _ := createBridge()
	b.SetTestMode(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Start(ctx)

	deadline := time.After(3 * time.Second)
	for !b.CheckChannels() {
		select {
		case <-deadline:
			t.Fatal("no record from test stream")
		case <-time.After(5 * time.Millisecond):
		}
	}
	assert.Equal(t, "testmode", b.Telemetry().Game)
	assert.Equal(t, 1, b.Telemetry().ABSMode)
}
