package clusterbridge

import (
	"github.com/brutella/can"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/jd3nn1s/clusterbridge/pins"
)

type CANBus interface {
	Close() error
	Publish(can.Frame) error
}

type KBus interface {
	Close() error
	Send(kbus.Message) error
}

type Outputs interface {
	Close() error
	Set(pins.Pin, bool) error
	Tone(hz int) error
	NoTone() error
}

// Forwarder receives a copy of every frame put on either bus.
type Forwarder interface {
	ForwardCAN(can.Frame) error
	ForwardKBus(kbus.Message) error
}
