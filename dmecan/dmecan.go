package dmecan

import (
	"github.com/brutella/can"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type CANBus interface {
	Disconnect() error
	Publish(can.Frame) error
}

// to allow testing
var newBus = func(ifaceName string) (CANBus, error) {
	bus, err := can.NewBusForInterfaceWithName(ifaceName)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

type Connection struct {
	bus CANBus
}

func Connect(ifaceName string) (*Connection, error) {
	bus, err := newBus(ifaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open can interface %s", ifaceName)
	}
	log.WithField("iface", ifaceName).Info("CAN bus opened")
	return &Connection{
		bus: bus,
	}, nil
}

func (c *Connection) Close() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	return c.bus.Disconnect()
}

func (c *Connection) Publish(frame can.Frame) error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	log.WithField("canID", frame.ID).
		WithField("data", frame.Data).
		Debug("sending canbus frame")
	return c.bus.Publish(frame)
}
