package kbus

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const BaudRate = 9600

// to allow testing
var openPort = func(portName string) (io.WriteCloser, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

type Connection struct {
	port io.WriteCloser
}

func Connect(portName string) (*Connection, error) {
	port, err := openPort(portName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open kbus port %s", portName)
	}
	log.WithField("port", portName).Info("kbus opened")
	return &Connection{
		port: port,
	}, nil
}

func (c *Connection) Close() error {
	if c.port == nil {
		return errors.New("kbus not connected")
	}
	return c.port.Close()
}

func (c *Connection) Send(m Message) error {
	if c.port == nil {
		return errors.New("kbus not connected")
	}
	buf, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	log.WithField("data", buf).Debug("sending kbus message")
	n, err := c.port.Write(buf)
	if err != nil {
		return errors.Wrap(err, "unable to write kbus message")
	}
	if n != len(buf) {
		return errors.Errorf("short kbus write: %d of %d bytes", n, len(buf))
	}
	return nil
}
