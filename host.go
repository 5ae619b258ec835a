package clusterbridge

import (
	"context"
	"io"

	"github.com/jd3nn1s/clusterbridge/simhub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const autoPort = "auto"

// to allow testing
var listPorts = enumerator.GetDetailedPortsList

var hostConnect = func(portName string, baudRate int) (io.ReadCloser, error) {
	if portName == autoPort {
		name, err := autoSelectPort()
		if err != nil {
			return nil, err
		}
		portName = name
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open host port %s", portName)
	}
	log.WithField("port", portName).
		WithField("baud", baudRate).
		Info("host link opened")
	return port, nil
}

// autoSelectPort picks the first USB serial port, which is what the
// simulation host shows up as.
func autoSelectPort() (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", errors.Wrap(err, "unable to enumerate serial ports")
	}
	for _, p := range ports {
		if p.IsUSB {
			return p.Name, nil
		}
	}
	return "", errors.New("no usb serial ports found")
}

// hostLink is the single writer of its working record. Only records that
// were read completely are handed to the bridge, as copies.
type hostLink struct {
	portName string
	baudRate int
	connect  func(portName string, baudRate int) (io.ReadCloser, error)

	port      io.ReadCloser
	sendChan  chan simhub.Telemetry
	telemetry simhub.Telemetry
}

func (h *hostLink) Name() string {
	return "host"
}

func (h *hostLink) Open() error {
	port, err := h.connect(h.portName, h.baudRate)
	if err != nil {
		return err
	}
	h.port = port
	return nil
}

func (h *hostLink) Close() error {
	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	return err
}

func (h *hostLink) Start(ctx context.Context) error {
	port := h.port
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// unblocks the pending read
			_ = port.Close()
		case <-done:
		}
	}()

	src := simhub.NewFieldReader(port)
	for {
		if err := simhub.ReadRecord(src, &h.telemetry); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		publishRecord(h.sendChan, h.telemetry)
	}
}

// publishRecord replaces any record the bridge has not picked up yet.
func publishRecord(ch chan simhub.Telemetry, t simhub.Telemetry) {
	for {
		select {
		case ch <- t:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func runHost(ctx context.Context, link *hostLink) {
	err := retry(ctx, link)
	if err != nil && err != context.Canceled {
		log.Errorf("host link done: %v", err)
	}
}
