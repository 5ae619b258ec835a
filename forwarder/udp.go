package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/brutella/can"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Header struct {
	Type uint8
}

const (
	TypeCAN  = 1
	TypeKBus = 2
)

// CANPacket follows the header of a TypeCAN datagram. A TypeKBus datagram
// carries the raw telegram instead.
type CANPacket struct {
	ID     uint32
	Length uint8
	Data   [8]uint8
}

const (
	queueSize   = 64
	writeBufLen = 4096
)

type UDPConfig struct {
	Server string `toml:"server" yaml:"server"`
	Port   int    `toml:"port" yaml:"port"`
}

// UDPForwarder mirrors transmitted frames to a monitoring host. Forwarding
// never blocks the caller; datagrams are dropped when the queue is full.
type UDPForwarder struct {
	Config *UDPConfig

	conn    net.Conn
	fwdChan chan []byte
}

func NewUDPForwarder(config UDPConfig) (*UDPForwarder, error) {
	udp := &UDPForwarder{
		Config:  &config,
		fwdChan: make(chan []byte, queueSize),
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

func (udp *UDPForwarder) ForwardCAN(frame can.Frame) error {
	buf := bytes.NewBuffer([]byte{})
	if err := binary.Write(buf, binary.LittleEndian, &Header{Type: TypeCAN}); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	pkt := CANPacket{
		ID:     frame.ID,
		Length: frame.Length,
		Data:   frame.Data,
	}
	if err := binary.Write(buf, binary.LittleEndian, &pkt); err != nil {
		return errors.Wrap(err, "unable to write can udp packet")
	}
	udp.enqueue(buf.Bytes())
	return nil
}

func (udp *UDPForwarder) ForwardKBus(m kbus.Message) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	udp.enqueue(append([]byte{TypeKBus}, data...))
	return nil
}

func (udp *UDPForwarder) enqueue(pkt []byte) {
	select {
	case udp.fwdChan <- pkt:
	default:
		// if channel is full, skip
	}
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	for {
		select {
		case pkt := <-udp.fwdChan:
			if _, err := udp.conn.Write(pkt); err != nil {
				log.Error("unable to forward frame to server ", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (udp *UDPForwarder) connect() error {
	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufLen); err != nil {
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufLen)
	}

	udp.conn = conn
	return nil
}
