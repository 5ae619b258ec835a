package kbus

import (
	"github.com/pkg/errors"
)

const (
	AddrLCM    byte = 0xD0
	AddrGlobal byte = 0xBF

	CmdLampStatus byte = 0x5B

	// the length byte counts everything after itself, checksum included
	maxLength = 0xFF
	headerLen = 2
)

// Message is one K-bus telegram:
// [source][length][destination][data...][checksum]
// Data starts with the command byte.
type Message struct {
	Source byte
	Dest   byte
	Data   []byte
}

// Length is the value carried in the length byte.
func (m Message) Length() int {
	return len(m.Data) + 2
}

func (m Message) MarshalBinary() ([]byte, error) {
	length := m.Length()
	if length > maxLength {
		return nil, errors.Errorf("kbus message too long: %d", length)
	}
	buf := make([]byte, 0, headerLen+length)
	buf = append(buf, m.Source, byte(length), m.Dest)
	buf = append(buf, m.Data...)
	buf = append(buf, 0x00)
	return seal(buf)
}

// seal writes the checksum at the position implied by the declared length
// and trims the buffer to the bytes that go on the wire.
func seal(buf []byte) ([]byte, error) {
	if len(buf) < headerLen {
		return nil, errors.New("kbus message has no header")
	}
	end := int(buf[1]) + headerLen
	if end > len(buf) {
		return nil, errors.Errorf("kbus declared length %d exceeds buffer of %d bytes", buf[1], len(buf))
	}
	buf[end-1] = Checksum(buf[:end-1])
	return buf[:end], nil
}
