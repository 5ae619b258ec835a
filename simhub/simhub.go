package simhub

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	FieldDelimiter  byte = ';'
	RecordDelimiter byte = '\n'

	// FieldCount is the number of fields in one record.
	FieldCount = 17
)

// FieldReader is a sequential source of delimiter terminated fields. The
// returned text does not include the delimiter.
type FieldReader interface {
	ReadField(delim byte) (string, error)
}

type bufferedFieldReader struct {
	r *bufio.Reader
}

func NewFieldReader(r io.Reader) FieldReader {
	return &bufferedFieldReader{
		r: bufio.NewReader(r),
	}
}

func (b *bufferedFieldReader) ReadField(delim byte) (string, error) {
	s, err := b.r.ReadString(delim)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

type field struct {
	name   string
	set    func(t *Telemetry, s string)
	format func(t *Telemetry) string
}

func intField(name string, p func(t *Telemetry) *int) field {
	return field{
		name: name,
		set: func(t *Telemetry, s string) {
			*p(t) = intOrZero(name, s)
		},
		format: func(t *Telemetry) string {
			return strconv.Itoa(*p(t))
		},
	}
}

func boolField(name string, p func(t *Telemetry) *bool) field {
	return field{
		name: name,
		set: func(t *Telemetry, s string) {
			*p(t) = parseBool(s)
		},
		format: func(t *Telemetry) string {
			return formatBool(*p(t))
		},
	}
}

// record is the field order the host is configured to send.
var record = []field{
	intField("speed", func(t *Telemetry) *int { return &t.Speed }),
	intField("rpm", func(t *Telemetry) *int { return &t.RPM }),
	intField("temperature", func(t *Telemetry) *int { return &t.CoolantTemp }),
	intField("oilPressure", func(t *Telemetry) *int { return &t.OilPressure }),
	boolField("cruiseControl", func(t *Telemetry) *bool { return &t.CruiseControl }),
	boolField("ebrake", func(t *Telemetry) *bool { return &t.EBrake }),
	boolField("oilWarning", func(t *Telemetry) *bool { return &t.OilWarning }),
	boolField("lights", func(t *Telemetry) *bool { return &t.Lights }),
	intField("absActive", func(t *Telemetry) *int { return &t.ABSActive }),
	intField("absMode", func(t *Telemetry) *int { return &t.ABSMode }),
	intField("tcsActive", func(t *Telemetry) *int { return &t.TCSActive }),
	intField("tcsMode", func(t *Telemetry) *int { return &t.TCSMode }),
	boolField("highBeam", func(t *Telemetry) *bool { return &t.HighBeam }),
	boolField("blinkerLeft", func(t *Telemetry) *bool { return &t.BlinkerLeft }),
	boolField("blinkerRight", func(t *Telemetry) *bool { return &t.BlinkerRight }),
	boolField("backlight", func(t *Telemetry) *bool { return &t.Backlight }),
	{
		name: "game",
		set: func(t *Telemetry, s string) {
			t.Game = strings.TrimSuffix(s, "\r")
		},
		format: func(t *Telemetry) string {
			return t.Game
		},
	},
}

// ReadRecord consumes exactly one record from src into t, field by field in
// order. Numeric fields that do not parse are set to zero. If src fails part
// way through, the fields already read keep their new values and the rest
// are left untouched.
func ReadRecord(src FieldReader, t *Telemetry) error {
	for i, f := range record {
		delim := FieldDelimiter
		if i == len(record)-1 {
			delim = RecordDelimiter
		}
		s, err := src.ReadField(delim)
		if err != nil {
			return errors.Wrapf(err, "unable to read telemetry field %d (%s)", i, f.name)
		}
		f.set(t, s)
	}
	return nil
}

// FormatRecord renders t the way the host sends it, including the record
// delimiter.
func FormatRecord(t *Telemetry) string {
	var sb strings.Builder
	for i, f := range record {
		sb.WriteString(f.format(t))
		if i == len(record)-1 {
			sb.WriteByte(RecordDelimiter)
		} else {
			sb.WriteByte(FieldDelimiter)
		}
	}
	return sb.String()
}
