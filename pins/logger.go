package pins

import (
	log "github.com/sirupsen/logrus"
)

// Logger is an output set with no hardware behind it. It keeps the current
// levels and logs every change, which is enough to run the bridge on a
// desktop with only a CAN adapter attached.
type Logger struct {
	levels map[Pin]bool
	tone   int
}

func NewLogger() *Logger {
	l := &Logger{
		levels: make(map[Pin]bool, len(All)),
	}
	for _, p := range All {
		l.levels[p] = false
	}
	return l
}

func (l *Logger) Set(p Pin, on bool) error {
	if l.levels[p] != on {
		log.WithField("pin", p).WithField("on", on).Debug("output changed")
	}
	l.levels[p] = on
	return nil
}

func (l *Logger) Level(p Pin) bool {
	return l.levels[p]
}

func (l *Logger) Tone(hz int) error {
	if l.tone != hz {
		log.WithField("hz", hz).Debug("speedometer tone changed")
	}
	l.tone = hz
	return nil
}

func (l *Logger) NoTone() error {
	return l.Tone(0)
}

// Frequency is the current tone, 0 when silent.
func (l *Logger) Frequency() int {
	return l.tone
}

func (l *Logger) Close() error {
	for _, p := range All {
		l.levels[p] = false
	}
	l.tone = 0
	return nil
}
