package simhub

import (
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// parseInt accepts [-]digits with an optional decimal fraction, which is
// truncated. Values outside the 32-bit range are rejected.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && !allDigits(frac) {
		return 0, false
	}
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// intOrZero coerces unparsable text to zero, which is what the host expects
// the firmware to do with an empty or garbled field.
func intOrZero(name, s string) int {
	v, ok := parseInt(s)
	if !ok {
		log.WithField("field", name).
			WithField("text", s).
			Debug("non-numeric telemetry field, using 0")
	}
	return v
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "True")
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
