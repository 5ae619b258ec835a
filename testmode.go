package clusterbridge

import (
	"context"
	"io"
	"time"

	"github.com/jd3nn1s/clusterbridge/simhub"
)

var testRecordInterval = 20 * time.Millisecond

// newTestStream produces host records without a simulation running. Speed
// sweeps 0-260 km/h and back, dragging rpm and temperature past their
// clamps, with the lights and indicators toggling along the way.
func newTestStream(ctx context.Context) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		defer pw.Close()
		telem := simhub.Telemetry{
			ABSMode: 1,
			Game:    "testmode",
		}
		down := false
		n := 0
		ticker := time.NewTicker(testRecordInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
			if _, err := io.WriteString(pw, simhub.FormatRecord(&telem)); err != nil {
				return
			}

			if down {
				telem.Speed--
			} else {
				telem.Speed++
			}
			if telem.Speed == 260 {
				down = true
			} else if telem.Speed == 0 {
				down = false
			}

			n++
			telem.RPM = 800 + telem.Speed*28
			telem.CoolantTemp = 50 + telem.Speed/2
			telem.Lights = telem.Speed > 100
			telem.HighBeam = telem.Speed > 200
			telem.BlinkerLeft = down && n%50 < 25
			telem.BlinkerRight = !down && n%50 < 25
			telem.TCSActive = 0
			if down {
				telem.TCSActive = 1
			}
		}
	}()

	return pr
}
