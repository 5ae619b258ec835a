package clusterbridge

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

var retrySleep = time.Second

type Retryable interface {
	Open() error
	Close() error
	Start(ctx context.Context) error
	Name() string
}

// retry keeps r started until ctx is done. Start returning nil restarts it
// on the same connection; an error closes and reopens it first.
func retry(ctx context.Context, r Retryable) error {
	opened := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !opened {
			if err := r.Open(); err != nil {
				log.WithField("err", err).Warnf("%s: unable to open", r.Name())
				if !sleep(ctx, retrySleep) {
					return ctx.Err()
				}
				continue
			}
			opened = true
		}

		err := r.Start(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithField("err", err).Errorf("%s: reconnecting due to error", r.Name())
		if err := r.Close(); err != nil {
			log.WithField("err", err).Warnf("%s: unable to close", r.Name())
		}
		opened = false
		if !sleep(ctx, retrySleep) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
