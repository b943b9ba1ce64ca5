// Package release runs the background maintenance loop: crediting seller
// payouts whose hold period elapsed and sweeping abandoned checkout drafts.
package release

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout = 3 * time.Second
	defaultInterval       = time.Minute
	defaultDraftWindow    = 30 * time.Minute
	defaultLimit          = 100
)

// Servicer is the service layer surface the worker drives.
type Servicer interface {
	ReleaseDuePayouts(ctx context.Context, limit int) (int, error)
	SweepExpiredDrafts(ctx context.Context, window time.Duration, limit int) (int, error)
}

// Worker wakes up on a fixed interval and runs both maintenance passes.
type Worker struct {
	svs         Servicer
	l           *logrus.Entry
	interval    time.Duration
	draftWindow time.Duration
	limit       int
}

func New(svs Servicer, l *logrus.Logger) *Worker {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "release",
		"module":    "worker",
	})

	return &Worker{
		svs:         svs,
		l:           loggerEntry,
		interval:    defaultInterval,
		draftWindow: defaultDraftWindow,
		limit:       defaultLimit,
	}
}

// SetInterval sets the pause between maintenance passes.
func (w *Worker) SetInterval(interval time.Duration) *Worker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// SetDraftWindow sets how long an unpaid checkout draft may live before the
// sweeper removes it.
func (w *Worker) SetDraftWindow(window time.Duration) *Worker {
	if window > 0 {
		w.draftWindow = window
	}
	return w
}

// SetLimit caps the rows touched per pass.
func (w *Worker) SetLimit(limit int) *Worker {
	if limit > 0 {
		w.limit = limit
	}
	return w
}

// Run loops until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.l.WithFields(logrus.Fields{
		"interval":    w.interval,
		"draftWindow": w.draftWindow,
		"limit":       w.limit,
	}).Info("Starting")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.l.Info("Got stop signal, exiting...")
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	releaseCtx, cancelRelease := context.WithTimeout(ctx, defaultServiceTimeout)
	released, releaseErr := w.svs.ReleaseDuePayouts(releaseCtx, w.limit)
	cancelRelease()

	if releaseErr != nil {
		w.l.WithError(releaseErr).Error("release payouts")
	} else if released > 0 {
		w.l.WithField("released", released).Info("Payouts released")
	}

	sweepCtx, cancelSweep := context.WithTimeout(ctx, defaultServiceTimeout)
	swept, sweepErr := w.svs.SweepExpiredDrafts(sweepCtx, w.draftWindow, w.limit)
	cancelSweep()

	if sweepErr != nil {
		w.l.WithError(sweepErr).Error("sweep drafts")
	} else if swept > 0 {
		w.l.WithField("swept", swept).Info("Expired drafts removed")
	}
}
