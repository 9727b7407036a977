// Package loop implements the single-threaded event multiplexer driving the
// reconcilers. Each registered change-source table gets one shared
// subscription handle; every loop iteration waits, with a bounded timeout,
// for readiness across all handles, then pops at most one pending change
// per handle and dispatches it to the handle's callbacks in registration
// order. Backlogs drain across iterations, one change per handle per wake.
package loop

import (
	"context"
	"time"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/changes"
)

// DefaultWakeInterval bounds how long one wait may sleep when no change
// arrives. It also bounds shutdown latency: cancellation is observed once
// per iteration.
const DefaultWakeInterval = time.Second

// Callback receives one popped change. The alias keeps registration
// signatures interchangeable with the reconciler's Registrar interface.
type Callback = func(changes.Change)

type handle struct {
	table     changes.Table
	source    changes.Source
	callbacks []Callback
}

// Loop is the event multiplexer. Not safe for concurrent use: Register
// before Run, and Run owns the calling goroutine until cancellation.
type Loop struct {
	subscriber   changes.Subscriber
	handles      []*handle
	byTable      map[changes.Table]*handle
	wakeInterval time.Duration
	log          *logrus.Entry
}

// New returns a loop consuming sources from subscriber. A non-positive
// wakeInterval falls back to DefaultWakeInterval.
func New(subscriber changes.Subscriber, wakeInterval time.Duration) *Loop {
	if wakeInterval <= 0 {
		wakeInterval = DefaultWakeInterval
	}
	return &Loop{
		subscriber:   subscriber,
		byTable:      make(map[changes.Table]*handle),
		wakeInterval: wakeInterval,
		log:          logrus.WithField("module", "loop"),
	}
}

// Register appends cb to the callback list for t, creating the underlying
// subscription handle on first registration. Handles and callbacks keep
// registration order.
func (l *Loop) Register(t changes.Table, cb Callback) error {
	h, ok := l.byTable[t]
	if !ok {
		source, err := l.subscriber.Subscribe(t)
		if err != nil {
			return errors.Wrapf(err, "subscribe to %s", t)
		}
		h = &handle{table: t, source: source}
		l.byTable[t] = h
		l.handles = append(l.handles, h)
	}
	h.callbacks = append(h.callbacks, cb)
	return nil
}

// Run drives dispatch until ctx is cancelled. Every iteration waits for
// readiness across all handles or the wake interval, whichever comes
// first, then polls every handle for at most one pending change. It
// returns nil on cancellation; in-flight dispatch finishes first.
func (l *Loop) Run(ctx context.Context) error {
	l.log.WithField("tables", len(l.handles)).Info("event loop started")
	for {
		if ctx.Err() != nil {
			l.log.Info("event loop stopping")
			return nil
		}
		if !l.wait(ctx) {
			// Timed out with nothing pending, or cancelled; both are
			// handled at the top of the next iteration.
			continue
		}
		for _, h := range l.handles {
			c, ok := h.source.Pop()
			if !ok {
				continue
			}
			for _, cb := range h.callbacks {
				cb(c)
			}
		}
	}
}

// wait blocks until any handle signals readiness, the wake interval
// elapses, or ctx is cancelled. It reports whether some handle is ready.
func (l *Loop) wait(ctx context.Context) bool {
	ws := memdb.NewWatchSet()
	for _, h := range l.handles {
		ws.Add(h.source.Readiness())
	}
	wctx, cancel := context.WithTimeout(ctx, l.wakeInterval)
	defer cancel()
	return ws.WatchCtx(wctx) == nil
}
