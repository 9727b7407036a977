package frr

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Startup precondition defaults: how often to probe and how long to keep
// trying before giving up on the control plane entirely.
const (
	DefaultProbeInterval = 100 * time.Millisecond
	DefaultReadyTimeout  = 20 * time.Second
)

// ErrNotReady is returned when the control plane never became reachable
// within the ready timeout. Callers treat it as a startup failure distinct
// from runtime errors.
var ErrNotReady = errors.New("control plane did not become ready")

// WaitReady polls r.Probe until it succeeds, ctx is cancelled, or timeout
// elapses. Non-positive interval and timeout fall back to the defaults.
func WaitReady(ctx context.Context, r Runner, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	log := logrus.WithField("module", "vtysh")
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := r.Probe()
		if err == nil {
			log.Info("control plane ready")
			return nil
		}
		if time.Now().After(deadline) {
			log.WithError(err).Error("giving up waiting for control plane")
			return ErrNotReady
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
