// Package daemon wires the reconciliation core together: the change broker
// and its unix-socket feed, the shared directory, the event loop, the
// concrete BGP managers, the reconciliation journal, and the debug/metrics
// HTTP endpoint.
package daemon

import (
	"context"
	"net/http"
	"os"
	"time"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/bgp"
	"github.com/routecfg/routecfgd/daemon/changes"
	"github.com/routecfg/routecfgd/daemon/config"
	"github.com/routecfg/routecfgd/daemon/directory"
	"github.com/routecfg/routecfgd/daemon/events"
	"github.com/routecfg/routecfgd/daemon/frr"
	"github.com/routecfg/routecfgd/daemon/loop"
	"github.com/routecfg/routecfgd/pkg/pidfile"
)

// Daemon is the assembled reconciliation daemon.
type Daemon struct {
	conf      *config.Config
	broker    *changes.Broker
	dir       *directory.Directory
	loop      *loop.Loop
	runner    frr.Runner
	journal   *events.Publisher
	ring      *events.Ring
	neighbors *bgp.NeighborManager
	startedAt time.Time
	log       *logrus.Entry
}

// New assembles a daemon from conf. Managers register with the loop and
// directory here; nothing external is touched until Run. A nil runner
// selects the vtysh binary from the config.
func New(conf *config.Config, runner frr.Runner) (*Daemon, error) {
	if runner == nil {
		runner = frr.NewVtysh(conf.VtyshPath)
	}
	d := &Daemon{
		conf:      conf,
		broker:    changes.NewBroker(),
		dir:       directory.New(),
		runner:    runner,
		journal:   events.NewPublisher(),
		ring:      events.NewRing(events.DefaultRingLimit),
		startedAt: time.Now(),
		log:       logrus.WithField("module", "daemon"),
	}
	d.loop = loop.New(d.broker, conf.WakeInterval)
	d.journal.AddSink(d.ring)
	d.journal.AddSink(events.NewLogSink())
	d.journal.AddSink(metricsSink{})

	// Dispatch counters register first so they observe every change
	// before the owning manager runs.
	for _, t := range []changes.Table{bgp.DeviceTable, bgp.AddressTable, bgp.NeighborTable} {
		if err := d.loop.Register(t, countDispatch(t)); err != nil {
			return nil, err
		}
	}
	if _, err := bgp.NewDeviceManager(d.loop, d.dir, d.journal); err != nil {
		return nil, err
	}
	if _, err := bgp.NewAddressManager(d.loop, d.dir, d.journal); err != nil {
		return nil, err
	}
	neighbors, err := bgp.NewNeighborManager(d.loop, d.dir, d.journal, d.runner)
	if err != nil {
		return nil, err
	}
	d.neighbors = neighbors
	return d, nil
}

func countDispatch(t changes.Table) loop.Callback {
	label := t.String()
	return func(changes.Change) {
		changesDispatched.WithValues(label).Inc()
	}
}

// Run starts the transport edges, waits for the control plane, and drives
// the event loop until ctx is cancelled. A control plane that never comes
// up surfaces as frr.ErrNotReady so the caller can exit with the
// startup-failure status.
func (d *Daemon) Run(ctx context.Context) error {
	if d.conf.Pidfile != "" {
		if err := pidfile.Write(d.conf.Pidfile, os.Getpid()); err != nil {
			return errors.Wrap(err, "write pidfile")
		}
		defer func() {
			if err := pidfile.Remove(d.conf.Pidfile); err != nil {
				d.log.WithError(err).Warn("could not remove pidfile")
			}
		}()
	}

	if d.conf.DebugAddr != "" {
		srv := &http.Server{Addr: d.conf.DebugAddr, Handler: d.debugRouter()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.log.WithError(err).Error("debug endpoint failed")
			}
		}()
		defer srv.Close()
		d.log.WithField("addr", d.conf.DebugAddr).Info("debug endpoint listening")
	}

	feed, err := changes.NewFeed(d.conf.FeedSocket, d.broker)
	if err != nil {
		return err
	}
	defer feed.Close()

	if err := frr.WaitReady(ctx, d.runner, d.conf.ProbeInterval, d.conf.ReadyTimeout); err != nil {
		return err
	}

	if _, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady); err != nil {
		d.log.WithError(err).Warn("sd_notify failed")
	}
	defer sddaemon.SdNotify(false, sddaemon.SdNotifyStopping)

	defer d.journal.Close()
	return d.loop.Run(ctx)
}
