// Package reconciler implements the generic dependency-gated reconciler.
// A Manager binds one change-source table to an Applier: SET records are
// applied only once every (slot, path) dependency resolves in the shared
// directory, SETs that cannot proceed are parked on a per-manager retry
// queue, and directory writes that satisfy a watched path drain the queue.
// DELETE records are applied unconditionally and never touch the queue.
package reconciler

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/changes"
	"github.com/routecfg/routecfgd/daemon/directory"
	"github.com/routecfg/routecfgd/daemon/events"
)

// Applier supplies the domain behavior of a concrete manager.
type Applier interface {
	// ApplySet attempts to realize the configuration in data for key.
	// It returns true when fully applied and false when the change must
	// be retried later (a readiness condition not expressible as a
	// directory dependency, or a non-fatal backend failure). Side
	// effects performed before returning false must be idempotent.
	ApplySet(key string, data map[string]string) bool

	// ApplyDelete realizes removal for key. Removal of a key the
	// manager never applied must be a reported no-op, not an error.
	ApplyDelete(key string)
}

// Registrar registers a dispatch callback for a change-source table. The
// event loop implements this.
type Registrar interface {
	Register(t changes.Table, cb func(changes.Change)) error
}

// Options carries the construction parameters of a Manager.
type Options struct {
	// Name identifies the manager in logs, events and metrics.
	Name string
	// Table is the change-source the manager consumes.
	Table changes.Table
	// Deps gates ApplySet. Nil means no gating.
	Deps directory.Set
	// Applier supplies the domain behavior. Required.
	Applier Applier
}

// Manager is the generic reconciler lifecycle around an Applier.
type Manager struct {
	name    string
	dir     *directory.Directory
	deps    directory.Set
	applier Applier
	journal *events.Publisher
	queue   retryQueue
	log     *logrus.Entry
}

// New builds a manager, registers its dispatch callback with the registrar
// and its retry trigger with the directory. A nil Applier is a construction
// error, not a call-time one.
func New(reg Registrar, dir *directory.Directory, journal *events.Publisher, opts Options) (*Manager, error) {
	if opts.Applier == nil {
		return nil, errors.Errorf("manager %s: no applier supplied", opts.Name)
	}
	m := &Manager{
		name:    opts.Name,
		dir:     dir,
		deps:    opts.Deps,
		applier: opts.Applier,
		journal: journal,
		log:     logrus.WithField("module", "manager."+opts.Name),
	}
	if err := reg.Register(opts.Table, m.Handle); err != nil {
		return nil, errors.Wrapf(err, "manager %s: register for %s", opts.Name, opts.Table)
	}
	dir.Subscribe(opts.Deps, m.onDependencyChange)
	return m, nil
}

// Handle dispatches one change record.
func (m *Manager) Handle(c changes.Change) {
	switch c.Op {
	case changes.OpSet:
		if !m.dir.Satisfied(m.deps) {
			m.enqueue(c.Key, c.Fields)
			return
		}
		if !m.applier.ApplySet(c.Key, c.Fields) {
			m.enqueue(c.Key, c.Fields)
			return
		}
		m.publish(c.Key, events.ActionApplied)
	case changes.OpDelete:
		// The queue is deliberately left alone: a pending SET for the
		// same key survives the delete and may be retried later.
		m.applier.ApplyDelete(c.Key)
		m.publish(c.Key, events.ActionRemoved)
	default:
		m.log.WithFields(logrus.Fields{"key": c.Key, "op": string(c.Op)}).Error("unknown operation in change record")
		m.publish(c.Key, events.ActionInvalid)
	}
}

// QueueLen returns the retry-queue depth.
func (m *Manager) QueueLen() int {
	return m.queue.len()
}

func (m *Manager) enqueue(key string, data map[string]string) {
	m.queue.push(key, data)
	m.log.WithField("key", key).Debug("change deferred until dependencies resolve")
	m.publish(key, events.ActionDeferred)
}

// onDependencyChange is invoked by the directory whenever a watched path
// becomes resolvable. One pass over the queue; dependency satisfaction is
// not re-checked per item, since the trigger already vouches for it. An
// item can still decline for a readiness reason internal to ApplySet.
func (m *Manager) onDependencyChange() {
	if m.queue.len() == 0 {
		return
	}
	m.queue.drain(func(key string, data map[string]string) bool {
		if !m.applier.ApplySet(key, data) {
			return false
		}
		m.publish(key, events.ActionRetried)
		return true
	})
}

func (m *Manager) publish(key string, action events.Action) {
	if m.journal == nil {
		return
	}
	m.journal.Publish(m.name, key, action, m.queue.len())
}
