// Package directory implements the process-wide annotated state store shared
// by all reconcilers. The store is partitioned into named slots, each holding
// a tree of string-keyed values. Reconcilers look up configuration they
// depend on by (slot, path) and register for notification when a path they
// are waiting on becomes available.
//
// The directory is single-threaded by contract: every operation, including
// the synchronous notification fan-out performed by Put, runs on the event
// loop goroutine. It never blocks and never fails; absence is always
// representable as a value.
package directory

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
)

// PathSeparator delimits the key segments of a path inside a slot.
const PathSeparator = "/"

// Dependency names a single (slot, path) presence check. A dependency is
// satisfied when the path resolves to any value, however falsy, inside the
// slot. The empty path denotes the slot itself.
type Dependency struct {
	Slot string
	Path string
}

// Set is a collection of dependencies evaluated as a conjunction.
type Set = mapset.Set[Dependency]

// NewSet builds a dependency set from the given pairs.
func NewSet(deps ...Dependency) Set {
	return mapset.NewThreadUnsafeSet(deps...)
}

// Handler is invoked by Put when a watched path becomes resolvable.
// Handlers must be idempotent: the fan-out fires on every write to the
// watched slot, not only on writes that touch the watched path.
type Handler func()

type watch struct {
	path    string
	handler Handler
}

// Directory is the shared state store.
type Directory struct {
	slots   map[string]Tree
	watches map[string][]watch // slot -> watches, registration order
	log     *logrus.Entry
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{
		slots:   make(map[string]Tree),
		watches: make(map[string][]watch),
		log:     logrus.WithField("module", "directory"),
	}
}

// Exists reports whether path resolves inside slot. An empty path reports
// the presence of the slot itself.
func (d *Directory) Exists(slot, path string) bool {
	_, ok := d.Get(slot, path)
	return ok
}

// Get resolves path inside slot, walking nested trees segment by segment.
// The second return value is false if the slot is absent or any segment of
// the path does not resolve.
func (d *Directory) Get(slot, path string) (Value, bool) {
	tree, ok := d.slots[slot]
	if !ok {
		return Value{}, false
	}
	v := Branch(tree)
	if path == "" {
		return v, true
	}
	for _, seg := range strings.Split(path, PathSeparator) {
		v, ok = v.Child(seg)
		if !ok {
			return Value{}, false
		}
	}
	return v, true
}

// Put replaces slot[key] with value, creating the slot on first write, then
// synchronously notifies every watch registered under the slot whose path
// now resolves. Handlers run in registration order on the caller's
// goroutine; reentrant Puts from inside a handler are legal.
func (d *Directory) Put(slot, key string, value Value) {
	tree, ok := d.slots[slot]
	if !ok {
		tree = make(Tree)
		d.slots[slot] = tree
	}
	tree[key] = value
	for _, w := range d.watches[slot] {
		if d.Exists(slot, w.path) {
			w.handler()
		}
	}
}

// Remove deletes key from slot. Removal of an absent slot or key is
// reported and ignored, never an error.
func (d *Directory) Remove(slot, key string) {
	tree, ok := d.slots[slot]
	if !ok {
		d.log.WithFields(logrus.Fields{"slot": slot, "key": key}).Warn("remove from unknown slot")
		return
	}
	if _, ok := tree[key]; !ok {
		d.log.WithFields(logrus.Fields{"slot": slot, "key": key}).Warn("remove of unknown key")
		return
	}
	delete(tree, key)
}

// RemoveSlot deletes the whole slot. Removal of an absent slot is reported
// and ignored.
func (d *Directory) RemoveSlot(slot string) {
	if _, ok := d.slots[slot]; !ok {
		d.log.WithField("slot", slot).Warn("remove of unknown slot")
		return
	}
	delete(d.slots, slot)
}

// SlotSnapshot returns a deep copy of the slot's tree, or an empty tree if
// the slot is absent. Bulk consumers such as template rendering use this to
// see all records at once without aliasing live state.
func (d *Directory) SlotSnapshot(slot string) Tree {
	tree, ok := d.slots[slot]
	if !ok {
		return make(Tree)
	}
	return tree.clone()
}

// Satisfied reports whether every dependency in deps resolves. Only
// presence matters, not value content. The empty set is satisfied.
func (d *Directory) Satisfied(deps Set) bool {
	if deps == nil {
		return true
	}
	ok := true
	deps.Each(func(dep Dependency) bool {
		if !d.Exists(dep.Slot, dep.Path) {
			ok = false
			return true // stop iteration
		}
		return false
	})
	return ok
}

// Subscribe registers handler once per dependency in deps. A handler with N
// dependency paths is invoked once per qualifying write to any of its
// watched slots, so it must re-check full dependency satisfaction itself
// before acting.
func (d *Directory) Subscribe(deps Set, handler Handler) {
	if deps == nil {
		return
	}
	deps.Each(func(dep Dependency) bool {
		d.watches[dep.Slot] = append(d.watches[dep.Slot], watch{path: dep.Path, handler: handler})
		return false
	})
}
