package reconciler

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/routecfg/routecfgd/daemon/changes"
	"github.com/routecfg/routecfgd/daemon/directory"
)

type nopRegistrar struct {
	registered []changes.Table
}

func (r *nopRegistrar) Register(t changes.Table, cb func(changes.Change)) error {
	r.registered = append(r.registered, t)
	return nil
}

// scriptedApplier returns scripted results for ApplySet and records every
// call.
type scriptedApplier struct {
	results map[string][]bool // per key, consumed front to back
	sets    []string
	deletes []string
}

func (a *scriptedApplier) ApplySet(key string, data map[string]string) bool {
	a.sets = append(a.sets, key)
	rs := a.results[key]
	if len(rs) == 0 {
		return true
	}
	r := rs[0]
	a.results[key] = rs[1:]
	return r
}

func (a *scriptedApplier) ApplyDelete(key string) {
	a.deletes = append(a.deletes, key)
}

var testTable = changes.Table{Store: "config", Name: "test"}

func newTestManager(t *testing.T, dir *directory.Directory, deps directory.Set, applier Applier) *Manager {
	t.Helper()
	m, err := New(&nopRegistrar{}, dir, nil, Options{
		Name:    "test",
		Table:   testTable,
		Deps:    deps,
		Applier: applier,
	})
	assert.NilError(t, err)
	return m
}

func TestNewRequiresApplier(t *testing.T) {
	_, err := New(&nopRegistrar{}, directory.New(), nil, Options{Name: "test", Table: testTable})
	assert.ErrorContains(t, err, "no applier")
}

func TestSetWithUnmetDepsIsQueuedVerbatim(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	deps := directory.NewSet(directory.Dependency{Slot: "meta", Path: "localhost/bgp_asn"})
	m := newTestManager(t, dir, deps, applier)

	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.OpSet, Fields: map[string]string{"asn": "65100"}})

	assert.Equal(t, len(applier.sets), 0)
	assert.Equal(t, m.QueueLen(), 1)

	// The dependency-satisfying put triggers exactly one retry.
	dir.Put("meta", "localhost", directory.Fields(map[string]string{"bgp_asn": "65000"}))

	assert.DeepEqual(t, applier.sets, []string{"10.0.0.1"})
	assert.Equal(t, m.QueueLen(), 0)
}

func TestSetWithMetDepsAppliesImmediately(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	m := newTestManager(t, dir, nil, applier)

	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.OpSet})

	assert.DeepEqual(t, applier.sets, []string{"10.0.0.1"})
	assert.Equal(t, m.QueueLen(), 0)
}

func TestApplySetFalseRequeuesWithoutDuplicates(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{results: map[string][]bool{"10.0.0.1": {false, false, true}}}
	m := newTestManager(t, dir, directory.NewSet(directory.Dependency{Slot: "meta", Path: ""}), applier)

	dir.Put("meta", "localhost", directory.Fields(nil)) // deps now met, queue empty: no-op retry
	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.OpSet})
	assert.Equal(t, m.QueueLen(), 1)

	// Two more triggers with the applier still declining.
	dir.Put("meta", "localhost", directory.Fields(nil))
	assert.Equal(t, m.QueueLen(), 1)

	dir.Put("meta", "localhost", directory.Fields(nil))
	assert.Equal(t, m.QueueLen(), 0)
	assert.DeepEqual(t, applier.sets, []string{"10.0.0.1", "10.0.0.1", "10.0.0.1"})
}

func TestRetryPreservesFIFOOrder(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	deps := directory.NewSet(directory.Dependency{Slot: "meta", Path: ""})
	m := newTestManager(t, dir, deps, applier)

	m.Handle(changes.Change{Key: "a", Op: changes.OpSet})
	m.Handle(changes.Change{Key: "b", Op: changes.OpSet})
	assert.Equal(t, m.QueueLen(), 2)

	dir.Put("meta", "localhost", directory.Fields(nil))
	assert.DeepEqual(t, applier.sets, []string{"a", "b"})
}

func TestDeleteAlwaysAppliesAndSkipsQueue(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	deps := directory.NewSet(directory.Dependency{Slot: "meta", Path: ""})
	m := newTestManager(t, dir, deps, applier)

	// Park a SET, then delete the same key. The pending SET survives:
	// delete does not purge the retry queue.
	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.OpSet})
	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.OpDelete})

	assert.DeepEqual(t, applier.deletes, []string{"10.0.0.1"})
	assert.Equal(t, len(applier.sets), 0)
	assert.Equal(t, m.QueueLen(), 1)

	// The surviving SET is still retried later.
	dir.Put("meta", "localhost", directory.Fields(nil))
	assert.DeepEqual(t, applier.sets, []string{"10.0.0.1"})
}

func TestUnknownOpIsDropped(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	m := newTestManager(t, dir, nil, applier)

	m.Handle(changes.Change{Key: "10.0.0.1", Op: changes.Op("FLUSH")})

	assert.Equal(t, len(applier.sets), 0)
	assert.Equal(t, len(applier.deletes), 0)
	assert.Equal(t, m.QueueLen(), 0)
}

func TestDependencyChangeWithEmptyQueueIsNoop(t *testing.T) {
	dir := directory.New()
	applier := &scriptedApplier{}
	deps := directory.NewSet(directory.Dependency{Slot: "meta", Path: ""})
	newTestManager(t, dir, deps, applier)

	dir.Put("meta", "localhost", directory.Fields(nil))
	assert.Equal(t, len(applier.sets), 0)
}

func TestManagerRegistersItsTable(t *testing.T) {
	reg := &nopRegistrar{}
	_, err := New(reg, directory.New(), nil, Options{Name: "test", Table: testTable, Applier: &scriptedApplier{}})
	assert.NilError(t, err)
	assert.DeepEqual(t, reg.registered, []changes.Table{testTable})
}
