package directory

import (
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"
)

func TestExistsAndGet(t *testing.T) {
	d := New()

	assert.Assert(t, !d.Exists("meta", "localhost/bgp_asn"))

	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))

	assert.Assert(t, d.Exists("meta", "localhost/bgp_asn"))
	v, ok := d.Get("meta", "localhost/bgp_asn")
	assert.Assert(t, ok)
	assert.Equal(t, v.Leaf(), "65000")

	v, ok = d.Get("meta", "localhost")
	assert.Assert(t, ok)
	child, ok := v.Child("bgp_asn")
	assert.Assert(t, ok)
	assert.Equal(t, child.Leaf(), "65000")
}

func TestEmptyPathMeansSlotPresence(t *testing.T) {
	d := New()

	assert.Assert(t, !d.Exists("addrs", ""))
	d.Put("addrs", "10.0.0.1", Fields(map[string]string{"interface": "Ethernet0"}))
	assert.Assert(t, d.Exists("addrs", ""))
}

func TestGetStopsAtFirstMissingSegment(t *testing.T) {
	d := New()
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))

	assert.Assert(t, !d.Exists("meta", "localhost/hostname"))
	assert.Assert(t, !d.Exists("meta", "localhost/bgp_asn/deeper"))
	assert.Assert(t, !d.Exists("meta", "otherhost/bgp_asn"))
}

func TestPutReplacesWholeValue(t *testing.T) {
	d := New()
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000", "hostname": "leaf1"}))
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65001"}))

	assert.Assert(t, d.Exists("meta", "localhost/bgp_asn"))
	// Replacement, not merge: hostname is gone.
	assert.Assert(t, !d.Exists("meta", "localhost/hostname"))
}

func TestNotifyOnEveryQualifyingWrite(t *testing.T) {
	d := New()
	fired := 0
	d.Subscribe(NewSet(Dependency{Slot: "meta", Path: "localhost/bgp_asn"}), func() { fired++ })

	// Unsatisfied path: no notification.
	d.Put("meta", "otherhost", Fields(map[string]string{"bgp_asn": "65002"}))
	assert.Equal(t, fired, 0)

	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))
	assert.Equal(t, fired, 1)

	// Identical value still notifies: there is no value diffing.
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))
	assert.Equal(t, fired, 2)

	// A write to an unrelated key in the same slot notifies too, as long
	// as the watched path still resolves.
	d.Put("meta", "otherhost", Fields(map[string]string{"bgp_asn": "65002"}))
	assert.Equal(t, fired, 3)
}

func TestNotifyNeverCrossesSlots(t *testing.T) {
	d := New()
	fired := 0
	d.Subscribe(NewSet(Dependency{Slot: "meta", Path: ""}), func() { fired++ })

	d.Put("addrs", "10.0.0.1", Fields(nil))
	assert.Equal(t, fired, 0)

	d.Put("meta", "localhost", Fields(nil))
	assert.Equal(t, fired, 1)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	d := New()
	var order []string
	dep := NewSet(Dependency{Slot: "meta", Path: ""})
	d.Subscribe(dep, func() { order = append(order, "first") })
	d.Subscribe(dep, func() { order = append(order, "second") })

	d.Put("meta", "localhost", Fields(nil))
	assert.DeepEqual(t, order, []string{"first", "second"})
}

func TestReentrantPut(t *testing.T) {
	d := New()
	fired := 0
	d.Subscribe(NewSet(Dependency{Slot: "derived", Path: ""}), func() { fired++ })
	d.Subscribe(NewSet(Dependency{Slot: "meta", Path: "localhost"}), func() {
		d.Put("derived", "localhost", String("x"))
	})

	d.Put("meta", "localhost", Fields(nil))
	assert.Equal(t, fired, 1)
}

func TestSatisfied(t *testing.T) {
	d := New()
	deps := NewSet(
		Dependency{Slot: "meta", Path: "localhost/bgp_asn"},
		Dependency{Slot: "addrs", Path: ""},
	)

	assert.Assert(t, !d.Satisfied(deps))

	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))
	assert.Assert(t, !d.Satisfied(deps))

	// Presence is all that matters, the value can be empty.
	d.Put("addrs", "10.0.0.1", String(""))
	assert.Assert(t, d.Satisfied(deps))

	assert.Assert(t, d.Satisfied(nil))
	assert.Assert(t, d.Satisfied(NewSet()))
}

func TestRemoveAbsentIsReportedNotFatal(t *testing.T) {
	d := New()
	// None of these may panic or error.
	d.Remove("meta", "localhost")
	d.RemoveSlot("meta")

	d.Put("meta", "localhost", Fields(nil))
	d.Remove("meta", "nosuchkey")
	d.Remove("meta", "localhost")
	assert.Assert(t, !d.Exists("meta", "localhost"))

	d.RemoveSlot("meta")
	assert.Assert(t, !d.Exists("meta", ""))
}

func TestSlotSnapshotIsDetached(t *testing.T) {
	d := New()
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65000"}))

	snap := d.SlotSnapshot("meta")
	d.Put("meta", "localhost", Fields(map[string]string{"bgp_asn": "65001"}))

	v, ok := snap["localhost"].Child("bgp_asn")
	assert.Assert(t, ok)
	assert.Equal(t, v.Leaf(), "65000")

	assert.Equal(t, len(d.SlotSnapshot("nosuchslot")), 0)
}

func TestValueJSON(t *testing.T) {
	v := Branch(Tree{
		"bgp_asn": String("65000"),
		"nested":  Branch(Tree{"a": String("b")}),
	})
	data, err := json.Marshal(v)
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"bgp_asn":"65000","nested":{"a":"b"}}`)
}
