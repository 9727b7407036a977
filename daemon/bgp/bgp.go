// Package bgp holds the concrete reconcilers for the BGP control plane:
// device metadata, local interface addresses, and neighbor sessions. The
// device and address managers derive shared state into the directory; the
// neighbor manager consumes that state to render and push FRR session
// configuration through vtysh.
package bgp

import (
	"github.com/routecfg/routecfgd/daemon/changes"
)

// Change-source tables consumed by the managers.
var (
	// DeviceTable carries device-level metadata records (key "localhost").
	DeviceTable = changes.Table{Store: "config", Name: "device"}
	// NeighborTable carries BGP neighbor records keyed by peer address.
	NeighborTable = changes.Table{Store: "config", Name: "bgp_neighbor"}
	// AddressTable carries local interface address records keyed by address.
	AddressTable = changes.Table{Store: "state", Name: "interface_address"}
)

// Directory slots written and read by the managers.
const (
	// SlotMeta holds device metadata derived from DeviceTable.
	SlotMeta = "meta"
	// SlotAddrs holds local interface addresses derived from AddressTable.
	SlotAddrs = "addrs"
)

// LocalASNPath resolves to the device's own ASN inside SlotMeta once device
// metadata has been learned. It is the neighbor manager's gating dependency.
const LocalASNPath = "localhost/bgp_asn"
