package bgp

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/directory"
	"github.com/routecfg/routecfgd/daemon/events"
	"github.com/routecfg/routecfgd/daemon/frr"
	"github.com/routecfg/routecfgd/daemon/reconciler"
)

// Neighbor record fields.
const (
	fieldASN         = "asn"
	fieldName        = "name"
	fieldLocalAddr   = "local_addr"
	fieldAdminStatus = "admin_status"
)

// NeighborManager reconciles BGP neighbor records into FRR sessions. A
// neighbor can only be configured once the local ASN is known and at least
// one local address has been learned, so the manager declares both as
// dependencies. A neighbor that names a specific local_addr the daemon has
// not seen yet is a per-record readiness condition the dependency set
// cannot express; ApplySet declines it and the record waits on the retry
// queue for the next address Put.
type NeighborManager struct {
	*reconciler.Manager
	dir    *directory.Directory
	runner frr.Runner
	peers  mapset.Set[string]
	log    *logrus.Entry
}

// NewNeighborManager wires a neighbor manager into the loop and directory.
func NewNeighborManager(reg reconciler.Registrar, dir *directory.Directory, journal *events.Publisher, runner frr.Runner) (*NeighborManager, error) {
	m := &NeighborManager{
		dir:    dir,
		runner: runner,
		peers:  mapset.NewThreadUnsafeSet[string](),
		log:    logrus.WithField("module", "bgp.neighbor"),
	}
	rm, err := reconciler.New(reg, dir, journal, reconciler.Options{
		Name:  "neighbor",
		Table: NeighborTable,
		Deps: directory.NewSet(
			directory.Dependency{Slot: SlotMeta, Path: LocalASNPath},
			directory.Dependency{Slot: SlotAddrs, Path: ""},
		),
		Applier: m,
	})
	if err != nil {
		return nil, err
	}
	m.Manager = rm
	return m, nil
}

// ApplySet renders and pushes the session configuration for the neighbor at
// key. It returns false to request a retry when the named local address is
// not yet known or when the push fails; malformed records are dropped with
// a report, since no retry can repair them.
func (m *NeighborManager) ApplySet(key string, data map[string]string) bool {
	localASN, ok := m.dir.Get(SlotMeta, LocalASNPath)
	if !ok {
		// Spurious retry before the metadata write landed.
		return false
	}
	remoteASN := data[fieldASN]
	if remoteASN == "" {
		m.log.WithField("neighbor", key).Error("neighbor record without remote ASN, dropping")
		return true
	}
	localAddr := data[fieldLocalAddr]
	if localAddr != "" && !m.dir.Exists(SlotAddrs, localAddr) {
		m.log.WithFields(logrus.Fields{"neighbor": key, "local_addr": localAddr}).Debug("local address not learned yet")
		return false
	}
	cfg, err := render("neighbor.add.tmpl", neighborArgs{
		LocalASN:  localASN.Leaf(),
		Addr:      key,
		RemoteASN: remoteASN,
		Name:      data[fieldName],
		LocalAddr: localAddr,
		AdminDown: data[fieldAdminStatus] == "down",
	})
	if err != nil {
		m.log.WithError(err).WithField("neighbor", key).Error("dropping unrenderable neighbor record")
		return true
	}
	if err := m.runner.Push(cfg); err != nil {
		m.log.WithError(err).WithField("neighbor", key).Warn("neighbor config not accepted, will retry")
		return false
	}
	m.peers.Add(key)
	m.log.WithField("neighbor", key).Info("neighbor session configured")
	return true
}

// ApplyDelete removes the session for a previously applied neighbor.
// Unknown neighbors are reported and ignored. Push failures here are
// terminal: delete has no retry path.
func (m *NeighborManager) ApplyDelete(key string) {
	if !m.peers.Contains(key) {
		m.log.WithField("neighbor", key).Warn("delete for untracked neighbor, ignoring")
		return
	}
	m.peers.Remove(key)
	localASN, ok := m.dir.Get(SlotMeta, LocalASNPath)
	if !ok {
		m.log.WithField("neighbor", key).Warn("local ASN unknown, cannot render neighbor removal")
		return
	}
	cfg, err := render("neighbor.del.tmpl", neighborArgs{
		LocalASN: localASN.Leaf(),
		Addr:     key,
	})
	if err != nil {
		m.log.WithError(err).WithField("neighbor", key).Error("cannot render neighbor removal")
		return
	}
	if err := m.runner.Push(cfg); err != nil {
		m.log.WithError(err).WithField("neighbor", key).Error("neighbor removal not accepted")
		return
	}
	m.log.WithField("neighbor", key).Info("neighbor session removed")
}

// Peers returns the addresses of currently applied neighbors, for the
// debug endpoint.
func (m *NeighborManager) Peers() []string {
	return m.peers.ToSlice()
}
