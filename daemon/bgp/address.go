package bgp

import (
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/directory"
	"github.com/routecfg/routecfgd/daemon/events"
	"github.com/routecfg/routecfgd/daemon/reconciler"
)

// AddressManager mirrors local interface address records into the
// directory's addrs slot. Neighbor records that name a local address the
// daemon has not seen yet sit on the neighbor manager's retry queue until
// a Put here releases them.
type AddressManager struct {
	*reconciler.Manager
	dir *directory.Directory
	log *logrus.Entry
}

// NewAddressManager wires an address manager into the loop and directory.
func NewAddressManager(reg reconciler.Registrar, dir *directory.Directory, journal *events.Publisher) (*AddressManager, error) {
	m := &AddressManager{
		dir: dir,
		log: logrus.WithField("module", "bgp.address"),
	}
	rm, err := reconciler.New(reg, dir, journal, reconciler.Options{
		Name:    "address",
		Table:   AddressTable,
		Applier: m,
	})
	if err != nil {
		return nil, err
	}
	m.Manager = rm
	return m, nil
}

// ApplySet records the address keyed by its literal form.
func (m *AddressManager) ApplySet(key string, data map[string]string) bool {
	m.dir.Put(SlotAddrs, key, directory.Fields(data))
	m.log.WithField("address", key).Debug("local address learned")
	return true
}

// ApplyDelete forgets the address.
func (m *AddressManager) ApplyDelete(key string) {
	m.dir.Remove(SlotAddrs, key)
}
