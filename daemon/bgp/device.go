package bgp

import (
	"github.com/sirupsen/logrus"

	"github.com/routecfg/routecfgd/daemon/directory"
	"github.com/routecfg/routecfgd/daemon/events"
	"github.com/routecfg/routecfgd/daemon/reconciler"
)

// DeviceManager mirrors device metadata records into the directory's meta
// slot. Writing the "localhost" record is what publishes the local ASN and
// unblocks every reconciler gated on it. It has no dependencies of its own
// and never defers.
type DeviceManager struct {
	*reconciler.Manager
	dir *directory.Directory
	log *logrus.Entry
}

// NewDeviceManager wires a device manager into the loop and directory.
func NewDeviceManager(reg reconciler.Registrar, dir *directory.Directory, journal *events.Publisher) (*DeviceManager, error) {
	m := &DeviceManager{
		dir: dir,
		log: logrus.WithField("module", "bgp.device"),
	}
	rm, err := reconciler.New(reg, dir, journal, reconciler.Options{
		Name:    "device",
		Table:   DeviceTable,
		Applier: m,
	})
	if err != nil {
		return nil, err
	}
	m.Manager = rm
	return m, nil
}

// ApplySet replaces the metadata record for key, fanning out directory
// notifications to whoever is waiting on it.
func (m *DeviceManager) ApplySet(key string, data map[string]string) bool {
	m.dir.Put(SlotMeta, key, directory.Fields(data))
	m.log.WithField("key", key).Info("device metadata updated")
	return true
}

// ApplyDelete drops the metadata record for key.
func (m *DeviceManager) ApplyDelete(key string) {
	m.dir.Remove(SlotMeta, key)
}
