// Package frr talks to the FRR control plane through vtysh: pushing
// rendered configuration text and probing that the control-plane daemons
// are up before reconciliation starts.
package frr

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultVtyshPath is used when no binary path is configured.
const DefaultVtyshPath = "vtysh"

// Runner applies configuration to the control plane. Push submits a block
// of configuration commands synchronously; Probe checks that the control
// plane is reachable at all.
type Runner interface {
	Push(config string) error
	Probe() error
}

// Vtysh runs the vtysh binary. Push feeds the configuration over stdin
// ("vtysh -f /dev/stdin") so multi-line blocks arrive as one transaction
// from vtysh's point of view.
type Vtysh struct {
	path string
	log  *logrus.Entry
}

// NewVtysh returns a runner invoking the binary at path, or DefaultVtyshPath
// if path is empty.
func NewVtysh(path string) *Vtysh {
	if path == "" {
		path = DefaultVtyshPath
	}
	return &Vtysh{
		path: path,
		log:  logrus.WithField("module", "vtysh"),
	}
}

// Push submits config and captures diagnostic output into the returned
// error on failure.
func (v *Vtysh) Push(config string) error {
	cmd := exec.Command(v.path, "-f", "/dev/stdin")
	cmd.Stdin = strings.NewReader(config)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "vtysh rejected config: %s", bytes.TrimSpace(out))
	}
	v.log.WithField("bytes", len(config)).Debug("config pushed")
	return nil
}

// Probe asks vtysh for the daemon list. It succeeds once the control-plane
// process accepts connections.
func (v *Vtysh) Probe() error {
	out, err := exec.Command(v.path, "-c", "show daemons").CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "vtysh probe failed: %s", bytes.TrimSpace(out))
	}
	return nil
}
