// Package pidfile creates and removes the daemon PID file, refusing to
// start over a live instance.
package pidfile

import (
	"bytes"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Read returns the PID recorded at path if it belongs to a running
// process, or 0 otherwise. Malformed content is treated as stale, not as
// an error.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil || pid <= 0 {
		return 0, nil
	}
	if unix.Kill(pid, 0) == nil {
		return pid, nil
	}
	return 0, nil
}

// Write records pid at path. It fails when the file already names a
// running process.
func Write(path string, pid int) error {
	if pid < 1 {
		return errors.Errorf("invalid PID %d", pid)
	}
	old, err := Read(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if old != 0 {
		return errors.Errorf("process with PID %d is still running", old)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

// Remove deletes the PID file. Removal of an already-absent file is fine.
func Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
