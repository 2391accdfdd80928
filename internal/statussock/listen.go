// Package statussock exposes a read-only Unix-socket introspection
// endpoint for a running container: its public header and current block
// count. It never answers with anything that could be used to recover a
// partition — no secrets, no partition count, no block contents.
package statussock

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/codeology-limited/hypercube/internal/tlog"
)

// cleanupOrphanedSocket deletes an orphaned socket file at path, but only
// if it really is a socket and connecting to it fails with ECONNREFUSED.
func cleanupOrphanedSocket(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	if fi.Mode().Type() != fs.ModeSocket {
		return
	}
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		conn.Close()
		return
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		tlog.Info.Printf("statussock: deleting orphaned socket file %q", path)
		if err := os.Remove(path); err != nil {
			tlog.Warn.Printf("statussock: deleting socket file failed: %v", err)
		}
	}
}

// Listen opens a Unix socket at path with 0600 permissions inside a 0700
// parent directory, cleaning up any orphaned socket file left behind by a
// crashed prior instance.
func Listen(path string) (net.Listener, error) {
	cleanupOrphanedSocket(path)

	parentDir := filepath.Dir(path)
	if err := os.MkdirAll(parentDir, 0700); err != nil {
		return nil, err
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	if err := os.Chmod(path, 0600); err != nil {
		listener.Close()
		os.Remove(path)
		return nil, err
	}
	if err := os.Chmod(parentDir, 0700); err != nil {
		tlog.Warn.Printf("statussock: failed to secure parent directory permissions: %v", err)
	}

	return listener, nil
}
