// Package tlog provides leveled logging for hypercube. Nothing in
// internal/ writes to it directly from the transform pipeline; it is used
// by the adapted gocryptfs-derived packages (memprotect, processhardening,
// statussock) that were already written against this call convention.
package tlog

import (
	"io"
	"log"
	"os"
)

var (
	// Debug is silent unless HYPERCUBE_DEBUG is set.
	Debug = log.New(io.Discard, "hypercube: ", 0)
	// Info goes to stderr.
	Info = log.New(os.Stderr, "hypercube: ", 0)
	// Warn goes to stderr with a "warning:" prefix.
	Warn = log.New(os.Stderr, "hypercube: warning: ", 0)
	// Fatal goes to stderr with a "fatal:" prefix. Callers decide whether
	// to follow a Fatal.Printf with os.Exit; this package never exits on
	// its own.
	Fatal = log.New(os.Stderr, "hypercube: fatal: ", 0)
)

func init() {
	if os.Getenv("HYPERCUBE_DEBUG") != "" {
		Debug.SetOutput(os.Stderr)
	}
}
