package mdsystem

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	chem "github.com/rbdavid/exafold"
	"github.com/rbdavid/exafold/openmm"
)

// System files can be read while another process is still writing them, so
// format errors are retried after a random wait.
var (
	loadRetries uint64 = 20
	loadMaxWait        = 5 * time.Second
)

// uniformBackOff waits a uniformly distributed time in [0, max).
type uniformBackOff struct {
	max time.Duration
}

func (u uniformBackOff) NextBackOff() time.Duration {
	if u.max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(u.max)))
}

func (u uniformBackOff) Reset() {}

// LoadXML replaces the system with the one serialized in the named file.
// If the file can't be parsed, it is read again up to 20 times, waiting
// up to 5 s between attempts, and the last error is returned. Errors opening
// the file are returned right away.
func (O *OmmSystem) LoadXML(name string) error {
	var S *openmm.System
	op := func() error {
		s, err := openmm.ReadXMLFile(name)
		if err != nil {
			if errors.Is(err, openmm.ErrFormat) {
				return err
			}
			return backoff.Permanent(err)
		}
		S = s
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying system file", "file", name, "wait", wait, "error", err)
	}
	b := backoff.WithMaxRetries(uniformBackOff{max: loadMaxWait}, loadRetries)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return err
	}
	O.System = S
	return nil
}

// SaveXML serializes the system to the named file. Files ending in .gz or .zst are compressed.
func (O *OmmSystem) SaveXML(name string) error {
	return O.System.WriteXMLFile(name)
}

// SavePDB writes the topology, with the initial positions if they are known, to the
// named PDB file.
func (O *OmmSystem) SavePDB(name string) error {
	if O.topology == nil {
		return ErrNoTopology
	}
	if O.positions == nil {
		return chem.PDBFileWrite(name, O.topology)
	}
	return chem.PDBFileWrite(name, O.topology, O.positions)
}
