// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"fmt"
	"path/filepath"

	"github.com/nightlyone/lockfile"
	"github.com/shirou/gopsutil/v4/process"
)

// LockDataDir takes the single instance lock in the data directory. Returned
// function releases the lock.
func LockDataDir(dataDir string) (func(), error) {
	lockPath := filepath.Join(dataDir, "refresher.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return nil, fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if owner := ownerName(flock); len(owner) != 0 {
			return nil, fmt.Errorf("could not get lock on file %q (held by %s): %w", lockPath, owner, err)
		}
		return nil, fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
	}
	return func() { flock.Unlock() }, nil
}

func ownerName(flock lockfile.Lockfile) string {
	owner, err := flock.GetOwner()
	if err != nil {
		return ""
	}
	p, err := process.NewProcess(int32(owner.Pid))
	if err != nil {
		return fmt.Sprintf("pid %d", owner.Pid)
	}
	cmdline, err := p.Cmdline()
	if err != nil || len(cmdline) == 0 {
		if name, err := p.Name(); err == nil {
			return fmt.Sprintf("pid %d %q", owner.Pid, name)
		}
		return fmt.Sprintf("pid %d", owner.Pid)
	}
	return fmt.Sprintf("pid %d %q", owner.Pid, cmdline)
}
