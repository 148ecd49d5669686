package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootLock holds an exclusive lock file under the storage root: one process
// owns the root, concurrent external writers are a non-goal and are refused
// up front instead of corrupting state.
type rootLock struct {
	f *os.File
}

func acquireRootLock(dir string) (*rootLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "writer.lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := tryLockExclusive(f); err != nil {
		_ = f.Close()
		if err == errWouldBlock {
			return nil, fmt.Errorf("storage root %s is locked by another process", dir)
		}
		return nil, err
	}
	return &rootLock{f: f}, nil
}

func (l *rootLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = unlockFile(l.f)
	_ = l.f.Close()
	l.f = nil
}
