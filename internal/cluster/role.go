package cluster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Role is the process's position in a multi-process deployment.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleWorker      Role = "worker"
)

// DetectRole resolves cluster-mode auto-detection through a shared lock
// file: the first process to take the lock coordinates, every other
// process reports to it. The returned lock is non-nil only for the
// coordinator and must stay held for as long as the role is claimed.
func DetectRole(lockPath string) (Role, *flock.Flock, error) {
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "statusmon.lock")
	}
	lk := flock.New(lockPath)
	locked, err := lk.TryLock()
	if err != nil {
		return "", nil, fmt.Errorf("cluster: lock %s: %w", lockPath, err)
	}
	if locked {
		return RoleCoordinator, lk, nil
	}
	return RoleWorker, nil, nil
}
