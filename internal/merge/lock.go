package merge

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// fileLock is an advisory lock colocated with the pattern document. It
// serializes the validate → backup → write sequence against concurrent
// merges; readers need no lock because the final write is an atomic rename.
type fileLock struct {
	path string
	file *os.File
}

// acquireLock creates the lock file exclusively. A pre-existing lock file
// means another merge is in flight (or crashed; the operator removes the
// stale file after inspecting the backup trail).
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	fmt.Fprintf(f, "pid %d\n", os.Getpid())
	return &fileLock{path: path, file: f}, nil
}

func (l *fileLock) release(logger *zap.Logger) {
	if err := l.file.Close(); err != nil {
		logger.Warn("failed to close lock file", zap.String("path", l.path), zap.Error(err))
	}
	if err := os.Remove(l.path); err != nil {
		logger.Warn("failed to remove lock file", zap.String("path", l.path), zap.Error(err))
	}
}
