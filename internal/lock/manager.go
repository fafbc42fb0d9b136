package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = fmt.Errorf("timeout acquiring lock")
	// ErrPathRequired is returned when a resource path is empty.
	ErrPathRequired = fmt.Errorf("resource path is required")
	// ErrNilLock is returned when a nil lock handle is passed to ReleaseLock.
	ErrNilLock = fmt.Errorf("nil lock handle")
)

// shortPollInterval is the interval to sleep when polling for a lock.
const shortPollInterval = 10 * time.Millisecond

// ResourceLock is a held OS-level lock on one resource path.
type ResourceLock struct {
	Path  string
	flock *flock.Flock
}

// Manager hands out exclusive advisory locks for resource paths. Accessors
// take a lock around every read-modify-write so concurrent edit calls to the
// same resource serialize at the OS level.
type Manager struct{}

// NewManager initializes and returns a new Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Acquire attempts to take an exclusive OS-level lock for the given
// absolute resource path, polling until the timeout elapses.
func (m *Manager) Acquire(path string, timeout time.Duration) (*ResourceLock, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, shortPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("error acquiring lock for %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return &ResourceLock{Path: path, flock: fl}, nil
}

// Release releases the given OS-level lock.
func (m *Manager) Release(l *ResourceLock) error {
	if l == nil {
		return ErrNilLock
	}
	if l.flock != nil {
		_ = l.flock.Unlock()
	}
	return nil
}
