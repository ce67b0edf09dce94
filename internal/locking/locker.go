// Package locking serializes read-modify-write cycles on a single account.
package locking

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be obtained before the
// caller's context expired.
var ErrLockTimeout = errors.New("locking: timed out waiting for lock")

// Locker grants exclusive ownership of a key. Acquire blocks until the key is
// free or ctx is done. The returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AccountKey is the lock key guarding one account's balance and holdings.
func AccountKey(accountOwnerID string) string {
	return "account:" + accountOwnerID
}
