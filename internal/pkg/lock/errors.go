package lock

import "errors"

// ErrLockTimeout is returned when a user's lock is not free before the
// context deadline.
var ErrLockTimeout = errors.New("lock acquisition timeout")
