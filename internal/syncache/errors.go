package syncache

import (
	"errors"
	"fmt"
)

// ErrPending is returned when a value is needed before the first fetch completed.
var ErrPending = errors.New("value not loaded yet")

// MutationError reports a failed authoritative write. The cache has already
// been resynchronised with the backend when it is returned.
type MutationError struct {
	Key string
	Err error
	// ResyncErr is set when the follow-up refetch failed as well and the
	// cache fell back to the last authoritative value.
	ResyncErr error
}

func (e *MutationError) Error() string {
	if e.ResyncErr != nil {
		return fmt.Sprintf("mutate %s: %v (resync: %v)", e.Key, e.Err, e.ResyncErr)
	}
	return fmt.Sprintf("mutate %s: %v", e.Key, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
