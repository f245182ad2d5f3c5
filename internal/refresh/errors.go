package refresh

import "fmt"

// SyncError represents a failed pass of the periodic model refresh
type SyncError struct {
	Stage   string // The stage where the error occurred
	Message string // Human-readable error message
	Err     error  // Original error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func NewSyncError(stage, message string, err error) error {
	return &SyncError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}
