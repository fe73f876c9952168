package errors

import "errors"

// Custom application errors
var (
	ErrValidation   = errors.New("validation failed")             // Bad input from the caller (e.g. empty title)
	ErrNotFound     = errors.New("reminder not found")            // Operation on an unknown reminder ID
	ErrNotPermitted = errors.New("notifications not permitted")   // Gateway scheduling denied by permission state
	ErrPersistence  = errors.New("persistence operation failed")  // Snapshot save/load failure (logged, never surfaced)
)
