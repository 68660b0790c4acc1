package reindex

import "errors"

// ErrInvalidAttempts is returned by Backoff.Do when Attempts is not positive.
var ErrInvalidAttempts = errors.New("backoff attempts must be positive")
