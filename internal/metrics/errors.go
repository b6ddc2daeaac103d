package metrics

import "errors"

// ErrShutdownTimeout is returned when the serving goroutine does not stop in time.
var ErrShutdownTimeout = errors.New("metrics endpoint did not stop in time")
