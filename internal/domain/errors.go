package domain

import (
	"errors"
	"fmt"
)

// ErrNoSeries reports that the provider responded but the payload carried
// no usable time series at all. It marks the whole symbol fetch unusable.
var ErrNoSeries = errors.New("response contains no time series")

// FetchError is a transport or remote failure while fetching one symbol:
// timeout, non-success status, or an unreadable response body.
type FetchError struct {
	Symbol string
	Status int // HTTP status when applicable, 0 otherwise
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Symbol, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError is an unrecoverable storage fault (I/O failure,
// permission, disk full) while writing one symbol's artifacts.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
