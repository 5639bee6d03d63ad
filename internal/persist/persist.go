// Package persist holds the persistence collaborators. The core exposes its
// state as a plain-data snapshot; the storage format is owned entirely here.
package persist

import "errors"

// ErrPersistenceFailure wraps any load/save failure. It must not crash an
// in-progress game: callers defer it and report at session end.
var ErrPersistenceFailure = errors.New("persistence failure")
