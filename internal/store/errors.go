package store

import "errors"

// ErrDuplicateUsername reports a unique-constraint violation on
// username. The Postgres store relies on the schema's unique index and
// returns the driver error instead; the service treats both the same.
var ErrDuplicateUsername = errors.New("username already exists")
