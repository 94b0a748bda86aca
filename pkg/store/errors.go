package store

import "errors"

// ErrNoPredictionsAvailable mirrors queue.ErrNoSessionsAvailable: returned
// by Lease when no matured, unvalidated, quality-passing prediction exists
// right now.
var ErrNoPredictionsAvailable = errors.New("store: no predictions available to lease")

// pgUniqueViolation is the Postgres SQLSTATE for a unique_violation.
const pgUniqueViolation = "23505"
