// Package sentinel holds infrastructure errors that stores return and
// services translate into domain errors.
package sentinel

import "errors"

// ErrNotFound means the record does not exist, has expired, or could not be
// opened. Callers must not distinguish these cases to the client.
var ErrNotFound = errors.New("not found")
