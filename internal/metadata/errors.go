package metadata

import "errors"

// ErrNotFound is returned when OpenLibrary has no record for the lookup.
var ErrNotFound = errors.New("not found in OpenLibrary")
