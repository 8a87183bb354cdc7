package ttlcache

import "errors"

// ErrNotFound is returned by Peek when no entry exists for a key.
var ErrNotFound = errors.New("ttlcache: entry not found")
