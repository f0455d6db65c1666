package transport

import "errors"

// ErrNotModified reports that an edit carried the same content the message
// already has. Adapters translate their platform-specific error into this
// sentinel so callers can treat the edit as an idempotent no-op.
var ErrNotModified = errors.New("message content not modified")
