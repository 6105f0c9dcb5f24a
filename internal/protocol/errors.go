package protocol

import "errors"

// ErrEmptyPayload is returned when a message that requires a payload has none.
var ErrEmptyPayload = errors.New("empty payload")
