package tool

import "errors"

// ErrClosed is returned by operations on a finished session.
var ErrClosed = errors.New("session closed")
