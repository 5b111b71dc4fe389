package llm

import "errors"

// ErrEmptyCompletion reports a call that succeeded at the transport level but
// produced no text content to parse.
var ErrEmptyCompletion = errors.New("llm: empty completion")
