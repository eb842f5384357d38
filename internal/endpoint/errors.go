package endpoint

import "errors"

var (
	ErrEmptyList     = errors.New("no endpoints collected")
	ErrNoServerIndex = errors.New("endpoint has no server number")
)
