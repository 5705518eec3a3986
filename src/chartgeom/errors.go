package chartgeom

import "errors"

var (
	ErrUnknownPreset   = errors.New("unknown chart preset")
	ErrBadTickInterval = errors.New("tick interval must be 1 or 2 weeks")
)
