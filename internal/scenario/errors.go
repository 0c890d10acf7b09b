package scenario

import "errors"

// Sentinel kinds for scenario lookup errors.
var (
	ErrUnknownScenario = errors.New("unknown scenario")
)
