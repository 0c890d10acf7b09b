package params

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidParameters = errors.New("invalid disease parameters")
)
