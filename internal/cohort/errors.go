package cohort

import "errors"

// Sentinel errors for cohort request validation.
var (
	ErrUnknownGranularity = errors.New("unknown cohort granularity")
)
