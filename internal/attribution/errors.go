package attribution

import "errors"

// Sentinel errors for request validation.
var (
	// ErrUnknownModel is returned for an attribution model outside the six
	// recognized values. Never defaulted: a typo'd model must not silently
	// query another model's source.
	ErrUnknownModel = errors.New("unknown attribution model")

	// ErrInvalidFilterShape is returned when hierarchy filters contradict
	// the channel classification (campaign text on an ad-spend channel, or
	// ad PKs on a non-ad-spend channel).
	ErrInvalidFilterShape = errors.New("hierarchy filters do not match channel type")

	// ErrUnknownWindow is returned for an attribution window outside the
	// recognized set.
	ErrUnknownWindow = errors.New("unknown attribution window")
)
