package composer

import "errors"

var (
	// ErrNotInitialized is returned by any operation on a component that has
	// not been initialized (or has been deinitialized).
	ErrNotInitialized = errors.New("composer: not initialized")

	// ErrInvalidArgument is returned when a required per-cycle input is missing.
	ErrInvalidArgument = errors.New("composer: invalid argument")

	// ErrLayerOverflow is returned when a cycle flips more layers than the
	// commit buffer holds. The whole commit for the cycle is aborted.
	ErrLayerOverflow = errors.New("composer: layer count exceeds the limit")

	// ErrPostFailed wraps a display device post error.
	ErrPostFailed = errors.New("composer: post failed")

	// ErrDeviceUnavailable is returned by CommitContext.Initialize when no
	// display device can be resolved.
	ErrDeviceUnavailable = errors.New("composer: display device unavailable")
)
