package modal

import "errors"

// Errors reported by the control entry points. Compare with errors.Is.
var (
	// ErrInvalidIndex indicates an instance index outside 0..MaxInstances-1.
	ErrInvalidIndex = errors.New("modal: instance index out of range")

	// ErrNotReady indicates the operation needs a model that has not been loaded yet.
	ErrNotReady = errors.New("modal: instance has no model loaded")

	// ErrCapacityExceeded indicates a mode count above MaxResonators.
	ErrCapacityExceeded = errors.New("modal: mode count exceeds resonator capacity")

	// ErrShapeMismatch indicates array lengths that disagree with the declared mode/vertex counts.
	ErrShapeMismatch = errors.New("modal: array length does not match mode/vertex counts")
)
