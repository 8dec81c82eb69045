package plugin

import (
	"errors"

	"github.com/cwbudde/algo-modal/modal"
)

// Status codes returned to the embedding layer.
const (
	StatusOK               = 1
	StatusInvalidIndex     = -1
	StatusNotReady         = -2
	StatusCapacityExceeded = -3
	StatusShapeMismatch    = -4
	StatusFailed           = -5
)

// Status maps an error from the modal core to a host status code.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, modal.ErrInvalidIndex):
		return StatusInvalidIndex
	case errors.Is(err, modal.ErrNotReady):
		return StatusNotReady
	case errors.Is(err, modal.ErrCapacityExceeded):
		return StatusCapacityExceeded
	case errors.Is(err, modal.ErrShapeMismatch):
		return StatusShapeMismatch
	default:
		return StatusFailed
	}
}
