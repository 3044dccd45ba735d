package morphology

import "errors"

// Errors returned by the engines. They are wrapped with context; test for
// them with errors.Is.
var (
	ErrDimensionality   = errors.New("unsupported dimensionality")
	ErrUnsupportedType  = errors.New("unsupported element type")
	ErrUnknownOperation = errors.New("unknown morphological operation")
)
