package morphology

import (
	"fmt"
	"strings"
)

// Operation names a morphological filter.
type Operation int

const (
	OpDilation Operation = iota
	OpErosion
	OpOpening
	OpClosing
	OpGradient
	OpInnerGradient
	OpOuterGradient
	OpLaplacian
	OpWhiteTopHat
	OpBlackTopHat
)

var operationNames = [...]string{
	OpDilation:      "dilation",
	OpErosion:       "erosion",
	OpOpening:       "opening",
	OpClosing:       "closing",
	OpGradient:      "gradient",
	OpInnerGradient: "inner-gradient",
	OpOuterGradient: "outer-gradient",
	OpLaplacian:     "laplacian",
	OpWhiteTopHat:   "white-tophat",
	OpBlackTopHat:   "black-tophat",
}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// Operations lists every operation in declaration order.
func Operations() []Operation {
	ops := make([]Operation, len(operationNames))
	for i := range ops {
		ops[i] = Operation(i)
	}
	return ops
}

// ParseOperation resolves an operation name, ignoring case, surrounding
// spaces and the difference between '-' and '_'.
func ParseOperation(name string) (Operation, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, n := range operationNames {
		if n == key {
			return Operation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}
