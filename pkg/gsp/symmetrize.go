package gsp

import (
	"fmt"

	"github.com/sanonone/gspkit/pkg/core/sparse"
)

// Symmetrization modes.
const (
	// SymmetrizeAverage replaces W with (W + W^T) / 2.
	SymmetrizeAverage = "average"
	// SymmetrizeFull replaces W with the elementwise max of W and W^T,
	// keeping the union of both edge directions at the stronger weight.
	SymmetrizeFull = "full"
)

// Symmetrize forces a square matrix into symmetric form using the given
// mode.
func Symmetrize(w *sparse.Matrix, mode string) (*sparse.Matrix, error) {
	if !w.IsSquare() {
		return nil, fmt.Errorf("%w: %dx%d", ErrWeightsNotSquare, w.Rows(), w.Cols())
	}
	switch mode {
	case SymmetrizeAverage:
		return w.Add(w.Transpose()).Scale(0.5), nil
	case SymmetrizeFull:
		return w.MaxElementwise(w.Transpose()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymmetrizeType, mode)
	}
}
