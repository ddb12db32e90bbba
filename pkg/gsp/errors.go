package gsp

import "errors"

var (
	// ErrUnknownGraphType is returned when the configured neighbor-search
	// mode is neither "knn" nor "radius".
	ErrUnknownGraphType = errors.New("gsp: unknown graph type")

	// ErrUnknownSymmetrizeType is returned for a symmetrization mode other
	// than "average" or "full".
	ErrUnknownSymmetrizeType = errors.New("gsp: unknown symmetrize type")

	// ErrWeightsNotSquare signals that the assembled weight matrix is not
	// square. It indicates a broken neighbor-search contract.
	ErrWeightsNotSquare = errors.New("gsp: weight matrix is not square")

	// ErrZeroBandwidth is returned when the kernel bandwidth resolves to
	// zero or below while edges exist, which would make every weight
	// degenerate. Fully coincident point clouds trigger this.
	ErrZeroBandwidth = errors.New("gsp: kernel bandwidth resolved to zero")
)
