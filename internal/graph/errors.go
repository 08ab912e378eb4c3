package graph

import "errors"

var (
	// ErrUnknownStation is returned when a code is not a declared station
	ErrUnknownStation = errors.New("unknown station")
	// ErrDuplicateStation is returned when a station code is declared twice
	ErrDuplicateStation = errors.New("duplicate station")
	// ErrDuplicateSegment is returned when an unordered code pair has more than one segment
	ErrDuplicateSegment = errors.New("duplicate segment")
	// ErrAsymmetricTransfer is returned when a transfer is declared in one direction only
	ErrAsymmetricTransfer = errors.New("asymmetric transfer")
	// ErrInvalidSegment is returned for segments with bad endpoints, mode or timings
	ErrInvalidSegment = errors.New("invalid segment")
	// ErrInvalidTransfer is returned for transfers between different stations or with bad timings
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrInvalidDirection means an edge was traversed between codes it does not connect
	ErrInvalidDirection = errors.New("invalid traversal direction")
)
