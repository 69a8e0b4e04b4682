package builder

import "errors"

var (
	// ErrInvalidType is returned for an unrecognized node type or an
	// unrecognized value on an enumerated property.
	ErrInvalidType = errors.New("invalid type")

	// ErrUnknownNode is returned when an operation references a node id
	// that is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned when a connection would point a node at itself.
	ErrSelfLoop = errors.New("self loop")

	// ErrUnknownConnection is returned when removing a connection id that
	// is not part of the graph.
	ErrUnknownConnection = errors.New("unknown connection")
)
