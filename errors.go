package skillgraph

import "errors"

var (
	// ErrInvalidArgument is returned for caller input the engine rejects,
	// e.g. a traversal depth out of range or a malformed event.
	ErrInvalidArgument = errors.New("skillgraph: invalid argument")

	// ErrNotFound is returned when a contract requires an entity that
	// does not exist. Empty query results are not errors.
	ErrNotFound = errors.New("skillgraph: not found")

	// ErrStoreUnavailable is returned when the graph store cannot be
	// reached or answers with a server-side failure.
	ErrStoreUnavailable = errors.New("skillgraph: store unavailable")

	// ErrStoreQueryError is returned when the store rejects a query as
	// malformed.
	ErrStoreQueryError = errors.New("skillgraph: store rejected query")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("skillgraph: invalid configuration")
)
