package core

import "errors"

var (
	// ErrNotFound is returned when an entity, default order or preference does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrInUse is returned when deleting an entity that others still reference.
	ErrInUse = errors.New("still in use")

	// ErrUnknownKind is returned for an entity kind that is not registered.
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrUnknownColumn is returned when a column is not part of an entity grid.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrReadOnlyColumn is returned when writing to a derived column.
	ErrReadOnlyColumn = errors.New("read-only column")
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrTooManyRows is returned when an upload has more data rows than allowed.
	ErrTooManyRows = errors.New("too many rows")

	// ErrBulkRejected is returned when a bulk operation is rolled back because
	// at least one item failed. The accompanying BulkResult lists the failures.
	ErrBulkRejected = errors.New("bulk operation rejected")
)
