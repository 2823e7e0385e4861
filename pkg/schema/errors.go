package schema

import "github.com/pkg/errors"

var (
	// ErrReferenceNotFound is returned when a relation, embedded field or JSON
	// field references an entity that is not part of the entity set.
	ErrReferenceNotFound = errors.New("referenced entity not found")

	// ErrUnknownType is returned when a field type has no SQL mapping.
	ErrUnknownType = errors.New("unknown field type")
)
