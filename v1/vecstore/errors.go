package vecstore

import (
	"errors"

	"github.com/Aleph-Alpha/vecstore/v1/record"
)

var (
	// ErrCollectionNotFound is returned when an operation references a
	// collection that does not exist in the target schema.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionAlreadyExists is returned by the strict CreateCollection
	// when a collection with the requested name already exists.
	ErrCollectionAlreadyExists = errors.New("collection with requested name already exists")

	// ErrInvalidArgument is returned when caller-supplied arguments are
	// rejected before any statement reaches the database.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMismatchedDimension is returned when a vector's length disagrees
	// with the collection dimension, or when the dimension reported by the
	// adapter, the option, and an existing collection do not agree.
	ErrMismatchedDimension = record.ErrMismatchedDimension
)
