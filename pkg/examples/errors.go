package examples

import "errors"

var (
	// ErrUnknownUpdate is returned when an update id is not in the stream.
	ErrUnknownUpdate = errors.New("unknown update")

	// ErrDeleted is returned when acting on a deleted update.
	ErrDeleted = errors.New("update was deleted")
)
