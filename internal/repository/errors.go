package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateHash is returned by Insert when another issue already owns the content hash.
	ErrDuplicateHash = errors.New("content hash already exists")
	// ErrConflict is returned when any other unique key is already taken.
	ErrConflict = errors.New("unique constraint violated")
)
