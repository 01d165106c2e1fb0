package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrAlreadyExists indicates an insert collided with an existing record.
var ErrAlreadyExists = errors.New("repository: already exists")
