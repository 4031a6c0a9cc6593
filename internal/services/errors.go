package services

import "errors"

// ErrNotFound is returned when an entity does not exist or belongs to a
// different user. The two cases are deliberately indistinguishable so that
// ownership is never leaked through status codes.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint would be violated
// (duplicate email, duplicate attendance mark, duplicate budget month).
var ErrConflict = errors.New("already exists")

// ErrValidation is returned when a request is missing a required field or
// carries a value outside its allowed set.
var ErrValidation = errors.New("is required")
