package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token is not tracked as outstanding
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrBookNotFound indicates that book does not exist or belongs to another user
	ErrBookNotFound = errors.New("book not found")
)
