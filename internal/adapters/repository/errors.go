package repository

import "errors"

// Sentinel kinds for upload store errors.
var (
	ErrNotFound      = errors.New("upload not found")
	ErrInvalidUpload = errors.New("invalid upload")
	ErrLoadFixtures  = errors.New("failed to load fixtures")
)
