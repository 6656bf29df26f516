package user

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrUserNotFound  = errors.New("user not found")
	ErrNotUserCSV    = errors.New("source is not a user file")
)
