package user

import "errors"

var (
	ErrInvalidImportSource = errors.New("invalid import source")
	ErrInvalidRootAccount  = errors.New("invalid root account")
	ErrEnqueueImportJob    = errors.New("failed to enqueue import job")
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrUserNotFound        = errors.New("user not found")
	ErrGetUserByID         = errors.New("failed to get user by id")
	ErrOpenRecordSource    = errors.New("failed to open record source")
	ErrReadRecordSource    = errors.New("failed to read record source")
	ErrChunkTransaction    = errors.New("chunk transaction failed")
	ErrFinalizeRun         = errors.New("failed to finalize import run")
)
