package core

import "errors"

// Validation errors. They are returned before any storage access.
var (
	ErrEmptyContent   = errors.New("content is empty")
	ErrContentTooLong = errors.New("content exceeds the board limit")
	ErrBoardClosed    = errors.New("the plaza is closed")
)

// Lookup and storage errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrKeyNotFound = errors.New("storage key not found")
	ErrInvalidKey  = errors.New("invalid storage key")
	ErrStorage     = errors.New("storage fault")
)
