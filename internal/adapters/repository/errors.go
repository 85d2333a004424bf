package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("lead not found")
	ErrDuplicate    = errors.New("lead already registered")
	ErrInvalidLead  = errors.New("invalid lead")
	ErrInvalidEvent = errors.New("invalid analytics event")
)
