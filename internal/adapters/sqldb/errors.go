package sqldb

import "errors"

var (
	// ErrUnsupportedDriver is returned when Open is given an unknown driver.
	ErrUnsupportedDriver = errors.New("unsupported sql driver")
	// ErrNotInitialized is returned when the database handle is nil.
	ErrNotInitialized = errors.New("database is not initialized")
)
