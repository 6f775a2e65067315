package query

import "errors"

var (
	// ErrNilSubquery indicates that a sub-query callback returned nil
	ErrNilSubquery = errors.New("sub-query callback returned nil")

	// ErrForeignEngine indicates that a sub-query was built on another engine
	ErrForeignEngine = errors.New("sub-query belongs to a different engine")
)
