package gallery

import "errors"

// Reasons an entry is skipped.
var (
	ErrFileNotFound = errors.New("image file not found")
	ErrNoDate       = errors.New("entry has no date")
	ErrBadDate      = errors.New("invalid date")
)
