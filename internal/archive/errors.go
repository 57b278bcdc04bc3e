package archive

import "errors"

var (
	// ErrPersist is returned when the registry could not be saved. The run
	// halts immediately; nothing further is uploaded or marked.
	ErrPersist = errors.New("registry persistence failed")

	// ErrInbox is returned when the inbox directory cannot be listed.
	ErrInbox = errors.New("inbox unavailable")
)
