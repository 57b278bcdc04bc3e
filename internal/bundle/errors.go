package bundle

import "errors"

var (
	// ErrCorruptBundle indicates the archive cannot be opened or read.
	ErrCorruptBundle = errors.New("corrupt bundle")

	// ErrMissingMetadata indicates no usable metadata file was found.
	ErrMissingMetadata = errors.New("metadata file not found")

	// ErrMissingMediaDirectory indicates no directory holds media of a known extension.
	ErrMissingMediaDirectory = errors.New("media directory not found")

	// ErrMalformedEntry indicates a metadata entry has no resolvable media or identifier.
	ErrMalformedEntry = errors.New("malformed metadata entry")

	// ErrPathTraversal indicates an archive entry would escape the extraction root.
	ErrPathTraversal = errors.New("path traversal detected")
)
