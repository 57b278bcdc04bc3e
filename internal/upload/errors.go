package upload

import "errors"

// Sentinel errors for the upload package.
var (
	// ErrMissingMediaFile is returned when a record's media file is not in the bundle.
	ErrMissingMediaFile = errors.New("media file missing")

	// ErrUploadFailed is returned when the platform rejected or failed an upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrAuth is returned when the platform rejected the credentials.
	ErrAuth = errors.New("upload not authorized")

	// ErrQuotaExceeded is returned when the platform's own upload quota is used up.
	ErrQuotaExceeded = errors.New("upload quota exceeded")
)
