// Package upload sends content records to the video platform.
package upload

import "context"

//go:generate mockgen -source=uploader.go -destination=mocks/uploader.go -package=mocks

// Video is everything the platform needs for one upload.
type Video struct {
	Path          string
	Title         string
	Description   string
	CategoryID    string
	PrivacyStatus string
}

// Uploader performs a single upload attempt and returns the platform id.
type Uploader interface {
	Upload(ctx context.Context, v Video) (string, error)
}
