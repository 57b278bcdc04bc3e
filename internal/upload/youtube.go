package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"uploadLimitExceeded": true,
	"rateLimitExceeded":   true,
}

// YouTubeUploader uploads through the YouTube Data API.
type YouTubeUploader struct {
	svc *youtube.Service
	log *slog.Logger
}

// NewYouTubeUploader creates an uploader that sends requests with client.
// Extra options (an endpoint override, for instance) are passed to the service.
func NewYouTubeUploader(ctx context.Context, client *http.Client, log *slog.Logger, opts ...option.ClientOption) (*YouTubeUploader, error) {
	if log == nil {
		log = slog.Default()
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTubeUploader{
		svc: svc,
		log: log.With("component", "youtube"),
	}, nil
}

// Upload sends v in a single non-resumable request.
func (u *YouTubeUploader) Upload(ctx context.Context, v Video) (string, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingMediaFile, err)
	}
	defer func() { _ = f.Close() }()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
			CategoryId:  v.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: v.PrivacyStatus,
		},
	}

	u.log.Debug("inserting video", "title", v.Title, "privacy", v.PrivacyStatus)

	resp, err := u.svc.Videos.
		Insert([]string{"snippet", "status"}, video).
		Media(f, googleapi.ChunkSize(0)).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(err)
	}
	if resp.Id == "" {
		return "", fmt.Errorf("%w: response carried no video id", ErrUploadFailed)
	}

	u.log.Debug("video inserted", "video_id", resp.Id)
	return resp.Id, nil
}

// classify maps API errors onto the package sentinels.
func classify(err error) error {
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return fmt.Errorf("%w: token refresh: %v", ErrAuth, err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	for _, item := range apiErr.Errors {
		if quotaReasons[item.Reason] {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, item.Reason)
		}
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %d %s", ErrAuth, apiErr.Code, apiErr.Message)
	default:
		return fmt.Errorf("%w: %d %s", ErrUploadFailed, apiErr.Code, apiErr.Message)
	}
}
