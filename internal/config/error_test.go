package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	const path = "/etc/archivist/config.toml"

	tests := []struct {
		name    string
		err     *Error
		want    []string
		notWant []string
	}{
		{
			name: "empty",
			err:  &Error{Path: path},
		},
		{
			name:    "missing vars",
			err:     &Error{Path: path, Missing: []string{"BUCKET_NAME", "IMAGES_DIR"}},
			want:    []string{path + ": missing environment variables: BUCKET_NAME, IMAGES_DIR"},
			notWant: []string{"validation failed"},
		},
		{
			name: "validation",
			err:  &Error{Errors: []string{"limits.max_per_day: must be at least 1", "youtube.privacy: invalid"}},
			want: []string{"validation failed:\n  - limits.max_per_day: must be at least 1\n  - youtube.privacy: invalid"},
		},
		{
			name: "both",
			err:  &Error{Path: path, Missing: []string{"BUCKET_NAME"}, Errors: []string{"log.level: invalid"}},
			want: []string{"missing environment variables: BUCKET_NAME\nvalidation failed:", "log.level: invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				assert.False(t, tt.err.HasErrors())
				return
			}
			assert.True(t, tt.err.HasErrors())
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, got, w)
			}
		})
	}
}
