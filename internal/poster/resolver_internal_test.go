package poster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpgradeResolution(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full size pattern with crop",
			input:    "https://a.ltrbxd.com/resized/film-poster/1/2/poster-0-230-0-345-crop.jpg",
			expected: "https://a.ltrbxd.com/resized/film-poster/1/2/poster-0-2000-0-3000-crop.jpg",
		},
		{
			name:     "full size pattern without crop",
			input:    "https://a.ltrbxd.com/resized/poster-0-150-0-225.jpg",
			expected: "https://a.ltrbxd.com/resized/poster-0-2000-0-3000-crop.jpg",
		},
		{
			name:     "width-only fallback pattern",
			input:    "https://a.ltrbxd.com/resized/poster-0-230-something.jpg",
			expected: "https://a.ltrbxd.com/resized/poster-0-2000-something.jpg",
		},
		{
			name:     "already upgraded is stable",
			input:    "https://a.ltrbxd.com/resized/poster-0-2000-0-3000-crop.jpg",
			expected: "https://a.ltrbxd.com/resized/poster-0-2000-0-3000-crop.jpg",
		},
		{
			name:     "no size pattern untouched",
			input:    "https://a.ltrbxd.com/resized/poster.jpg",
			expected: "https://a.ltrbxd.com/resized/poster.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, upgradeResolution(tt.input))
		})
	}
}

func TestCanonicalFilmURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "diary entry index stripped",
			input:    "https://letterboxd.com/user/film/parasite/2/",
			expected: "https://letterboxd.com/user/film/parasite/",
		},
		{
			name:     "plain film page unchanged",
			input:    "https://letterboxd.com/user/film/parasite/",
			expected: "https://letterboxd.com/user/film/parasite/",
		},
		{
			name:     "no trailing slash, no digit",
			input:    "https://letterboxd.com/user/film/parasite",
			expected: "https://letterboxd.com/user/film/parasite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, canonicalFilmURL(tt.input))
		})
	}
}
