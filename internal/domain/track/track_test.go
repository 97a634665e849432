package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_DisplayTitle(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "title from tags",
			track:    Track{Path: "/music/01.mp3", Title: "Blue in Green"},
			expected: "Blue in Green",
		},
		{
			name:     "falls back to file stem",
			track:    Track{Path: "/music/blue_in_green.mp3"},
			expected: "blue_in_green",
		},
		{
			name:     "file without extension",
			track:    Track{Path: "/music/untitled"},
			expected: "untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.DisplayTitle())
		})
	}
}

func TestTrack_DisplayArtist(t *testing.T) {
	tr := Track{Artist: "Miles Davis"}
	assert.Equal(t, "Miles Davis", tr.DisplayArtist())

	tr = Track{}
	assert.Equal(t, "Unknown Artist", tr.DisplayArtist())
}

func TestTrack_HasDuration(t *testing.T) {
	assert.False(t, (&Track{}).HasDuration())
	assert.True(t, (&Track{Duration: 3 * time.Minute}).HasDuration())
}
