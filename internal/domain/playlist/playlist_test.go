package playlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/qplay/internal/domain/track"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `#EXTM3U
#EXTINF:180,Miles Davis - So What

so_what.mp3
/music/blue_in_green.flac
sub/freddie.mp3
`
	path := filepath.Join(dir, "jazz.m3u")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	paths, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "so_what.mp3"),
		"/music/blue_in_green.flac",
		filepath.Join(dir, "sub", "freddie.mp3"),
	}, paths)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("/nonexistent/list.m3u")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.m3u")

	tracks := []track.Track{
		{Path: "/music/a.mp3", Title: "A", Artist: "Artist", Duration: 181 * time.Second},
		{Path: "/music/b.flac"}, // no metadata, no EXTINF line
	}
	require.NoError(t, Save(path, tracks))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#EXTM3U")
	assert.Contains(t, string(data), "#EXTINF:181,Artist - A")

	paths, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/music/a.mp3", "/music/b.flac"}, paths)
}
