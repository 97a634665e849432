// Package playlist provides M3U playlist import and export for the queue.
package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/qplay/internal/domain/track"
)

// Load parses an M3U/M3U8 playlist and returns the referenced file paths in
// order. Comment and blank lines are skipped; relative entries are resolved
// against the playlist's directory. Whether each entry is actually playable
// is the caller's concern (it runs the decode probe on add).
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open playlist %s", path)
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	var paths []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(baseDir, line)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read playlist %s", path)
	}

	return paths, nil
}

// Save writes the tracks as an extended M3U playlist.
func Save(path string, tracks []track.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create playlist %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "#EXTM3U")
	for _, t := range tracks {
		if t.HasDuration() {
			fmt.Fprintf(w, "#EXTINF:%d,%s - %s\n", int(t.Duration.Round(time.Second).Seconds()), t.DisplayArtist(), t.DisplayTitle())
		}
		fmt.Fprintln(w, t.Path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write playlist %s", path)
	}
	return nil
}
