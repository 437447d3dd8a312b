package metadata

import (
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// GetLocal reads the embedded atoms of an MP4/M4V file. Phone uploads
// usually carry at least a title; everything else is best-effort.
func GetLocal(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	var clip Clip

	if m, err := tag.ReadFrom(f); err == nil {
		clip.Title = strings.TrimSpace(m.Title())
		clip.Creator = strings.TrimSpace(m.Artist())
		if m.Year() != 0 {
			clip.Year = strconv.Itoa(m.Year())
		}
	}

	// Duration lives in the movie header, which tag does not surface.
	if _, err := f.Seek(0, 0); err == nil {
		if d, err := ReadMP4Duration(f); err == nil {
			clip.Duration = d
		}
	}

	return clip, nil
}
