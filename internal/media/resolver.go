// Package media maps stored media locators to clip files in the local clip directory.
package media

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const videoExtension = ".mp4"

// IsVideoHost reports whether the locator points to a video-hosting page rather than a file.
func IsVideoHost(locator string) bool {
	return strings.Contains(locator, "youtube.com") || strings.Contains(locator, "youtu.be")
}

// Filename derives the clip filename for a locator without touching the filesystem.
//
//	https://youtu.be/<id>                 -> <id>.mp4
//	https://www.youtube.com/watch?v=<id>  -> <id>.mp4
//	https://host/path/clip.mp4?x=1        -> clip.mp4
func Filename(locator string) (string, bool) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", false
	}

	var name string
	switch {
	case strings.Contains(locator, "youtu.be"):
		name = lastSegment(locator)
		if name != "" {
			name += videoExtension
		}
	case strings.Contains(locator, "youtube.com"):
		name = videoID(locator)
		if name != "" {
			name += videoExtension
		}
	default:
		name = lastSegment(locator)
	}

	if name == "" || name == "." || name == ".." {
		return "", false
	}
	return name, true
}

func lastSegment(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}

func videoID(locator string) string {
	if u, err := url.Parse(locator); err == nil {
		if id := u.Query().Get("v"); id != "" {
			return id
		}
	}
	i := strings.LastIndex(locator, "v=")
	if i < 0 {
		return ""
	}
	id := locator[i+len("v="):]
	if j := strings.IndexAny(id, "&#"); j >= 0 {
		id = id[:j]
	}
	return id
}

// ClipStore is the directory holding downloaded sign clips.
type ClipStore struct {
	dir string
}

func NewClipStore(dir string) *ClipStore {
	return &ClipStore{dir: dir}
}

func (s *ClipStore) Dir() string {
	return s.dir
}

// Path returns where the clip for locator is stored, whether or not it exists.
func (s *ClipStore) Path(locator string) (string, bool) {
	name, ok := Filename(locator)
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

// Lookup returns the clip path for locator only if the clip exists.
func (s *ClipStore) Lookup(locator string) (string, bool) {
	p, ok := s.Path(locator)
	if !ok {
		return "", false
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
