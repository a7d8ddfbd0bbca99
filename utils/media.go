// minber/utils/media.go
package utils

import (
	"net/url"
	"path"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsValidImageURL reports whether a URL plausibly points at an image:
// an http(s) URL whose path carries a known image extension, or one of
// our own upload paths.
func IsValidImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/uploads/") {
		return imageExtensions[strings.ToLower(path.Ext(raw))]
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// IsValidVideoURL reports whether a URL is an upload path with a video
// extension or a link to a supported video host.
func IsValidVideoURL(raw string) bool {
	if strings.HasPrefix(raw, "/uploads/") {
		ext := strings.ToLower(path.Ext(raw))
		return ext == ".mp4" || ext == ".webm" || ext == ".mov"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "youtu.be", "vimeo.com", "player.vimeo.com":
		return true
	}
	ext := strings.ToLower(path.Ext(u.Path))
	return ext == ".mp4" || ext == ".webm" || ext == ".mov"
}

// ConvertToEmbedURL rewrites a YouTube or Vimeo page URL into its
// embeddable player URL. URLs that are already embeddable, or that
// belong to no known host, pass through unchanged.
func ConvertToEmbedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			return raw
		}
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return "https://www.youtube.com/embed/" + strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	case "vimeo.com":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "https://player.vimeo.com/video/" + id
		}
	}
	return raw
}
