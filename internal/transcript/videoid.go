package transcript

import (
	"fmt"
	"net/url"
	"strings"
)

// VideoID extracts the YouTube video ID from watch, youtu.be, shorts, embed
// and /v/ URLs.
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	host := strings.ToLower(u.Hostname())

	if host == "youtu.be" {
		if id := firstSegment(u.Path); id != "" {
			return id, nil
		}
	}

	if host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") {
		if v := u.Query().Get("v"); v != "" {
			return v, nil
		}
		parts := strings.Split(u.Path, "/")
		for i, p := range parts {
			if (p == "shorts" || p == "embed" || p == "v") && i+1 < len(parts) && parts[i+1] != "" {
				return parts[i+1], nil
			}
		}
	}

	return "", fmt.Errorf("cannot extract video id from url %q", rawURL)
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
