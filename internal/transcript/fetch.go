package transcript

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.youtube.com"

// ErrNoTranscript is returned when no caption track has any text.
var ErrNoTranscript = errors.New("no transcript available")

// Fetcher retrieves caption tracks from the YouTube timed-text endpoint.
type Fetcher struct {
	baseURL   string
	languages []string
	client    *http.Client
	logger    *slog.Logger
}

func NewFetcher(baseURL string, languages []string, logger *slog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if len(languages) == 0 {
		languages = []string{"en", "en-US", "en-GB"}
	}
	return &Fetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		languages: languages,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

type timedText struct {
	Segments []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch resolves the video ID for rawURL and returns it with the joined
// transcript text. Manual tracks are tried in language order before the
// auto-generated English track.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	id, err := VideoID(rawURL)
	if err != nil {
		return "", "", err
	}
	f.logger.Info("fetching transcript", "video_id", id)

	for _, lang := range f.languages {
		text, err := f.fetchTrack(ctx, id, lang, "")
		if err != nil {
			return id, "", err
		}
		if text != "" {
			return id, text, nil
		}
	}

	text, err := f.fetchTrack(ctx, id, "en", "asr")
	if err != nil {
		return id, "", err
	}
	if text == "" {
		return id, "", fmt.Errorf("video %s: %w", id, ErrNoTranscript)
	}
	return id, text, nil
}

// fetchTrack returns "" without error when the track does not exist.
func (f *Fetcher) fetchTrack(ctx context.Context, id, lang, kind string) (string, error) {
	q := url.Values{}
	q.Set("v", id)
	q.Set("lang", lang)
	if kind != "" {
		q.Set("kind", kind)
	}
	endpoint := f.baseURL + "/api/timedtext?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript %s: status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript %s: %w", id, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse transcript %s: %w", id, err)
	}

	parts := make([]string, 0, len(tt.Segments))
	for _, s := range tt.Segments {
		if t := strings.TrimSpace(html.UnescapeString(s.Text)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
