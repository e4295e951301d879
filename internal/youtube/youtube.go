// Package youtube fetches video transcripts. YouTube exposes caption tracks
// through metadata embedded in the watch page; each track points at a
// timedtext XML document. There is no official API for this, so the package
// scrapes the same data the player uses.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/logging"
)

var (
	// ErrTranscriptsDisabled indicates the video has no caption tracks at all.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")

	// ErrNoTranscript indicates no caption track matched any usable language.
	ErrNoTranscript = errors.New("no transcript found for this video in any available language")
)

// DefaultLanguages is the preferred language order when none is given.
var DefaultLanguages = []string{"en", "es", "fr", "de", "ja", "pt", "it", "zh-Hans", "zh-Hant"}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID extracts the 11-character video ID from a bare ID or any of
// the common YouTube URL shapes (watch, youtu.be, embed, shorts).
func ParseVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if videoIDPattern.MatchString(s) {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("not a video ID or URL: %q", s)
	}

	var id string
	switch {
	case strings.HasSuffix(u.Host, "youtu.be"):
		id = strings.Trim(u.Path, "/")
	case strings.Contains(u.Path, "/embed/"):
		id = strings.TrimPrefix(u.Path, "/embed/")
	case strings.Contains(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	default:
		id = u.Query().Get("v")
	}
	id = strings.Trim(id, "/")

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("cannot extract a video ID from %q", s)
	}
	return id, nil
}

// Client fetches transcripts over HTTP.
type Client struct {
	httpClient *http.Client
	watchBase  string // overridable for tests
}

// NewClient returns a transcript client with a sane timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		watchBase:  "https://www.youtube.com/watch",
	}
}

// captionTrack mirrors one entry of the player's captionTracks metadata.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

func (t captionTrack) generated() bool { return t.Kind == "asr" }

// FetchTranscript downloads the transcript of a video, preferring the given
// language codes in order (DefaultLanguages when empty). At equal language
// rank a manually created track beats an auto-generated one; with no
// language match, any manual track is used, then any generated one.
func (c *Client) FetchTranscript(ctx context.Context, videoID string, preferred ...string) (string, error) {
	if len(preferred) == 0 {
		preferred = DefaultLanguages
	}

	tracks, err := c.listTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("video %s: %w", videoID, ErrTranscriptsDisabled)
	}

	track, ok := chooseTrack(tracks, preferred)
	if !ok {
		return "", fmt.Errorf("video %s: %w", videoID, ErrNoTranscript)
	}
	logging.L().Info("found transcript",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.Bool("generated", track.generated()))

	return c.fetchTrack(ctx, track)
}

// listTracks retrieves the watch page and extracts its caption tracks.
func (c *Client) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.watchBase+"?v="+url.QueryEscape(videoID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page for %s: %w", videoID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch watch page for %s: status %d", videoID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read watch page for %s: %w", videoID, err)
	}

	return parseCaptionTracks(string(body))
}

// parseCaptionTracks locates the captionTracks JSON array inside the watch
// page markup.
func parseCaptionTracks(page string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, nil // no captions at all
	}

	dec := json.NewDecoder(strings.NewReader(page[idx+len(marker):]))
	var tracks []captionTrack
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	return tracks, nil
}

// chooseTrack picks the best track for the preferred language order.
func chooseTrack(tracks []captionTrack, preferred []string) (captionTrack, bool) {
	langMatch := func(track captionTrack, lang string) bool {
		return track.LanguageCode == lang || strings.HasPrefix(track.LanguageCode, lang+"-")
	}

	for _, lang := range preferred {
		for _, generated := range []bool{false, true} {
			for _, t := range tracks {
				if t.generated() == generated && langMatch(t, lang) {
					return t, true
				}
			}
		}
	}

	// No preferred language available: any manual track, then any generated.
	for _, generated := range []bool{false, true} {
		for _, t := range tracks {
			if t.generated() == generated {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

// timedText is the shape of a timedtext XML transcript document.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Content string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTrack downloads and flattens one caption track into plain text.
func (c *Client) fetchTrack(ctx context.Context, track captionTrack) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	return flattenTimedText(body)
}

// flattenTimedText joins the text nodes of a timedtext document with spaces.
func flattenTimedText(data []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse transcript xml: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		s := strings.TrimSpace(strings.ReplaceAll(t.Content, "\n", " "))
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoTranscript
	}
	return strings.Join(parts, " "), nil
}
