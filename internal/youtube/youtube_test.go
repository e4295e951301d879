package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short url with query", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"whitespace", "  dQw4w9WgXcQ  ", "dQw4w9WgXcQ", false},
		{"too short", "abc123", "", true},
		{"not a video url", "https://www.youtube.com/feed/subscriptions", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVideoID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVideoID(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVideoID(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVideoID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChooseTrack(t *testing.T) {
	manual := func(lang string) captionTrack {
		return captionTrack{BaseURL: "manual-" + lang, LanguageCode: lang}
	}
	auto := func(lang string) captionTrack {
		return captionTrack{BaseURL: "auto-" + lang, LanguageCode: lang, Kind: "asr"}
	}

	tests := []struct {
		name      string
		tracks    []captionTrack
		preferred []string
		wantURL   string
		wantOK    bool
	}{
		{
			name:      "exact language match",
			tracks:    []captionTrack{manual("fr"), manual("en")},
			preferred: []string{"en"},
			wantURL:   "manual-en",
			wantOK:    true,
		},
		{
			name:      "manual beats generated at same language",
			tracks:    []captionTrack{auto("en"), manual("en")},
			preferred: []string{"en"},
			wantURL:   "manual-en",
			wantOK:    true,
		},
		{
			name:      "generated used when no manual in language",
			tracks:    []captionTrack{manual("fr"), auto("en")},
			preferred: []string{"en", "fr"},
			wantURL:   "auto-en",
			wantOK:    true,
		},
		{
			name:      "region variant matches base language",
			tracks:    []captionTrack{manual("en-US")},
			preferred: []string{"en"},
			wantURL:   "manual-en-US",
			wantOK:    true,
		},
		{
			name:      "preference order wins over track order",
			tracks:    []captionTrack{manual("de"), manual("es")},
			preferred: []string{"es", "de"},
			wantURL:   "manual-es",
			wantOK:    true,
		},
		{
			name:      "fallback to any manual track",
			tracks:    []captionTrack{auto("ko"), manual("ko")},
			preferred: []string{"en"},
			wantURL:   "manual-ko",
			wantOK:    true,
		},
		{
			name:      "fallback to any generated track",
			tracks:    []captionTrack{auto("ko")},
			preferred: []string{"en"},
			wantURL:   "auto-ko",
			wantOK:    true,
		},
		{
			name:   "no tracks",
			tracks: nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := chooseTrack(tt.tracks, tt.preferred)
			if ok != tt.wantOK {
				t.Fatalf("chooseTrack ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.BaseURL != tt.wantURL {
				t.Errorf("chooseTrack = %q, want %q", got.BaseURL, tt.wantURL)
			}
		})
	}
}

func TestParseCaptionTracks(t *testing.T) {
	page := `<html>...ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":` +
		`{"captionTracks":[{"baseUrl":"https://example.com/tt?lang=en","languageCode":"en"},` +
		`{"baseUrl":"https://example.com/tt?lang=ja","languageCode":"ja","kind":"asr"}]}}};...</html>`

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		t.Fatalf("parseCaptionTracks error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].LanguageCode != "en" || tracks[0].generated() {
		t.Errorf("track 0 = %+v, want manual en", tracks[0])
	}
	if tracks[1].LanguageCode != "ja" || !tracks[1].generated() {
		t.Errorf("track 1 = %+v, want generated ja", tracks[1])
	}
}

func TestParseCaptionTracksAbsent(t *testing.T) {
	tracks, err := parseCaptionTracks("<html>no captions here</html>")
	if err != nil {
		t.Fatalf("parseCaptionTracks error: %v", err)
	}
	if tracks != nil {
		t.Errorf("got %v, want nil for page without captions", tracks)
	}
}

func TestFlattenTimedText(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello there,</text>
  <text start="2.5" dur="3.0">today we talk
about &amp; discuss Newton&#39;s laws.</text>
  <text start="5.5" dur="1.0">  </text>
</transcript>`)

	got, err := flattenTimedText(xmlDoc)
	if err != nil {
		t.Fatalf("flattenTimedText error: %v", err)
	}
	want := "Hello there, today we talk about & discuss Newton's laws."
	if got != want {
		t.Errorf("flattenTimedText = %q, want %q", got, want)
	}
}

func TestFlattenTimedTextEmpty(t *testing.T) {
	_, err := flattenTimedText([]byte(`<transcript></transcript>`))
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("got %v, want ErrNoTranscript", err)
	}
}

func TestFetchTranscript(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript><text start="0" dur="1">first part</text><text start="1" dur="1">second part</text></transcript>`)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "dQw4w9WgXcQ" {
			t.Errorf("watch page requested for %q", got)
		}
		fmt.Fprintf(w, `<html>{"captionTracks":[{"baseUrl":%q,"languageCode":"en"}]}</html>`,
			srv.URL+"/timedtext")
	})

	c := &Client{httpClient: srv.Client(), watchBase: srv.URL + "/watch"}
	got, err := c.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("FetchTranscript error: %v", err)
	}
	if got != "first part second part" {
		t.Errorf("FetchTranscript = %q", got)
	}
}

func TestFetchTranscriptDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>no caption metadata</html>`)
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), watchBase: srv.URL + "/watch"}
	_, err := c.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrTranscriptsDisabled) {
		t.Errorf("got %v, want ErrTranscriptsDisabled", err)
	}
}

func TestFetchTranscriptNoLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>{"captionTracks":[]}</html>`)
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), watchBase: srv.URL + "/watch"}
	_, err := c.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrTranscriptsDisabled) {
		t.Errorf("got %v, want ErrTranscriptsDisabled", err)
	}
}
