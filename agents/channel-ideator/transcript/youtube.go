package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWatchBase = "https://www.youtube.com"
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// playerResponseMarker marks the start of the player JSON embedded in a watch page.
	playerResponseMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 * 1024 * 1024
	maxTimedTextBytes = 2 * 1024 * 1024
)

var tagRE = regexp.MustCompile(`<[^>]*>`)

// WatchPageProvider reads caption tracks from a video's watch page and fetches
// them from the timedtext endpoint the page links to.
type WatchPageProvider struct {
	client  *http.Client
	baseURL string
}

func NewWatchPageProvider(timeout time.Duration) *WatchPageProvider {
	return &WatchPageProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultWatchBase,
	}
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
	Name           struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (c captionTrack) displayName() string {
	if c.Name.SimpleText != "" {
		return c.Name.SimpleText
	}
	var parts []string
	for _, r := range c.Name.Runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, "")
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

func (p *WatchPageProvider) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	watchURL := p.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := p.get(ctx, watchURL, maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, fmt.Errorf("player response not found in watch page")
	}

	// Decode stops after the first complete JSON value, ignoring the trailing script.
	var resp playerResponse
	if err := json.NewDecoder(bytes.NewReader(body[idx+len(playerResponseMarker):])).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if resp.Captions == nil {
		if resp.PlayabilityStatus != nil && resp.PlayabilityStatus.Status != "" && resp.PlayabilityStatus.Status != "OK" {
			return nil, fmt.Errorf("video unplayable (%s): %s", resp.PlayabilityStatus.Status, resp.PlayabilityStatus.Reason)
		}
		return nil, ErrTranscriptsDisabled
	}

	var tracks []Track
	for _, ct := range resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		// Tracks marked exp=xpe need a proof-of-origin token only a browser can mint.
		if ct.BaseURL == "" || strings.Contains(ct.BaseURL, "&exp=xpe") {
			continue
		}
		tracks = append(tracks, Track{
			VideoID:      videoID,
			LanguageCode: ct.LanguageCode,
			Language:     ct.displayName(),
			Generated:    ct.Kind == "asr",
			Translatable: ct.IsTranslatable,
			BaseURL:      strings.Replace(ct.BaseURL, "&fmt=srv3", "", 1),
		})
	}
	if len(tracks) == 0 {
		return nil, ErrNoTranscriptFound
	}
	return tracks, nil
}

func (p *WatchPageProvider) Translate(track Track, language string) (Track, error) {
	if !track.Translatable {
		return Track{}, fmt.Errorf("%s: %w", track.LanguageCode, ErrNotTranslatable)
	}
	track.TranslateTo = language
	track.BaseURL = track.BaseURL + "&tlang=" + url.QueryEscape(language)
	return track, nil
}

func (p *WatchPageProvider) Fetch(ctx context.Context, track Track) ([]Entry, error) {
	body, err := p.get(ctx, track.BaseURL, maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	entries := make([]Entry, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		entries = append(entries, Entry{
			Start:    start,
			Duration: dur,
			Text:     tagRE.ReplaceAllString(html.UnescapeString(line.Text), ""),
		})
	}
	return entries, nil
}

func (p *WatchPageProvider) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
