package transcript

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrTranscriptsDisabled is returned when the uploader turned captions off.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscriptFound is returned when no track matches the requested languages.
	ErrNoTranscriptFound = errors.New("no transcript found")
	// ErrNotTranslatable is returned when translation is requested for a track that cannot be translated.
	ErrNotTranslatable = errors.New("transcript is not translatable")
)

// Track is one caption stream offered for a video.
type Track struct {
	VideoID      string
	LanguageCode string
	Language     string
	Generated    bool
	Translatable bool
	BaseURL      string
	// TranslateTo is set on tracks returned by Provider.Translate.
	TranslateTo string
}

// Entry is a single timed caption line.
type Entry struct {
	Start    float64
	Duration float64
	Text     string
}

// Provider lists and fetches caption tracks.
type Provider interface {
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	Fetch(ctx context.Context, track Track) ([]Entry, error)
	Translate(track Track, language string) (Track, error)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID returns the 11-character id of a watch, embed or youtu.be URL.
func ExtractVideoID(videoURL string) (string, bool) {
	if videoURL == "" {
		return "", false
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(videoURL); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// FindTrack walks languages in order and returns the first match, preferring a
// manually created track over a generated one for the same language.
func FindTrack(tracks []Track, languages []string) (Track, bool) {
	for _, lang := range languages {
		for _, generated := range []bool{false, true} {
			for _, t := range tracks {
				if t.LanguageCode == lang && t.Generated == generated {
					return t, true
				}
			}
		}
	}
	return Track{}, false
}

// Flatten orders entries by start time and joins their trimmed, non-empty text
// with single spaces. The input slice is not modified.
func Flatten(entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Text < sorted[j].Text
	})

	parts := make([]string, 0, len(sorted))
	for _, e := range sorted {
		if text := strings.TrimSpace(e.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func languageCodes(tracks []Track) []string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.LanguageCode)
	}
	return codes
}
