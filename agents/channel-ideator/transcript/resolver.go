package transcript

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"channel-ideator/shared/config"
)

// Store persists flattened transcript text and returns where it was written.
type Store interface {
	Save(videoID, text string) (string, error)
}

// Transcript is a resolved, persisted transcript.
type Transcript struct {
	VideoID    string
	Path       string
	Text       string
	Language   string
	Translated bool
}

// Resolver picks the best caption track for a video and stores its text.
type Resolver struct {
	cfg      config.TranscriptsConfig
	provider Provider
	store    Store
}

func NewResolver(cfg config.TranscriptsConfig, provider Provider, store Store) *Resolver {
	return &Resolver{
		cfg:      cfg,
		provider: provider,
		store:    store,
	}
}

// Resolve never fails: every provider or storage problem is logged and reported
// as a missing transcript.
func (r *Resolver) Resolve(ctx context.Context, videoURL string) (*Transcript, bool) {
	logger := log.WithField("url", videoURL)
	if videoURL == "" {
		logger.Error("Received empty video URL")
		return nil, false
	}

	videoID, ok := ExtractVideoID(videoURL)
	if !ok {
		logger.Error("Could not extract video ID from URL")
		return nil, false
	}
	logger = logger.WithField("video_id", videoID)
	logger.Info("Attempting to download transcript")

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	tracks, err := r.provider.ListTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTranscriptsDisabled) || errors.Is(err, ErrNoTranscriptFound) {
			logger.Infof("No transcripts available: %v", err)
		} else {
			logger.Errorf("Failed to list transcripts: %v", err)
		}
		return nil, false
	}
	logger.Infof("Available transcripts: %v", languageCodes(tracks))

	track, translated, err := r.selectTrack(tracks)
	if err != nil {
		logger.Infof("Could not find or translate any transcript: %v", err)
		return nil, false
	}

	entries, err := r.provider.Fetch(ctx, track)
	if err != nil {
		logger.Errorf("Failed to fetch transcript: %v", err)
		return nil, false
	}
	logger.Infof("Fetched transcript with %d entries", len(entries))

	text := Flatten(entries)
	path, err := r.store.Save(videoID, text)
	if err != nil {
		logger.Errorf("Failed to save transcript: %v", err)
		return nil, false
	}
	logger.Infof("Saved transcript to %s", path)

	language := track.LanguageCode
	if translated {
		language = track.TranslateTo
	}
	return &Transcript{
		VideoID:    videoID,
		Path:       path,
		Text:       text,
		Language:   language,
		Translated: translated,
	}, true
}

// selectTrack applies the tiers in order: preferred languages, English variants,
// then a fallback language translated to the target language.
func (r *Resolver) selectTrack(tracks []Track) (Track, bool, error) {
	if t, ok := FindTrack(tracks, r.cfg.PreferredLanguages); ok {
		return t, false, nil
	}
	if t, ok := FindTrack(tracks, r.cfg.EnglishVariants); ok {
		return t, false, nil
	}

	t, ok := FindTrack(tracks, r.cfg.FallbackLanguages)
	if !ok {
		return Track{}, false, ErrNoTranscriptFound
	}
	translated, err := r.provider.Translate(t, r.cfg.TargetLanguage)
	if err != nil {
		return Track{}, false, err
	}
	return translated, true, nil
}
