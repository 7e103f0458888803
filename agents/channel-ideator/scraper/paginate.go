package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
)

// DefaultMonthsBack is used when a caller passes a non-positive window.
const DefaultMonthsBack = 2

// Session is one exclusively owned browser tab. Close must always be called.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Title() string
	ScrollToBottom(ctx context.Context) error
	ScrollHeight(ctx context.Context) (int, error)
	Cards(ctx context.Context) ([]Element, error)
	Close() error
}

// Launcher opens a fresh browser session.
type Launcher func(ctx context.Context) (Session, error)

type StopReason string

const (
	StopDateCutoff    StopReason = "date_cutoff"
	StopNoMoreContent StopReason = "no_more_content"
	StopMaxScrolls    StopReason = "max_scrolls"
	StopPassFailed    StopReason = "pass_failed"
)

// Listing is what one channel scrape produced.
type Listing struct {
	Videos []*models.Video
	// CardsSeen is the largest number of rendered cards observed in a single pass.
	CardsSeen int
	Passes    int
	Stop      StopReason
}

type Scraper struct {
	cfg    config.ScraperConfig
	launch Launcher
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a Scraper. A nil launcher means a local go-rod Chromium.
func New(cfg config.ScraperConfig, launch Launcher) *Scraper {
	if launch == nil {
		launch = NewRodLauncher(cfg)
	}
	if cfg.MaxScrolls < 1 {
		cfg.MaxScrolls = 1
	}
	return &Scraper{
		cfg:    cfg,
		launch: launch,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// VideosURL points a channel URL at its "videos" tab.
func VideosURL(channelURL string) string {
	channelURL = strings.TrimSpace(channelURL)
	if strings.HasSuffix(channelURL, "/videos") {
		return channelURL
	}
	return strings.TrimRight(channelURL, "/") + "/videos"
}

// Threshold is the oldest upload time kept for a window of monthsBack 30-day months.
func Threshold(now time.Time, monthsBack int) time.Time {
	if monthsBack < 1 {
		monthsBack = DefaultMonthsBack
	}
	return now.AddDate(0, 0, -30*monthsBack)
}

// ChannelVideos scrolls a channel's video grid, newest first, until an upload older
// than the window appears, the page stops growing, or MaxScrolls passes ran.
//
// Launch and navigation failures are returned. A failure during a scroll pass is
// logged and the videos collected so far are returned with StopPassFailed.
func (s *Scraper) ChannelVideos(ctx context.Context, channelURL string, monthsBack int) (*Listing, error) {
	session, err := s.launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("Failed to close browser session: %v", err)
		}
	}()

	videosURL := VideosURL(channelURL)
	log.Printf("Accessing channel videos at: %s", videosURL)
	if err := session.Navigate(ctx, videosURL); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", videosURL, err)
	}
	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}
	log.Printf("Page title: %s", session.Title())

	threshold := Threshold(s.now(), monthsBack)
	listing := &Listing{}
	seen := make(map[string]bool)

	lastHeight, err := session.ScrollHeight(ctx)
	if err != nil {
		return s.failPass(ctx, listing, err)
	}

	for listing.Passes < s.cfg.MaxScrolls {
		listing.Passes++

		cutoff, err := s.scanPass(ctx, session, threshold, seen, listing)
		if err != nil {
			return s.failPass(ctx, listing, err)
		}
		if cutoff {
			listing.Stop = StopDateCutoff
			log.Printf("Reached videos older than %s after %d passes", threshold.Format("2006-01-02"), listing.Passes)
			return listing, nil
		}

		newHeight, err := session.ScrollHeight(ctx)
		if err != nil {
			return s.failPass(ctx, listing, err)
		}
		if newHeight == lastHeight {
			listing.Stop = StopNoMoreContent
			return listing, nil
		}
		lastHeight = newHeight
	}

	log.Warnf("Stopped after %d scroll passes with %d videos", listing.Passes, len(listing.Videos))
	listing.Stop = StopMaxScrolls
	return listing, nil
}

// scanPass scrolls once and extracts every rendered card. It reports true when a
// card older than threshold was found; that card is not appended.
func (s *Scraper) scanPass(ctx context.Context, session Session, threshold time.Time, seen map[string]bool, listing *Listing) (bool, error) {
	if err := session.ScrollToBottom(ctx); err != nil {
		return false, fmt.Errorf("scroll: %w", err)
	}
	if err := s.sleep(ctx, s.cfg.ScrollDelay); err != nil {
		return false, err
	}

	cards, err := session.Cards(ctx)
	if err != nil {
		return false, fmt.Errorf("enumerate cards: %w", err)
	}
	if len(cards) > listing.CardsSeen {
		listing.CardsSeen = len(cards)
	}

	now := s.now()
	for _, card := range cards {
		video, ok := ExtractVideo(card)
		if !ok || seen[video.URL] {
			continue
		}
		seen[video.URL] = true

		video.PublishedAt = ParseRelativeAge(video.UploadDate, now)
		if video.PublishedAt.Before(threshold) {
			return true, nil
		}
		listing.Videos = append(listing.Videos, video)
	}
	return false, nil
}

func (s *Scraper) failPass(ctx context.Context, listing *Listing, err error) (*Listing, error) {
	listing.Stop = StopPassFailed
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return listing, err
	}
	log.Errorf("Error scraping channel videos: %v", err)
	return listing, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
