package channelideator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"channel-ideator/agents/channel-ideator/scraper"
	"channel-ideator/agents/channel-ideator/transcript"
	"channel-ideator/agents/channel-ideator/youtube"
	"channel-ideator/internal/models"
	"channel-ideator/shared/ai"
	"channel-ideator/shared/config"
	"channel-ideator/shared/email"
	"channel-ideator/shared/scheduler"
	"channel-ideator/shared/storage"
)

var (
	ErrChannelURLRequired = errors.New("Channel URL is required")
	ErrNoVideosFound      = errors.New("No videos found")
)

type VideoLister interface {
	ChannelVideos(ctx context.Context, channelURL string, monthsBack int) (*scraper.Listing, error)
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, videoURL string) (*transcript.Transcript, bool)
}

type IdeaGenerator interface {
	Generate(ctx context.Context, videos []*models.Video, transcripts map[string]string) string
}

// ArtifactWriter persists a finished result and resolves artifact names to paths.
type ArtifactWriter interface {
	Write(result *models.AnalysisResult) error
	Path(name string) (string, error)
}

type StatsEnricher interface {
	Enrich(ctx context.Context, videos []*models.Video) (int, error)
}

type ReportSender interface {
	SendReport(report *models.IdeasReport) error
}

// AnalysisIndex lists finished analyses.
type AnalysisIndex interface {
	Record(ctx context.Context, result *models.AnalysisResult) error
	Recent(ctx context.Context, channelURL string, limit int) ([]models.AnalysisSummary, error)
}

// ArtifactMirror copies a persisted artifact to remote storage.
type ArtifactMirror interface {
	Upload(ctx context.Context, name, localPath string) error
}

type ChannelHistory interface {
	IsAnalyzed(channelURL string) bool
	MarkAnalyzed(channelURL string) error
	Count() int
}

// IdeatorMetrics is what one scheduled run over the channel list produced.
type IdeatorMetrics struct {
	ChannelsAnalyzed int `json:"channels_analyzed"`
	ChannelsSkipped  int `json:"channels_skipped"`
	ChannelsFailed   int `json:"channels_failed"`
	VideosScraped    int `json:"videos_scraped"`
	Transcripts      int `json:"transcripts"`
	EmailsSent       int `json:"emails_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m IdeatorMetrics) GetSummary() string {
	return fmt.Sprintf("%d channels analyzed (%d skipped, %d failed), %d videos, %d transcripts, %d emails sent",
		m.ChannelsAnalyzed, m.ChannelsSkipped, m.ChannelsFailed, m.VideosScraped, m.Transcripts, m.EmailsSent)
}

// ChannelAgent runs the scrape, transcript and ideas pipeline for one channel at a
// time. It implements scheduler.Agent over the configured channel list.
type ChannelAgent struct {
	config *config.Config

	lister   VideoLister
	resolver TranscriptResolver
	ideas    IdeaGenerator
	writer   ArtifactWriter
	enricher StatsEnricher
	sender   ReportSender
	index    AnalysisIndex
	mirror   ArtifactMirror
	history  ChannelHistory

	now   func() time.Time
	newID func() string
}

func NewChannelAgent(cfg *config.Config) *ChannelAgent {
	return &ChannelAgent{
		config: cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (a *ChannelAgent) Name() string {
	return "Channel Ideator"
}

// Initialize builds every collaborator that was not injected beforehand. The Data
// API client and the email sender are only created when configured.
func (a *ChannelAgent) Initialize() error {
	log.Printf("Initializing %s...", a.Name())
	ctx := context.Background()

	if a.lister == nil {
		a.lister = scraper.New(a.config.Scraper, nil)
		log.Println("Browser scraper initialized")
	}

	if a.resolver == nil {
		store, err := storage.NewTranscriptStore(a.config.Transcripts.Dir)
		if err != nil {
			return fmt.Errorf("failed to create transcript store: %w", err)
		}
		provider := transcript.NewWatchPageProvider(a.config.Transcripts.Timeout)
		a.resolver = transcript.NewResolver(a.config.Transcripts, provider, store)
		log.Println("Transcript resolver initialized")
	}

	if a.ideas == nil {
		gen, err := ai.NewGeminiGenerator(ctx, a.config.AI)
		if err != nil {
			return fmt.Errorf("failed to create Gemini generator: %w", err)
		}
		a.ideas = ai.NewIdeaGenerator(a.config.AI, gen)
		log.Printf("Idea generator initialized (model %s)", a.config.AI.Model)
	}

	if a.writer == nil {
		writer, err := storage.NewArtifactWriter(a.config.Results.Dir)
		if err != nil {
			return fmt.Errorf("failed to create artifact writer: %w", err)
		}
		a.writer = writer
		log.Println("Artifact writer initialized")
	}

	if a.index == nil {
		index, err := storage.OpenAnalysisIndex(a.config.Results.IndexFile)
		if err != nil {
			return fmt.Errorf("failed to open analysis index: %w", err)
		}
		a.index = index
		log.Printf("Analysis index initialized (%s)", a.config.Results.IndexFile)
	}

	if a.mirror == nil && a.config.Mirror.Enabled() {
		mirror, err := storage.NewArtifactMirror(ctx, a.config.Mirror)
		if err != nil {
			return fmt.Errorf("failed to create artifact mirror: %w", err)
		}
		a.mirror = mirror
		log.Printf("Artifact mirror initialized (bucket %s)", a.config.Mirror.Bucket)
	}

	if a.enricher == nil && a.config.YouTube.APIKey != "" {
		client, err := youtube.NewClient(ctx, a.config.YouTube)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}
		a.enricher = client
		log.Println("YouTube Data API client initialized")
	}

	if a.sender == nil && a.config.Email.Enabled() {
		a.sender = email.NewSender(&a.config.Email)
		log.Println("Email sender initialized")
	}

	if a.history == nil {
		tracker, err := storage.NewChannelTracker(a.config.Results.HistoryFile, a.config.Results.HistoryMaxAge)
		if err != nil {
			return fmt.Errorf("failed to create channel tracker: %w", err)
		}
		a.history = tracker
		log.Printf("Channel tracker initialized (%d channels tracked)", tracker.Count())
	}

	return nil
}

// Analyze scrapes the channel's videos from the last monthsBack months, resolves
// their transcripts, generates ideas and persists the result. A non-positive
// monthsBack uses the configured default.
func (a *ChannelAgent) Analyze(ctx context.Context, channelURL string, monthsBack int) (*models.AnalysisResult, error) {
	channelURL = strings.TrimSpace(channelURL)
	if channelURL == "" {
		return nil, ErrChannelURLRequired
	}
	if monthsBack < 1 {
		monthsBack = a.config.MonthsBack
	}

	logger := log.WithField("channel", channelURL)
	logger.Infof("Starting analysis (months back: %d)", monthsBack)

	listing, err := a.lister.ChannelVideos(ctx, channelURL, monthsBack)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape channel videos: %w", err)
	}
	if listing.CardsSeen == 0 {
		return nil, ErrNoVideosFound
	}

	videos := listing.Videos
	if videos == nil {
		videos = []*models.Video{}
	}
	logger.Infof("Found %d videos in the last %d months (%d passes, stop: %s)",
		len(videos), monthsBack, listing.Passes, listing.Stop)

	for _, v := range videos {
		if id, ok := transcript.ExtractVideoID(v.URL); ok {
			v.ID = id
		}
	}
	a.enrich(ctx, videos)

	transcripts := make(map[string]string)
	for i, v := range videos {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis canceled: %w", err)
		}
		logger.Infof("Processing video %d/%d: %s", i+1, len(videos), v.Title)

		t, ok := a.resolver.Resolve(ctx, v.URL)
		if !ok {
			continue
		}
		transcripts[v.URL] = t.Text
	}
	logger.Infof("Downloaded transcripts for %d of %d videos", len(transcripts), len(videos))

	ideas := a.ideas.Generate(ctx, videos, transcripts)

	now := a.now()
	result := &models.AnalysisResult{
		ID:                  a.newID(),
		ChannelURL:          channelURL,
		AnalysisDate:        now.Format(storage.TimestampLayout),
		AnalyzedAt:          now,
		MonthsBack:          monthsBack,
		VideosAnalyzed:      len(videos),
		VideosWithSubtitles: len(transcripts),
		Videos:              videos,
		Transcripts:         transcripts,
		GeneratedIdeas:      ideas,
	}

	if err := a.writer.Write(result); err != nil {
		return nil, fmt.Errorf("failed to save analysis results: %w", err)
	}
	if a.index != nil {
		if err := a.index.Record(ctx, result); err != nil {
			logger.Warnf("Failed to index analysis: %v", err)
		}
	}
	a.mirrorArtifacts(ctx, result)
	logger.WithFields(log.Fields{
		"csv_file":  result.CSVFile,
		"json_file": result.JSONFile,
	}).Info("Analysis complete")

	return result, nil
}

// enrich fills exact view counts and durations when a Data API client is set.
// Failures only cost the extra fields.
func (a *ChannelAgent) enrich(ctx context.Context, videos []*models.Video) {
	if a.enricher == nil || len(videos) == 0 {
		return
	}
	updated, err := a.enricher.Enrich(ctx, videos)
	if err != nil {
		log.Warnf("Failed to enrich videos with Data API statistics: %v", err)
		return
	}
	log.Infof("Enriched %d/%d videos with Data API statistics", updated, len(videos))
}

// mirrorArtifacts uploads both artifacts when a mirror is configured. The local
// copies stay authoritative, so failures are only logged.
func (a *ChannelAgent) mirrorArtifacts(ctx context.Context, result *models.AnalysisResult) {
	if a.mirror == nil {
		return
	}
	for _, name := range []string{result.CSVFile, result.JSONFile} {
		path, err := a.writer.Path(name)
		if err != nil {
			log.Warnf("Failed to resolve artifact %s: %v", name, err)
			continue
		}
		if err := a.mirror.Upload(ctx, name, path); err != nil {
			log.Warnf("Failed to mirror %s: %v", name, err)
		}
	}
}

// Close releases the analysis index.
func (a *ChannelAgent) Close() error {
	if c, ok := a.index.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ArtifactPath resolves a persisted artifact name inside the results directory.
func (a *ChannelAgent) ArtifactPath(name string) (string, error) {
	return a.writer.Path(name)
}

// RecentAnalyses lists past analyses, newest first. An empty channelURL lists all
// channels.
func (a *ChannelAgent) RecentAnalyses(ctx context.Context, channelURL string, limit int) ([]models.AnalysisSummary, error) {
	if a.index == nil {
		return []models.AnalysisSummary{}, nil
	}
	return a.index.Recent(ctx, strings.TrimSpace(channelURL), limit)
}

// RunOnce analyzes every configured channel that was not analyzed recently. One
// failed channel is a partial failure; the run fails only when no channel succeeded.
func (a *ChannelAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := IdeatorMetrics{}
	var failures []error

	for i, channelURL := range a.config.Channels {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run canceled: %w", err)
		}
		if a.history != nil && a.history.IsAnalyzed(channelURL) {
			log.Printf("Skipping %s (analyzed recently)", channelURL)
			metrics.ChannelsSkipped++
			continue
		}

		log.Printf("Analyzing channel %d/%d: %s", i+1, len(a.config.Channels), channelURL)
		result, err := a.Analyze(ctx, channelURL, a.config.MonthsBack)
		if err != nil {
			log.Errorf("Failed to analyze %s: %v", channelURL, err)
			metrics.ChannelsFailed++
			failures = append(failures, fmt.Errorf("%s: %w", channelURL, err))
			continue
		}

		metrics.ChannelsAnalyzed++
		metrics.VideosScraped += result.VideosAnalyzed
		metrics.Transcripts += result.VideosWithSubtitles

		if a.history != nil {
			if err := a.history.MarkAnalyzed(channelURL); err != nil {
				log.Warnf("Failed to mark %s as analyzed: %v", channelURL, err)
			}
		}

		if a.sender == nil {
			continue
		}
		report := &models.IdeasReport{
			Date:      a.now(),
			Result:    result,
			TopVideos: ai.Rank(result.Videos),
		}
		if err := a.sender.SendReport(report); err != nil {
			log.Errorf("Failed to send report for %s: %v", channelURL, err)
			failures = append(failures, fmt.Errorf("failed to send email report for %s: %w", channelURL, err))
			continue
		}
		metrics.EmailsSent++
		log.Printf("Email report sent for %s", channelURL)
	}

	duration := time.Since(startTime)
	if metrics.ChannelsAnalyzed == 0 && metrics.ChannelsFailed > 0 {
		return fmt.Errorf("all %d channel analyses failed: %w", metrics.ChannelsFailed, errors.Join(failures...))
	}

	if len(failures) > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(errors.Join(failures...), duration)
	}
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	log.Printf("Channel ideator run complete: %s", metrics.GetSummary())
	return nil
}
