package models

import "time"

// Video is one scraped entry of a channel's video grid.
type Video struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Views        string    `json:"views"`
	UploadDate   string    `json:"upload_date"`
	PublishedAt  time.Time `json:"published_at"`
	Duration     string    `json:"duration"`
	ThumbnailURL string    `json:"thumbnail_url"`

	// Filled by the Data API lookup when an API key is configured.
	APIViewCount    uint64 `json:"api_view_count,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// AnalysisResult is the write-once outcome of one channel analysis.
type AnalysisResult struct {
	ID                  string            `json:"id"`
	ChannelURL          string            `json:"channel_url"`
	AnalysisDate        string            `json:"analysis_date"`
	AnalyzedAt          time.Time         `json:"analyzed_at"`
	MonthsBack          int               `json:"months_back"`
	VideosAnalyzed      int               `json:"videos_analyzed"`
	VideosWithSubtitles int               `json:"videos_with_subtitles"`
	Videos              []*Video          `json:"video_data"`
	Transcripts         map[string]string `json:"transcripts"`
	GeneratedIdeas      string            `json:"generated_ideas"`

	// Artifact file names, relative to the results directory.
	CSVFile  string `json:"-"`
	JSONFile string `json:"-"`
}

// IdeasReport is what gets emailed after a scheduled analysis.
type IdeasReport struct {
	Date   time.Time       `json:"date"`
	Result *AnalysisResult `json:"result"`
	// TopVideos is the ranked video list shown under the ideas.
	TopVideos []*Video `json:"top_videos"`
}

// AnalysisSummary is the indexed, artifact-free view of a past analysis.
type AnalysisSummary struct {
	ID                  string    `json:"id"`
	ChannelURL          string    `json:"channel_url"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
	MonthsBack          int       `json:"months_back"`
	VideosAnalyzed      int       `json:"videos_analyzed"`
	VideosWithSubtitles int       `json:"videos_with_subtitles"`
	CSVFile             string    `json:"csv_file"`
	JSONFile            string    `json:"json_file"`
}
