package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Channels    []string          `yaml:"channels"`
	MonthsBack  int               `yaml:"months_back"`
	Schedule    string            `yaml:"schedule"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	Transcripts TranscriptsConfig `yaml:"transcripts"`
	AI          AIConfig          `yaml:"ai"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Results     ResultsConfig     `yaml:"results"`
	Mirror      MirrorConfig      `yaml:"mirror"`
	API         APIConfig         `yaml:"api"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Logging     LoggingConfig     `yaml:"logging"`
	Email       EmailConfig       `yaml:"email"`
}

type ScraperConfig struct {
	Headless    bool          `yaml:"headless"`
	BrowserBin  string        `yaml:"browser_bin"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	ScrollDelay time.Duration `yaml:"scroll_delay"`
	MaxScrolls  int           `yaml:"max_scrolls"`
}

type TranscriptsConfig struct {
	Dir                string        `yaml:"dir"`
	PreferredLanguages []string      `yaml:"preferred_languages"`
	EnglishVariants    []string      `yaml:"english_variants"`
	FallbackLanguages  []string      `yaml:"fallback_languages"`
	TargetLanguage     string        `yaml:"target_language"`
	Timeout            time.Duration `yaml:"timeout"`
}

// AIConfig is handed to the idea generator at construction time.
type AIConfig struct {
	GeminiAPIKey    string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model           string `yaml:"model"`
	MaxVideos       int    `yaml:"max_videos"`
	TranscriptChars int    `yaml:"transcript_chars"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
}

type ResultsConfig struct {
	Dir           string        `yaml:"dir"`
	IndexFile     string        `yaml:"index_file"`
	HistoryFile   string        `yaml:"history_file"`
	HistoryMaxAge time.Duration `yaml:"history_max_age"`
}

// MirrorConfig points at an S3-compatible bucket that receives a copy of every
// artifact. Leaving the bucket empty disables mirroring.
type MirrorConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key" env:"MIRROR_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MIRROR_SECRET_KEY"`
}

func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

type APIConfig struct {
	Port              int `yaml:"port"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough of the SMTP settings are present to send reports.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return Parse(data)
}

// Parse decodes YAML config, applies environment fallbacks and defaults, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Scraper: ScraperConfig{Headless: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.Mirror.AccessKey == "" {
		cfg.Mirror.AccessKey = os.Getenv("MIRROR_ACCESS_KEY")
	}
	if cfg.Mirror.SecretKey == "" {
		cfg.Mirror.SecretKey = os.Getenv("MIRROR_SECRET_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MonthsBack == 0 {
		c.MonthsBack = 2
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}

	if c.Scraper.SettleDelay == 0 {
		c.Scraper.SettleDelay = 5 * time.Second
	}
	if c.Scraper.ScrollDelay == 0 {
		c.Scraper.ScrollDelay = 2 * time.Second
	}
	if c.Scraper.MaxScrolls == 0 {
		c.Scraper.MaxScrolls = 200
	}

	if c.Transcripts.Dir == "" {
		c.Transcripts.Dir = "subtitles"
	}
	if len(c.Transcripts.PreferredLanguages) == 0 {
		c.Transcripts.PreferredLanguages = []string{"en"}
	}
	if len(c.Transcripts.EnglishVariants) == 0 {
		c.Transcripts.EnglishVariants = []string{"en-US", "en-GB"}
	}
	if len(c.Transcripts.FallbackLanguages) == 0 {
		c.Transcripts.FallbackLanguages = []string{"es", "fr", "de", "it", "pt"}
	}
	if c.Transcripts.TargetLanguage == "" {
		c.Transcripts.TargetLanguage = "en"
	}
	if c.Transcripts.Timeout == 0 {
		c.Transcripts.Timeout = 30 * time.Second
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.MaxVideos == 0 {
		c.AI.MaxVideos = 100
	}
	if c.AI.TranscriptChars == 0 {
		c.AI.TranscriptChars = 1000000
	}

	if c.Results.Dir == "" {
		c.Results.Dir = "static/results"
	}
	if c.Results.IndexFile == "" {
		c.Results.IndexFile = "data/analyses.db"
	}
	if c.Results.HistoryFile == "" {
		c.Results.HistoryFile = "data/analyzed_channels.json"
	}
	if c.Results.HistoryMaxAge == 0 {
		c.Results.HistoryMaxAge = 7 * 24 * time.Hour
	}

	if c.Mirror.Region == "" {
		c.Mirror.Region = "us-east-1"
	}

	if c.API.Port == 0 {
		c.API.Port = 5000
	}
	if c.API.RequestsPerMinute == 0 {
		c.API.RequestsPerMinute = 6
	}
	if c.API.Burst == 0 {
		c.API.Burst = 2
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.MonthsBack < 1 {
		return fmt.Errorf("months_back must be at least 1, got %d", c.MonthsBack)
	}
	if c.Scraper.SettleDelay < 0 || c.Scraper.ScrollDelay < 0 {
		return fmt.Errorf("scraper delays must not be negative")
	}
	if c.Scraper.MaxScrolls < 1 {
		return fmt.Errorf("scraper.max_scrolls must be at least 1, got %d", c.Scraper.MaxScrolls)
	}
	if c.AI.MaxVideos < 0 || c.AI.TranscriptChars < 0 {
		return fmt.Errorf("ai.max_videos and ai.transcript_chars must not be negative")
	}
	if c.Mirror.Enabled() && (c.Mirror.AccessKey == "" || c.Mirror.SecretKey == "") {
		return fmt.Errorf("mirror credentials are required when mirror.bucket is set (set MIRROR_ACCESS_KEY and MIRROR_SECRET_KEY)")
	}
	if c.Email.Enabled() && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("Email credentials are required when email is configured (set EMAIL_USERNAME and EMAIL_PASSWORD)")
	}
	return nil
}
