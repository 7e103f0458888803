package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Parse([]byte("channels: [\"https://www.youtube.com/@example\"]\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 2, cfg.MonthsBack)
	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, 5*time.Second, cfg.Scraper.SettleDelay)
	assert.Equal(t, 2*time.Second, cfg.Scraper.ScrollDelay)
	assert.Equal(t, 200, cfg.Scraper.MaxScrolls)
	assert.Equal(t, []string{"en"}, cfg.Transcripts.PreferredLanguages)
	assert.Equal(t, []string{"en-US", "en-GB"}, cfg.Transcripts.EnglishVariants)
	assert.Equal(t, []string{"es", "fr", "de", "it", "pt"}, cfg.Transcripts.FallbackLanguages)
	assert.Equal(t, "static/results", cfg.Results.Dir)
	assert.Equal(t, "data/analyses.db", cfg.Results.IndexFile)
	assert.Equal(t, 5000, cfg.API.Port)
	assert.False(t, cfg.Email.Enabled())
	assert.False(t, cfg.Mirror.Enabled())
	assert.Equal(t, "us-east-1", cfg.Mirror.Region)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	data := []byte(`
months_back: 4
scraper:
  headless: false
  settle_delay: 1s
  scroll_delay: 250ms
  max_scrolls: 10
ai:
  gemini_api_key: file-key
  max_videos: 3
  transcript_chars: 1000
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MonthsBack)
	assert.False(t, cfg.Scraper.Headless)
	assert.Equal(t, time.Second, cfg.Scraper.SettleDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.ScrollDelay)
	assert.Equal(t, 10, cfg.Scraper.MaxScrolls)
	assert.Equal(t, "file-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, 3, cfg.AI.MaxVideos)
	assert.Equal(t, 1000, cfg.AI.TranscriptChars)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Missing API key", "months_back: 2\n"},
		{"Negative months", "months_back: -1\nai: {gemini_api_key: k}\n"},
		{"Negative delay", "scraper: {scroll_delay: -1s}\nai: {gemini_api_key: k}\n"},
		{"Email without credentials", "ai: {gemini_api_key: k}\nemail: {smtp_server: smtp.test.com, to_email: a@b.c}\n"},
		{"Mirror without credentials", "ai: {gemini_api_key: k}\nmirror: {bucket: ideas}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("EMAIL_USERNAME", "")
			t.Setenv("EMAIL_PASSWORD", "")
			t.Setenv("MIRROR_ACCESS_KEY", "")
			t.Setenv("MIRROR_SECRET_KEY", "")

			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseMirrorCredentialsFromEnv(t *testing.T) {
	t.Setenv("MIRROR_ACCESS_KEY", "AKID")
	t.Setenv("MIRROR_SECRET_KEY", "secret")

	cfg, err := Parse([]byte("ai: {gemini_api_key: k}\nmirror: {bucket: ideas, endpoint: \"https://nyc3.digitaloceanspaces.com\"}\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Mirror.Enabled())
	assert.Equal(t, "AKID", cfg.Mirror.AccessKey)
	assert.Equal(t, "secret", cfg.Mirror.SecretKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: {gemini_api_key: k}\n"), 0600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.AI.GeminiAPIKey)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
