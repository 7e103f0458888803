package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	args := m.Called(ctx, prompt)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

func TestParseViewCount(t *testing.T) {
	tests := []struct {
		views string
		want  uint64
	}{
		{"100K", 100000},
		{"100k", 100000},
		{"2.5M", 25000000},
		{"1.2K", 12000},
		{"1,234", 1234},
		{"987", 987},
		{"0", 0},
		{"", 0},
		{"No", 0},
		{"99999999999999999999999", ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.views, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseViewCount(tt.views))
		})
	}
}

func TestRankIsStableAndDescending(t *testing.T) {
	a := &models.Video{Title: "a", Views: "10K"}
	b := &models.Video{Title: "b", Views: "2.5M"}
	c := &models.Video{Title: "c", Views: "10000"}
	d := &models.Video{Title: "d", Views: "0"}
	input := []*models.Video{a, b, c, d}

	ranked := Rank(input)
	assert.Equal(t, []*models.Video{b, a, c, d}, ranked)
	assert.Equal(t, []*models.Video{a, b, c, d}, input, "input order must be preserved")
}

func testVideos() ([]*models.Video, map[string]string) {
	videos := []*models.Video{
		{Title: "Small", URL: "u1", Views: "900", Duration: "3:00", UploadDate: "1 day ago"},
		{Title: "Big", URL: "u2", Views: "1.2M", Duration: "10:00", UploadDate: "2 weeks ago"},
		{Title: "Medium", URL: "u3", Views: "50K", Duration: "5:00", UploadDate: "3 days ago"},
	}
	transcripts := map[string]string{
		"u1": "small talk",
		"u2": "héllo wörld and more",
	}
	return videos, transcripts
}

func TestBuildPrompt(t *testing.T) {
	videos, transcripts := testVideos()
	g := NewIdeaGenerator(config.AIConfig{MaxVideos: 5, TranscriptChars: 11}, nil)

	prompt, included := g.BuildPrompt(videos, transcripts)
	assert.Equal(t, 2, included)

	assert.True(t, strings.HasPrefix(prompt, "Analyze this YouTube channel's content performance"))
	assert.Contains(t, prompt, "Title: Big\nViews: 1.2M\nDuration: 10:00\nUpload Date: 2 weeks ago\nHas Subtitles: Yes\n\nTitle: Medium")
	assert.Contains(t, prompt, "Title: Medium\nViews: 50K\nDuration: 5:00\nUpload Date: 3 days ago\nHas Subtitles: No\n")

	assert.Contains(t, prompt, "\nSubtitle content for 'Big':\nhéllo wörld...\n")
	assert.Contains(t, prompt, "\nSubtitle content for 'Small':\nsmall talk\n")
	assert.Less(t, strings.Index(prompt, "'Big'"), strings.Index(prompt, "'Small'"))
	assert.Contains(t, prompt, "5. Strategic recommendations for video duration and upload timing")
}

func TestBuildPromptCapsExcerpts(t *testing.T) {
	videos, transcripts := testVideos()
	g := NewIdeaGenerator(config.AIConfig{MaxVideos: 1, TranscriptChars: 1000}, nil)

	prompt, included := g.BuildPrompt(videos, transcripts)
	assert.Equal(t, 1, included)
	assert.Contains(t, prompt, "Subtitle content for 'Big'")
	assert.NotContains(t, prompt, "Subtitle content for 'Small'")
	assert.Contains(t, prompt, "Has Subtitles: Yes", "summaries still flag every transcript")
}

func TestGenerate(t *testing.T) {
	videos, transcripts := testVideos()

	t.Run("ReturnsModelText", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "Title: Big")
		})).Return(&Response{Text: "1. Bake more bread", TotalTokens: 321}, nil)

		g := NewIdeaGenerator(config.AIConfig{MaxVideos: 3, TranscriptChars: 100}, gen)
		assert.Equal(t, "1. Bake more bread", g.Generate(context.Background(), videos, transcripts))
		gen.AssertExpectations(t)
	})

	t.Run("ErrorBecomesSentinel", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

		g := NewIdeaGenerator(config.AIConfig{MaxVideos: 3, TranscriptChars: 100}, gen)
		assert.Equal(t, ErrorGeneratingIdeas, g.Generate(context.Background(), videos, transcripts))
	})

	t.Run("NoVideos", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(&Response{Text: "ideas"}, nil)

		g := NewIdeaGenerator(config.AIConfig{MaxVideos: 3, TranscriptChars: 100}, gen)
		require.Equal(t, "ideas", g.Generate(context.Background(), nil, nil))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
	assert.Equal(t, "ñé...", truncate("ñéü", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
