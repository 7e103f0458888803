package ai

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
)

// ErrorGeneratingIdeas is returned in place of ideas when the model call fails.
const ErrorGeneratingIdeas = "Error generating ideas"

// IdeaGenerator turns a channel's ranked videos and transcripts into content ideas.
type IdeaGenerator struct {
	gen             Generator
	maxVideos       int
	transcriptChars int
}

func NewIdeaGenerator(cfg config.AIConfig, gen Generator) *IdeaGenerator {
	return &IdeaGenerator{
		gen:             gen,
		maxVideos:       cfg.MaxVideos,
		transcriptChars: cfg.TranscriptChars,
	}
}

// ParseViewCount derives a number from a raw views label such as "1.2K".
// "k" and "m" expand to zeros before non-digits are dropped, so "2.5M" reads as
// 25000000 rather than 2500000.
func ParseViewCount(views string) uint64 {
	s := strings.ToLower(views)
	s = strings.ReplaceAll(s, "k", "000")
	s = strings.ReplaceAll(s, "m", "000000")

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseUint(digits.String(), 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	return n
}

// Rank returns the videos sorted by derived view count, highest first. Ties keep
// their scraped order. The input slice is left untouched.
func Rank(videos []*models.Video) []*models.Video {
	ranked := make([]*models.Video, len(videos))
	copy(ranked, videos)

	counts := make(map[*models.Video]uint64, len(ranked))
	for _, v := range ranked {
		counts[v] = ParseViewCount(v.Views)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	return ranked
}

// BuildPrompt renders the performance summary and transcript excerpts into the
// ideas template. It also reports how many excerpts were included.
func (g *IdeaGenerator) BuildPrompt(videos []*models.Video, transcripts map[string]string) (string, int) {
	ranked := Rank(videos)

	summaries := make([]string, 0, len(ranked))
	for _, v := range ranked {
		hasTranscript := "No"
		if _, ok := transcripts[v.URL]; ok {
			hasTranscript = "Yes"
		}
		summaries = append(summaries, fmt.Sprintf(videoSummaryFormat, v.Title, v.Views, v.Duration, v.UploadDate, hasTranscript))
	}

	var excerpts strings.Builder
	included := 0
	for _, v := range ranked {
		if included >= g.maxVideos {
			break
		}
		text, ok := transcripts[v.URL]
		if !ok {
			continue
		}
		fmt.Fprintf(&excerpts, transcriptExcerptFormat, v.Title, truncate(text, g.transcriptChars))
		included++
	}

	return fmt.Sprintf(ideasPromptTemplate, strings.Join(summaries, "\n"), excerpts.String()), included
}

// Generate never fails: a model error is logged and reported as ErrorGeneratingIdeas.
func (g *IdeaGenerator) Generate(ctx context.Context, videos []*models.Video, transcripts map[string]string) string {
	log.Infof("Analyzing %d videos", len(videos))
	log.Infof("Have transcripts for %d videos", len(transcripts))
	for _, v := range videos {
		text, ok := transcripts[v.URL]
		log.WithFields(log.Fields{
			"url":             v.URL,
			"views":           v.Views,
			"has_transcript":  ok,
			"transcript_size": len(text),
		}).Debugf("Video: %s", v.Title)
	}

	prompt, included := g.BuildPrompt(videos, transcripts)
	log.Infof("Including transcripts for %d videos", included)
	log.Debugf("Sending prompt:\n%s", prompt)

	resp, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		log.Errorf("Idea generation failed: %v", err)
		return ErrorGeneratingIdeas
	}

	log.Debugf("Model response:\n%s", resp.Text)
	log.Infof("Total tokens used: %d", resp.TotalTokens)
	return resp.Text
}

// truncate cuts s to maxChars characters and appends "..." when anything was cut.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}
