package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
)

// maxIDsPerRequest is the Data API limit for videos.list.
const maxIDsPerRequest = 50

var isoDurationRE = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// Client looks up public video statistics with a Data API key.
type Client struct {
	service *youtube.Service
}

// Stats is what the Data API reports for one video.
type Stats struct {
	ViewCount       uint64
	Duration        string
	DurationSeconds int
}

func NewClient(ctx context.Context, cfg config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// VideoStats fetches statistics for ids in batches. A failed batch is logged and
// skipped; the error is returned only when every batch failed.
func (c *Client) VideoStats(ctx context.Context, ids []string) (map[string]Stats, error) {
	stats := make(map[string]Stats, len(ids))

	var lastErr error
	failed, batches := 0, 0
	for i := 0; i < len(ids); i += maxIDsPerRequest {
		end := i + maxIDsPerRequest
		if end > len(ids) {
			end = len(ids)
		}
		batches++

		resp, err := c.service.Videos.List([]string{"statistics", "contentDetails"}).
			Id(strings.Join(ids[i:end], ",")).
			Context(ctx).
			Do()
		if err != nil {
			log.Warnf("Failed to get video statistics for batch: %v", err)
			lastErr = err
			failed++
			continue
		}

		for _, item := range resp.Items {
			var s Stats
			if item.Statistics != nil {
				s.ViewCount = item.Statistics.ViewCount
			}
			if item.ContentDetails != nil {
				s.Duration = item.ContentDetails.Duration
				s.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
			}
			stats[item.Id] = s
		}
	}

	if batches > 0 && failed == batches {
		return nil, fmt.Errorf("failed to get video statistics: %w", lastErr)
	}
	return stats, nil
}

// Enrich fills APIViewCount and DurationSeconds on videos with a known ID and
// returns how many were updated.
func (c *Client) Enrich(ctx context.Context, videos []*models.Video) (int, error) {
	var ids []string
	for _, v := range videos {
		if v.ID != "" {
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	stats, err := c.VideoStats(ctx, ids)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, v := range videos {
		s, ok := stats[v.ID]
		if !ok {
			continue
		}
		v.APIViewCount = s.ViewCount
		v.DurationSeconds = s.DurationSeconds
		updated++
	}
	return updated, nil
}

// parseDurationSeconds converts an ISO 8601 duration such as "PT2H15M30S".
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := isoDurationRE.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var total int
	for i, unit := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
