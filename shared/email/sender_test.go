package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
)

func testReport() *models.IdeasReport {
	videos := []*models.Video{
		{Title: "Bread <basics>", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", Views: "1.2M", Duration: "12:00", UploadDate: "3 days ago"},
		{Title: "Cake", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", Views: "4K", Duration: "8:00", UploadDate: "1 week ago"},
	}
	return &models.IdeasReport{
		Date: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		Result: &models.AnalysisResult{
			ChannelURL:          "https://www.youtube.com/@baker",
			MonthsBack:          2,
			VideosAnalyzed:      2,
			VideosWithSubtitles: 1,
			GeneratedIdeas:      "1. Sourdough series\n2. Cake decorating",
			Videos:              videos,
		},
		TopVideos: videos,
	}
}

func TestGenerateReportBody(t *testing.T) {
	body, err := generateReportBody(testReport())
	require.NoError(t, err)

	assert.Contains(t, body, "Content ideas for https://www.youtube.com/@baker")
	assert.Contains(t, body, "1. Sourdough series\n2. Cake decorating")
	assert.Contains(t, body, "Bread &lt;basics&gt;", "titles are HTML-escaped")
	assert.Contains(t, body, "<td>2</td>")
	assert.Contains(t, body, "Jun 15, 2024 09:00")
}

func TestSendReport(t *testing.T) {
	cfg := &config.EmailConfig{
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "bot",
		Password:   "secret",
		FromEmail:  "bot@example.com",
		ToEmail:    "me@example.com",
	}

	t.Run("Sends", func(t *testing.T) {
		var gotAddr string
		var gotMsg []byte
		s := NewSender(cfg)
		s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr = addr
			gotMsg = msg
			assert.Equal(t, "bot@example.com", from)
			assert.Equal(t, []string{"me@example.com"}, to)
			return nil
		}

		require.NoError(t, s.SendReport(testReport()))
		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.True(t, strings.HasPrefix(string(gotMsg), "To: me@example.com\r\n"))
		assert.Contains(t, string(gotMsg), "Subject: Content Ideas - https://www.youtube.com/@baker (2 videos, Jun 15, 2024)")
		assert.Contains(t, string(gotMsg), "Content-Type: text/html")
	})

	t.Run("SMTPError", func(t *testing.T) {
		s := NewSender(cfg)
		s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
		assert.ErrorContains(t, s.SendReport(testReport()), "535 auth failed")
	})

	t.Run("NilReport", func(t *testing.T) {
		assert.Error(t, NewSender(cfg).SendReport(nil))
		assert.Error(t, NewSender(cfg).SendReport(&models.IdeasReport{}))
	})
}
