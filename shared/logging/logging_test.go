package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-ideator/shared/config"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		err := Setup(config.LoggingConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("StdoutOnly", func(t *testing.T) {
		require.NoError(t, Setup(config.LoggingConfig{Level: "debug"}))
		assert.Equal(t, log.DebugLevel, log.GetLevel())
	})

	t.Run("RotatingFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "logs", "ideator.log")
		require.NoError(t, Setup(config.LoggingConfig{
			Level:      "info",
			File:       file,
			MaxSizeMB:  1,
			MaxBackups: 1,
			MaxAgeDays: 1,
		}))

		log.Info("hello from the test")

		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello from the test")
	})
}
