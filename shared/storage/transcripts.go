package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const transcriptSuffix = ".en.txt"

// TranscriptStore keeps flattened transcripts as <dir>/<videoID>.en.txt files.
type TranscriptStore struct {
	dir string
}

func NewTranscriptStore(dir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create transcript directory %s", dir)
	}
	return &TranscriptStore{dir: dir}, nil
}

// Save overwrites any earlier transcript for the same video and returns its path.
func (s *TranscriptStore) Save(videoID, text string) (string, error) {
	if videoID == "" || strings.ContainsAny(videoID, `/\`) || videoID == "." || videoID == ".." {
		return "", errors.Errorf("invalid video id %q", videoID)
	}

	path := filepath.Join(s.dir, videoID+transcriptSuffix)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write transcript %s", path)
	}
	return path, nil
}
