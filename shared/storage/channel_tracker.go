package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ChannelTracker remembers when each channel was last analyzed so scheduled runs
// skip channels that were covered recently.
type ChannelTracker struct {
	filePath string
	maxAge   time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	analyzed map[string]time.Time
}

// TrackedChannel is one entry of the history file.
type TrackedChannel struct {
	ChannelURL string    `json:"channel_url"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

func NewChannelTracker(filePath string, maxAge time.Duration) (*ChannelTracker, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create history directory")
	}

	ct := &ChannelTracker{
		filePath: filePath,
		maxAge:   maxAge,
		now:      time.Now,
		analyzed: make(map[string]time.Time),
	}
	if err := ct.load(); err != nil {
		return nil, errors.Wrap(err, "failed to load channel history")
	}
	ct.cleanup()

	return ct, nil
}

// IsAnalyzed reports whether the channel was analyzed within maxAge.
func (ct *ChannelTracker) IsAnalyzed(channelURL string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	at, ok := ct.analyzed[channelURL]
	if !ok {
		return false
	}
	return ct.now().Sub(at) < ct.maxAge
}

func (ct *ChannelTracker) MarkAnalyzed(channelURL string) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.analyzed[channelURL] = ct.now()
	return ct.save()
}

func (ct *ChannelTracker) Count() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.analyzed)
}

func (ct *ChannelTracker) cleanup() {
	cutoff := ct.now().Add(-ct.maxAge)
	for url, at := range ct.analyzed {
		if at.Before(cutoff) {
			delete(ct.analyzed, url)
		}
	}
}

func (ct *ChannelTracker) load() error {
	file, err := os.Open(ct.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to open history file")
	}
	defer file.Close()

	var entries []TrackedChannel
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return errors.Wrap(err, "failed to decode history file")
	}
	for _, e := range entries {
		ct.analyzed[e.ChannelURL] = e.AnalyzedAt
	}
	return nil
}

// save replaces the history file atomically via a temp file and rename.
func (ct *ChannelTracker) save() error {
	entries := make([]TrackedChannel, 0, len(ct.analyzed))
	for url, at := range ct.analyzed {
		entries = append(entries, TrackedChannel{ChannelURL: url, AnalyzedAt: at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChannelURL < entries[j].ChannelURL })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode history")
	}

	tmp := ct.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write history")
	}
	return errors.Wrap(os.Rename(tmp, ct.filePath), "failed to replace history file")
}
