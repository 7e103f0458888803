package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"channel-ideator/internal/models"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    channel_url TEXT NOT NULL,
    analyzed_at TEXT NOT NULL,
    months_back INTEGER NOT NULL,
    videos_analyzed INTEGER NOT NULL,
    videos_with_subtitles INTEGER NOT NULL,
    csv_file TEXT NOT NULL,
    json_file TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_channel ON analyses(channel_url, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);
`

const (
	upsertAnalysisQuery = `
        INSERT INTO analyses (
            id, channel_url, analyzed_at, months_back,
            videos_analyzed, videos_with_subtitles, csv_file, json_file
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            videos_analyzed = excluded.videos_analyzed,
            videos_with_subtitles = excluded.videos_with_subtitles,
            csv_file = excluded.csv_file,
            json_file = excluded.json_file
    `

	recentAnalysesQuery = `
        SELECT id, channel_url, analyzed_at, months_back,
               videos_analyzed, videos_with_subtitles, csv_file, json_file
        FROM analyses
        WHERE (? = '' OR channel_url = ?)
        ORDER BY analyzed_at DESC
        LIMIT ?
    `
)

// Fixed width so the TEXT column sorts chronologically.
const indexTimeLayout = "2006-01-02T15:04:05.000000Z"

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// AnalysisIndex is a SQLite table of finished analyses, newest first.
type AnalysisIndex struct {
	db *sql.DB
}

func OpenAnalysisIndex(dbPath string) (*AnalysisIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create index directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open analysis index")
	}
	// Single writer.
	db.SetMaxOpenConns(1)

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &AnalysisIndex{db: db}, nil
}

func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "failed to set pragma: %s", pragma)
		}
	}
	return nil
}

func execSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin schema transaction")
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(indexSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return errors.Wrapf(err, "failed to execute schema statement: %s", stmt)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit schema transaction")
}

// Record stores the summary of a result whose artifacts were already written.
func (i *AnalysisIndex) Record(ctx context.Context, result *models.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return errors.New("analysis result has no id")
	}

	_, err := i.db.ExecContext(ctx, upsertAnalysisQuery,
		result.ID,
		result.ChannelURL,
		result.AnalyzedAt.UTC().Format(indexTimeLayout),
		result.MonthsBack,
		result.VideosAnalyzed,
		result.VideosWithSubtitles,
		result.CSVFile,
		result.JSONFile,
	)
	return errors.Wrapf(err, "failed to index analysis %s", result.ID)
}

// Recent lists the latest analyses, optionally for one channel only. The limit is
// clamped to [1, MaxRecentLimit], with DefaultRecentLimit for non-positive values.
func (i *AnalysisIndex) Recent(ctx context.Context, channelURL string, limit int) ([]models.AnalysisSummary, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	rows, err := i.db.QueryContext(ctx, recentAnalysesQuery, channelURL, channelURL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query analyses")
	}
	defer rows.Close()

	summaries := []models.AnalysisSummary{}
	for rows.Next() {
		var s models.AnalysisSummary
		var analyzedAt string
		if err := rows.Scan(&s.ID, &s.ChannelURL, &analyzedAt, &s.MonthsBack,
			&s.VideosAnalyzed, &s.VideosWithSubtitles, &s.CSVFile, &s.JSONFile); err != nil {
			return nil, errors.Wrap(err, "failed to scan analysis")
		}
		if s.AnalyzedAt, err = time.Parse(indexTimeLayout, analyzedAt); err != nil {
			return nil, errors.Wrapf(err, "invalid analyzed_at %q", analyzedAt)
		}
		summaries = append(summaries, s)
	}
	return summaries, errors.Wrap(rows.Err(), "failed to read analyses")
}

func (i *AnalysisIndex) Close() error {
	return i.db.Close()
}
