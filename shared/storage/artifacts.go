package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"channel-ideator/internal/models"
)

// TimestampLayout formats the suffix shared by the two artifacts of one analysis.
const TimestampLayout = "20060102_150405"

var csvHeader = []string{"title", "url", "views", "upload_date", "duration", "thumbnail_url"}

// ErrInvalidArtifact is returned for artifact names that would escape the results directory.
var ErrInvalidArtifact = errors.New("invalid artifact name")

// ArtifactWriter persists the CSV and JSON dumps of finished analyses.
type ArtifactWriter struct {
	dir string
}

func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create results directory %s", dir)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// Write stores videos_<ts>.csv and analysis_<ts>.json and records their names on
// the result. Both names are claimed with O_EXCL; when either is already taken the
// result id is appended to the stamp.
func (w *ArtifactWriter) Write(result *models.AnalysisResult) error {
	stamp := result.AnalyzedAt.Format(TimestampLayout)
	suffix := stamp
	csvOut, jsonOut, err := w.claim(suffix)
	if os.IsExist(err) {
		id := result.ID
		if len(id) > 8 {
			id = id[:8]
		}
		suffix = stamp + "_" + id
		csvOut, jsonOut, err = w.claim(suffix)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to create artifacts for %s", suffix)
	}

	if err := writeCSV(csvOut, result.Videos); err != nil {
		jsonOut.Close()
		w.discard(csvOut, jsonOut)
		return err
	}
	if err := writeJSON(jsonOut, result); err != nil {
		w.discard(csvOut, jsonOut)
		return err
	}

	result.CSVFile = filepath.Base(csvOut.Name())
	result.JSONFile = filepath.Base(jsonOut.Name())
	return nil
}

// Path resolves an artifact name inside the results directory.
func (w *ArtifactWriter) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errors.Wrap(ErrInvalidArtifact, name)
	}
	return filepath.Join(w.dir, name), nil
}

// claim creates both artifact files for suffix, failing if either exists. The
// returned error is the raw *os.PathError so callers can test it with os.IsExist.
func (w *ArtifactWriter) claim(suffix string) (*os.File, *os.File, error) {
	csvOut, err := createExclusive(filepath.Join(w.dir, "videos_"+suffix+".csv"))
	if err != nil {
		return nil, nil, err
	}
	jsonOut, err := createExclusive(filepath.Join(w.dir, "analysis_"+suffix+".json"))
	if err != nil {
		csvOut.Close()
		os.Remove(csvOut.Name())
		return nil, nil, err
	}
	return csvOut, jsonOut, nil
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

// discard removes half-written artifacts.
func (w *ArtifactWriter) discard(files ...*os.File) {
	for _, f := range files {
		os.Remove(f.Name())
	}
}

// writeCSV writes the video table and closes out. A failed Close is reported.
func writeCSV(out io.WriteCloser, videos []*models.Video) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close CSV artifact")
		}
	}()

	cw := csv.NewWriter(out)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	for _, v := range videos {
		row := []string{v.Title, v.URL, v.Views, v.UploadDate, v.Duration, v.ThumbnailURL}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write CSV row for %s", v.URL)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "failed to flush CSV artifact")
	}
	return nil
}

// writeJSON encodes the result and closes out. A failed Close is reported.
func writeJSON(out io.WriteCloser, result *models.AnalysisResult) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close JSON artifact")
		}
	}()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return errors.Wrap(err, "failed to encode JSON artifact")
	}
	return nil
}
