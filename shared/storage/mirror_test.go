package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-ideator/shared/config"
)

type putRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

func newTestMirror(t *testing.T, status int) (*ArtifactMirror, *[]putRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []putRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, putRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		mu.Unlock()

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(status)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	mirror, err := NewArtifactMirror(context.Background(), config.MirrorConfig{
		Bucket:    "ideas",
		Prefix:    "/results/",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "AKID",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return mirror, &requests
}

func TestArtifactMirrorUpload(t *testing.T) {
	mirror, requests := newTestMirror(t, http.StatusOK)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "videos_20240615_120000.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("title,url\n"), 0644))

	require.NoError(t, mirror.Upload(context.Background(), "videos_20240615_120000.csv", csvPath))

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/ideas/results/videos_20240615_120000.csv", req.path)
	assert.Equal(t, "text/csv; charset=utf-8", req.contentType)
	assert.Equal(t, "title,url\n", req.body)
}

func TestArtifactMirrorErrors(t *testing.T) {
	t.Run("Denied", func(t *testing.T) {
		mirror, _ := newTestMirror(t, http.StatusForbidden)
		path := filepath.Join(t.TempDir(), "analysis_20240615_120000.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

		err := mirror.Upload(context.Background(), "analysis_20240615_120000.json", path)
		assert.ErrorContains(t, err, "results/analysis_20240615_120000.json")
	})

	t.Run("MissingFile", func(t *testing.T) {
		mirror, requests := newTestMirror(t, http.StatusOK)
		err := mirror.Upload(context.Background(), "x.csv", filepath.Join(t.TempDir(), "x.csv"))
		assert.Error(t, err)
		assert.Empty(t, *requests)
	})

	t.Run("NoBucket", func(t *testing.T) {
		_, err := NewArtifactMirror(context.Background(), config.MirrorConfig{})
		assert.Error(t, err)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("analysis_1.JSON"))
	assert.Equal(t, "text/csv; charset=utf-8", contentType("videos_1.csv"))
	assert.Equal(t, "application/octet-stream", contentType("notes.txt"))
}
