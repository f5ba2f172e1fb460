package s3_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labassist/internal/config"
	"labassist/internal/domain"
	"labassist/internal/port"
	"labassist/internal/storage/s3"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) port.ObjectStorage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	storage, err := s3.NewS3Client(context.Background(), &config.S3Config{
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return storage
}

func TestS3Client_Download(t *testing.T) {
	body := []byte("Glucose 180 mg/dL (70-100) H\n")
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uploads/jane.txt", r.URL.Path)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	})

	data, err := storage.Download(context.Background(), "uploads", "jane.txt", 1024)
	require.NoError(t, err)
	assert.Equal(t, body, data)

	data, err = storage.Download(context.Background(), "uploads", "jane.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestS3Client_Download_DeclaredSizeOverLimit(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
	})

	_, err := storage.Download(context.Background(), "uploads", "big.pdf", 64)
	assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)
}

func TestS3Client_Download_StreamOverLimit(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the body is complete forces chunked encoding, so no
		// Content-Length reaches the client.
		_, _ = w.Write(bytes.Repeat([]byte("x"), 32))
		w.(http.Flusher).Flush()
		_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
	})

	_, err := storage.Download(context.Background(), "uploads", "stream.txt", 64)
	assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)
}

func TestS3Client_Download_NotFound(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
	})

	_, err := storage.Download(context.Background(), "uploads", "missing.txt", 64)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDocumentTooLarge)
	assert.Contains(t, err.Error(), "s3 download")
}
