package port

import (
	"context"
	"io"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage. Lab documents are imported
// from it and session exports are written back to it.
type ObjectStorage interface {
	// Download reads an object of at most maxBytes (no limit when <= 0) and
	// fails with domain.ErrDocumentTooLarge without buffering a larger one.
	Download(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
}
