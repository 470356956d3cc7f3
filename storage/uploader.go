package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object: the bucket key it was written
// under, its public location and the ETag returned by the backend.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object storage surface used for match evidence
// screenshots and player avatars. The production implementation talks to
// Cloudflare R2 over the S3 API.
type FileUploader interface {
	// Upload streams reader into the bucket under key.
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// GetPublicURL returns the browser-facing URL for key.
	GetPublicURL(key string) string
}
