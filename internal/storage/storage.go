package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrObjectNotFound is returned when the backing object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnavailable is returned when the object store cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Signer issues time-limited URLs against the object store and answers
// existence checks. File bytes never pass through this service; clients
// talk to the store directly using the URLs issued here.
type Signer interface {
	// PresignedUploadURL returns a URL authorizing a single PUT of the given
	// content type to key, valid for expires.
	PresignedUploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	// PresignedDownloadURL returns a time-limited GET URL for key.
	PresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)
	// ObjectExists reports whether key is present. Absence is (false, nil);
	// an error means the store could not be consulted.
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// Config holds object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}
