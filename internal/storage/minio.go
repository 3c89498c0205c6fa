package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOSigner implements Signer against any S3-compatible store via the
// minio client.
type MinIOSigner struct {
	client *minio.Client
	bucket string
}

var _ Signer = (*MinIOSigner)(nil)

// NewMinIOSigner creates the client and ensures the bucket exists.
func NewMinIOSigner(cfg *Config) (*MinIOSigner, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOSigner{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Bucket returns the bucket this signer issues URLs for.
func (s *MinIOSigner) Bucket() string { return s.bucket }

// PresignedUploadURL signs a single PUT for key. The Content-Type header is
// part of the signature so the store rejects uploads declaring a different
// type.
func (s *MinIOSigner) PresignedUploadURL(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	hdr := http.Header{}
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, expires, url.Values{}, hdr)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, ErrUnavailable)
	}
	return u.String(), nil
}

// PresignedDownloadURL signs a GET for key.
func (s *MinIOSigner) PresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, ErrUnavailable)
	}
	return u.String(), nil
}

// ObjectExists stats the object. A missing key is not an error.
func (s *MinIOSigner) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, ErrUnavailable)
}
