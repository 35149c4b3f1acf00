// Package media stores post attachments in S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dope-network/dope-go/internal/infra/config"
)

// Uploader writes attachments to a bucket and hands back the object key a
// post references them by. It satisfies feed.MediaUploader.
type Uploader struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
	now    func() time.Time
}

// NewUploader constructs the storage adapter from config.
func NewUploader(cfg config.MediaConfig, logger *slog.Logger) (*Uploader, error) {
	cleanEndpoint := sanitizeEndpoint(cfg.Endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(cfg.Endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init media storage client: %w", err)
	}
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "media"),
		now:    time.Now,
	}, nil
}

// Upload stores one attachment under a date-partitioned random key.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure media bucket: %w", err)
	}
	key := u.objectKey(filename)
	info, err := u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: size >= 0 && size < 5*1024*1024,
	})
	if err != nil {
		return "", fmt.Errorf("put media object: %w", err)
	}
	u.logger.Info("attachment stored", "key", key, "size", info.Size)
	return key, nil
}

// Fetch streams a stored attachment.
func (u *Uploader) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := u.client.GetObject(ctx, u.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, statErr := obj.Stat(); statErr != nil {
		return nil, statErr
	}
	return obj, nil
}

// Remove deletes a stored attachment.
func (u *Uploader) Remove(ctx context.Context, key string) error {
	return u.client.RemoveObject(ctx, u.bucket, key, minio.RemoveObjectOptions{})
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err == nil && exists {
		return nil
	}
	err = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

func (u *Uploader) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("media/%s/%s%s", u.now().UTC().Format("2006/01/02"), uuid.NewString(), ext)
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		raw = strings.Split(raw, "/")[0]
	}
	return raw
}
