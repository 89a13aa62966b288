package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"unimart/internal/config"
)

// ObjectStore keeps listing photos in a single S3-compatible bucket.
type ObjectStore struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &ObjectStore{
		client:    client,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: publicURL,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// URL is where clients fetch the object; it does not sign the request.
func (s *ObjectStore) URL(key string) string {
	return joinURL(s.publicURL, key)
}

func joinURL(base string, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
