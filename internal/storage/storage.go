// AngelaMos | 2026
// storage.go

package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carterperez-dev/finddetectives/internal/config"
	"github.com/carterperez-dev/finddetectives/internal/core"
)

const claimPrefix = "claims/"

const maxFilenameLength = 120

var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
}

// DocumentStore keeps supporting documents for profile claims in an
// S3-compatible bucket. Clients upload and download through presigned URLs;
// the API never proxies file bytes.
type DocumentStore struct {
	client *minio.Client
	bucket string
	region string
	expiry time.Duration
}

func NewDocumentStore(cfg config.StorageConfig) (*DocumentStore, error) {
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

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &DocumentStore{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		expiry: expiry,
	}, nil
}

func (s *DocumentStore) EnsureBucket(ctx context.Context) error {
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

// Ping satisfies health.Checker.
func (s *DocumentStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("storage ping failed: %w", err)
	}
	return nil
}

type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignUpload reserves a new object key for filename and returns a PUT URL
// for it.
func (s *DocumentStore) PresignUpload(
	ctx context.Context,
	filename, contentType string,
) (*Upload, error) {
	key, err := ClaimDocumentKey(filename, contentType)
	if err != nil {
		return nil, err
	}

	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Upload{
		Key:       key,
		URL:       u.String(),
		Method:    "PUT",
		ExpiresAt: time.Now().Add(s.expiry),
	}, nil
}

func (s *DocumentStore) PresignDownload(ctx context.Context, key string) (string, error) {
	if !IsClaimDocumentKey(key) {
		return "", fmt.Errorf("presign download: bad key %q: %w", key, core.ErrInvalidInput)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	return u.String(), nil
}

// ClaimDocumentKey builds claims/<uuid>/<name><ext>. The extension always
// comes from the content type, not the client supplied name.
func ClaimDocumentKey(filename, contentType string) (string, error) {
	ext, ok := allowedContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf(
			"unsupported content type %q: %w",
			contentType,
			core.ErrInvalidInput,
		)
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = sanitizeName(base)
	if base == "" {
		base = "document"
	}

	return claimPrefix + uuid.NewString() + "/" + base + ext, nil
}

func IsClaimDocumentKey(key string) bool {
	if !strings.HasPrefix(key, claimPrefix) || strings.Contains(key, "..") {
		return false
	}
	return strings.Count(key, "/") == 2
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
		if b.Len() >= maxFilenameLength {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
