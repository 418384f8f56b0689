package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultAvatarMaxBytes = 2 << 20
	avatarURLTTL          = 15 * time.Minute
	avatarPrefix          = "avatars"
)

var (
	ErrAvatarTooLarge       = errors.New("avatar exceeds size limit")
	ErrAvatarType           = errors.New("avatar must be a JPEG, PNG or WebP image")
	ErrAvatarStorageOff     = errors.New("avatar storage is disabled")
	ErrAvatarNotOwned       = errors.New("avatar object does not belong to user")
	ErrAvatarUploadFailed   = errors.New("avatar upload failed")
	ErrAvatarDeleteFailed   = errors.New("avatar delete failed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")

	avatarTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
)

// AvatarStore keeps user avatars in object storage. Keys are namespaced
// per user as avatars/{userID}/{random}{ext}.
type AvatarStore interface {
	Upload(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (string, error)
	Delete(ctx context.Context, userID uuid.UUID, objectKey string) error
	URL(ctx context.Context, objectKey string) (string, error)
}

type DisabledAvatarStore struct{}

func (DisabledAvatarStore) Upload(context.Context, uuid.UUID, io.Reader, int64) (string, error) {
	return "", ErrAvatarStorageOff
}

func (DisabledAvatarStore) Delete(context.Context, uuid.UUID, string) error { return nil }

func (DisabledAvatarStore) URL(context.Context, string) (string, error) {
	return "", ErrAvatarStorageOff
}

type MinIOAvatarOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	MaxBytes      int64
}

type MinIOAvatarStore struct {
	client   *minio.Client
	bucket   string
	public   string
	maxBytes int64
	initOnce sync.Once
	initErr  error
}

// NewMinIOAvatarStore does not contact the server; the bucket is created
// on first use.
func NewMinIOAvatarStore(opts MinIOAvatarOptions) (*MinIOAvatarStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultAvatarMaxBytes
	}
	return &MinIOAvatarStore{
		client:   client,
		bucket:   opts.Bucket,
		public:   strings.TrimRight(opts.PublicBaseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

func (s *MinIOAvatarStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("%w: %v", ErrBucketCreationFailed, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("%w: %v", ErrBucketCreationFailed, err)
			}
		}
	})
	return s.initErr
}

// Upload sniffs the content type from the first bytes instead of trusting
// the client header.
func (s *MinIOAvatarStore) Upload(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (string, error) {
	if size <= 0 || size > s.maxBytes {
		return "", ErrAvatarTooLarge
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("%w: %v", ErrAvatarUploadFailed, err)
	}
	head = head[:n]
	contentType := strings.ToLower(http.DetectContentType(head))
	ext, ok := avatarTypes[contentType]
	if !ok {
		return "", ErrAvatarType
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s%s", avatarPrefix, userID, uuid.NewString(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, io.MultiReader(bytes.NewReader(head), file), size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-ID":     userID.String(),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAvatarUploadFailed, err)
	}
	return key, nil
}

func (s *MinIOAvatarStore) Delete(ctx context.Context, userID uuid.UUID, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if !avatarOwnedBy(objectKey, userID) {
		return ErrAvatarNotOwned
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrAvatarDeleteFailed, err)
	}
	return nil
}

// URL prefers the public base URL and falls back to a presigned GET.
func (s *MinIOAvatarStore) URL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", errors.New("empty avatar key")
	}
	if s.public != "" {
		return s.public + "/" + s.bucket + "/" + objectKey, nil
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, avatarURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign avatar: %w", err)
	}
	return u.String(), nil
}

func avatarOwnedBy(objectKey string, userID uuid.UUID) bool {
	if strings.Contains(objectKey, "..") {
		return false
	}
	return strings.HasPrefix(objectKey, avatarPrefix+"/"+userID.String()+"/")
}

// AvatarKeyFromURL recovers the object key from a URL produced by URL.
func AvatarKeyFromURL(raw string) string {
	i := strings.Index(raw, avatarPrefix+"/")
	if i < 0 {
		return ""
	}
	key := raw[i:]
	if q := strings.IndexByte(key, '?'); q >= 0 {
		key = key[:q]
	}
	return key
}
