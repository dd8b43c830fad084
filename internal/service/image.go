package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
)

const imageKeyPrefix = "recipes/images/"

// ImageStore persists recipe images and returns the URL they are served from.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodedImage is an uploaded image after decoding and type detection.
type DecodedImage struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeDataURI decodes a base64 data URI such as "data:image/png;base64,...".
// The content type is detected from the bytes; the declared type is ignored.
func DecodeDataURI(uri string) (*DecodedImage, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, NewValidationError("image", "Upload a valid image. Expected a base64 data URI.")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, NewValidationError("image", "Upload a valid image. Expected a base64 data URI.")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, NewValidationError("image", "Upload a valid image. The file could not be decoded.")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, NewValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	return &DecodedImage{
		Data:        data,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	}, nil
}

// NewImageKey returns a unique storage key for an image with extension ext.
func NewImageKey(ext string) string {
	return imageKeyPrefix + uuid.NewString() + ext
}

// LocalImageStore writes images below a directory served at baseURL.
type LocalImageStore struct {
	root    string
	baseURL string
}

// NewLocalImageStore creates a store rooted at root, e.g. "media" served at "/media/".
func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{root: root, baseURL: baseURL}
}

func (s *LocalImageStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.baseURL + key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL)
	if !ok {
		return fmt.Errorf("image %q is not managed by this store", url)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// S3ImageStore uploads images to an S3 bucket with public read URLs.
type S3ImageStore struct {
	s3Config *config.S3Config
}

// NewS3ImageStore creates a store for the configured bucket.
func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

func (s *S3ImageStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.s3Config.PublicURL(key)
	log.Ctx(ctx).Debug().Str("url", publicURL).Msg("Uploaded image to S3")
	return publicURL, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.s3Config.PublicURL(""))
	if !ok {
		return fmt.Errorf("image %q is not in bucket %s", url, s.s3Config.BucketName)
	}
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
