package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/FACorreiaa/shophub-api/config"
)

// ErrNotConfigured is returned when object storage is disabled.
var ErrNotConfigured = errors.New("object storage is not configured")

// Uploader stores a single object and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (*Object, error)
}

// UploadInput describes one object. Body must be seekable so the request can
// be signed over plain HTTP endpoints such as a local MinIO.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

type Object struct {
	Key string
	URL string
}

// ObjectPutter is the part of *s3.Client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ Uploader = (*S3Uploader)(nil)

// S3Uploader writes objects to an S3 compatible bucket (AWS, MinIO).
type S3Uploader struct {
	client        ObjectPutter
	bucket        string
	folder        string
	publicBaseURL string
	logger        *slog.Logger
	now           func() time.Time
}

// NewS3Uploader builds an S3 client from cfg. Static credentials are used when
// an access key is configured, otherwise the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg config.ObjectStorageConfig, logger *slog.Logger) (*S3Uploader, error) {
	if !cfg.Enabled {
		return nil, ErrNotConfigured
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewUploader(client, cfg, logger), nil
}

// NewUploader wraps an existing client.
func NewUploader(client ObjectPutter, cfg config.ObjectStorageConfig, logger *slog.Logger) *S3Uploader {
	publicBaseURL := cfg.PublicBaseURL
	if publicBaseURL == "" && cfg.Endpoint != "" {
		publicBaseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		folder:        strings.Trim(cfg.Folder, "/"),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           time.Now,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, in UploadInput) (*Object, error) {
	key := ObjectKey(u.folder, in.Filename, u.now())
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		u.logger.ErrorContext(ctx, "Failed to put object", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	u.logger.InfoContext(ctx, "Object stored", slog.String("key", key), slog.Int64("size", in.Size))
	return &Object{Key: key, URL: u.publicBaseURL + "/" + key}, nil
}

// ObjectKey returns folder/yyyy/mm/dd/<uuid><ext> for an uploaded file name.
func ObjectKey(folder, filename string, t time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%04d/%02d/%02d/%s%s", t.Year(), t.Month(), t.Day(), uuid.New(), ext)
	if folder == "" {
		return key
	}
	return folder + "/" + key
}
