// Package s3 provides a businessapi.BlobStore backed by S3 or an
// S3-compatible service such as MinIO. Accepted attachments are stored under
// a generated object key and addressed by a stable public URL.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// Content types the backend accepts. Anything else is rejected before any
// bytes leave the process.
var acceptedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// PublicBaseURL is the base under which stored objects are publicly
	// resolvable (a CDN or bucket website endpoint). When empty, a URL is
	// derived from the endpoint or the standard S3 hostname.
	PublicBaseURL string

	// KeyPrefix is prepended to generated object keys.
	KeyPrefix string

	// MaxImageDimension bounds JPEG/PNG attachments to a square of this side
	// length before storage, preserving aspect ratio. Zero disables the
	// transform.
	MaxImageDimension int
}

// Backend is an S3-compatible implementation of the businessapi.BlobStore interface
type Backend struct {
	uploader *manager.Uploader
	config   Config
}

// New creates a new S3-compatible storage backend
func New(cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Backend{
		uploader: manager.NewUploader(client),
		config:   cfg,
	}, nil
}

// Upload stores the attachment and returns its public URL. The blob may be
// resized before storage; callers only ever see the final URL.
func (b *Backend) Upload(ctx context.Context, att businessapi.Attachment) (string, error) {
	if len(att.Data) == 0 {
		return "", businessapi.ErrEmptyAttachment
	}
	if !acceptedContentTypes[strings.ToLower(att.ContentType)] {
		return "", fmt.Errorf("%w: %s", businessapi.ErrUnsupportedMediaType, att.ContentType)
	}

	data, err := b.transform(att)
	if err != nil {
		return "", err
	}

	key := b.objectKey(att.Filename)
	_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(att.ContentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("s3 rejected upload of key %s (%s): %w", key, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("failed to upload key %s: %w", key, err)
	}

	return b.publicURL(key), nil
}

func (b *Backend) objectKey(filename string) string {
	return b.config.KeyPrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func (b *Backend) publicURL(key string) string {
	if b.config.PublicBaseURL != "" {
		return strings.TrimSuffix(b.config.PublicBaseURL, "/") + "/" + key
	}
	if b.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(b.config.Endpoint, "/"), b.config.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.config.Bucket, b.config.Region, key)
}

// transform applies the bounding-box resize to JPEG and PNG attachments.
// Other accepted formats are stored as submitted.
func (b *Backend) transform(att businessapi.Attachment) ([]byte, error) {
	if b.config.MaxImageDimension <= 0 {
		return att.Data, nil
	}

	var img image.Image
	var err error
	switch strings.ToLower(att.ContentType) {
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(bytes.NewReader(att.Data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(att.Data))
	default:
		return att.Data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", att.Filename, err)
	}

	max := uint(b.config.MaxImageDimension)
	bounded := resize.Thumbnail(max, max, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch strings.ToLower(att.ContentType) {
	case "image/png":
		err = png.Encode(&buf, bounded)
	default:
		err = jpeg.Encode(&buf, bounded, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q: %w", att.Filename, err)
	}
	return buf.Bytes(), nil
}
