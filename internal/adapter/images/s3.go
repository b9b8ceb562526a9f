package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ImageStorage = (*S3Storage)(nil)

type uploader interface {
	Upload(
		ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader),
	) (*manager.UploadOutput, error)
}

type S3Storage struct {
	uploader uploader
	bucket   string
	baseURL  string
}

// NewS3Storage builds an uploader from the default AWS credential chain.
// When baseURL is empty the public virtual-hosted bucket url is used.
func NewS3Storage(
	ctx context.Context, bucket, region, baseURL string,
) (S3Storage, error) {
	const op = "NewS3Storage"

	if bucket == "" {
		return S3Storage{}, fmt.Errorf("%s: empty bucket", op)
	}

	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return S3Storage{}, fmt.Errorf("%s: failed to load aws config: %w", op, err)
	}

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, cfg.Region)
	}
	return newS3Storage(manager.NewUploader(s3.NewFromConfig(cfg)), bucket, baseURL), nil
}

func newS3Storage(u uploader, bucket, baseURL string) S3Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return S3Storage{uploader: u, bucket: bucket, baseURL: baseURL}
}

func (s S3Storage) SaveImage(
	ctx context.Context, name string, r io.Reader, contentType string,
) error {
	const op = "S3Storage.SaveImage"
	log := slog.With("op", op)

	name, err := CleanName(name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.DebugContext(ctx, "image uploaded", "location", out.Location)
	return nil
}

func (s S3Storage) ImageURL(name string) string {
	return s.baseURL + name
}
