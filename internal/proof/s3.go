package proof

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ObjectGetter is the part of the S3 API the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Source implements Source for proof images kept in an S3 bucket.
type s3Source struct {
	client ObjectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Source creates a Source reading from bucket using the default AWS
// credential chain.
func NewS3Source(ctx context.Context, bucket, region string, logger zerolog.Logger) (Source, error) {
	logger = logger.With().Str("component", "proof-s3-source").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 proof source initialised")

	return NewS3SourceWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewS3SourceWithClient creates a Source on an existing client.
func NewS3SourceWithClient(client ObjectGetter, bucket string, logger zerolog.Logger) Source {
	return &s3Source{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Open reads the object at key. The key must include any prefix.
func (s *s3Source) Open(ctx context.Context, key string) (*Image, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	defer result.Body.Close()

	img, err := readImage(result.Body, key, aws.ToString(result.ContentType))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("bytes", len(img.Data)).
		Msg("proof image read from S3")

	return img, nil
}
