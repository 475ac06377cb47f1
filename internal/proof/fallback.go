package proof

import (
	"context"
	"errors"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// fallbackSource tries S3 first, then the local file system.
type fallbackSource struct {
	s3Source   Source
	fileSource Source
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackSource creates a Source that tries s3Source with s3Prefix
// prepended to the reference, then fileSource with the reference as-is.
// A nil s3Source means local files only.
func NewFallbackSource(s3Source, fileSource Source, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Source {
	return &fallbackSource{
		s3Source:   s3Source,
		fileSource: fileSource,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "proof-fallback-source").Logger(),
	}
}

func (s *fallbackSource) Open(ctx context.Context, ref string) (*Image, error) {
	if s.s3Enabled && s.s3Source != nil {
		key := s.s3Prefix + ref

		img, err := s.s3Source.Open(ctx, key)
		if err == nil {
			return img, nil
		}
		// A rejected image is final.
		if errors.Is(err, model.ErrInvalidProof) {
			return nil, err
		}

		s.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to read proof from S3, falling back to local file system")
	}

	return s.fileSource.Open(ctx, ref)
}
