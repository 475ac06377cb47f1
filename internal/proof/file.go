package proof

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileSource implements Source over the local file system.
type fileSource struct {
	logger zerolog.Logger
}

// NewFileSource creates a Source reading local files.
func NewFileSource(logger zerolog.Logger) Source {
	return &fileSource{
		logger: logger.With().Str("component", "proof-file-source").Logger(),
	}
}

// Open reads the image at filePath.
func (s *fileSource) Open(ctx context.Context, filePath string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		s.logger.Error().Err(err).Str("file", filePath).Msg("failed to open proof image")
		return nil, fmt.Errorf("failed to open proof image %s: %w", filePath, err)
	}
	defer file.Close()

	img, err := readImage(file, filePath, "")
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("file", filePath).
		Str("content_type", img.ContentType).
		Int("bytes", len(img.Data)).
		Msg("proof image read")

	return img, nil
}
