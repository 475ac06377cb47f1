// Package proof reads payment screenshots from the places a customer may
// keep them before they are uploaded.
package proof

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"storefront/internal/model"
)

// MaxSize is the largest proof image accepted.
const MaxSize = 10 << 20

// Image is a proof image ready for upload.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reader returns a fresh reader over the image bytes.
func (i *Image) Reader() io.Reader {
	return bytes.NewReader(i.Data)
}

// Source opens proof images by reference (a file path or an object key).
type Source interface {
	Open(ctx context.Context, ref string) (*Image, error)
}

// readImage reads at most MaxSize bytes from r and checks the result is an
// image. declaredType may be empty, in which case the type is sniffed.
func readImage(r io.Reader, ref, declaredType string) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read proof image %s: %w", ref, err)
	}
	if len(data) == 0 || len(data) > MaxSize {
		return nil, model.ErrInvalidProof
	}

	contentType := declaredType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, model.ErrInvalidProof
	}

	return &Image{
		Name:        path.Base(ref),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// NewImage validates an image received from elsewhere, such as a browser
// upload. contentType may be empty.
func NewImage(name, contentType string, r io.Reader) (*Image, error) {
	return readImage(r, name, contentType)
}
