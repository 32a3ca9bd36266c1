// Package normalize turns uploaded documents into a single raster image.
//
// Images pass through untouched. PDFs are rendered page-one-only to JPEG.
// Everything else is rejected as an unsupported document.
package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"

	"docverify/internal/verification"
	"docverify/pkg/requestcontext"
)

const (
	mimePDF         = "application/pdf"
	mimeJPEG        = "image/jpeg"
	mimeOctetStream = "application/octet-stream"

	// jpegQuality is used when encoding rendered PDF pages.
	jpegQuality = 90
)

// Normalizer resolves uploads to images.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize returns the upload as exactly one raster image. It is deterministic
// for equal input bytes.
func (n *Normalizer) Normalize(ctx context.Context, upload verification.Upload) (verification.NormalizedDocument, error) {
	if err := ctx.Err(); err != nil {
		return verification.NormalizedDocument{}, err
	}

	detected := DetectMIME(upload.ContentType, upload.Data)
	switch {
	case strings.HasPrefix(detected, "image/"):
		return verification.NormalizedDocument{Kind: upload.Kind, MIME: detected, Image: upload.Data}, nil
	case detected == mimePDF:
		img, err := renderFirstPage(upload.Data)
		if err != nil {
			n.logger.WarnContext(ctx, "pdf could not be rendered",
				"request_id", requestcontext.RequestID(ctx),
				"document", upload.Kind,
				"error", err,
			)
			return verification.NormalizedDocument{}, verification.NewUnsupportedDocument(upload.Kind, detected)
		}
		return verification.NormalizedDocument{Kind: upload.Kind, MIME: mimeJPEG, Image: img}, nil
	default:
		return verification.NormalizedDocument{}, verification.NewUnsupportedDocument(upload.Kind, detected)
	}
}

// DetectMIME resolves the media type of an upload, without parameters. The
// content is sniffed and a recognised image or PDF signature overrides the
// declared type. Otherwise the declared type is used, falling back to the
// sniffed one when nothing useful was declared.
func DetectMIME(declared string, data []byte) string {
	sniffed := sniff(data)
	if isDocumentType(sniffed) {
		return sniffed
	}
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != mimeOctetStream {
			return strings.ToLower(mediaType)
		}
	}
	return sniffed
}

func sniff(data []byte) string {
	if len(data) == 0 {
		return mimeOctetStream
	}
	mediaType, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return mediaType
}

func isDocumentType(mediaType string) bool {
	return mediaType == mimePDF || strings.HasPrefix(mediaType, "image/")
}

func renderFirstPage(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("pdf contains zero pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("render page 0: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode page 0: %w", err)
	}
	return buf.Bytes(), nil
}
