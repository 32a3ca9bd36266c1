// Package ocr reads the text of identity documents.
//
// Every image passes the sharpness gate first; blurry documents are refused
// before the engine is called. Accepted images are binarized and then handed to
// the configured Engine.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docverify/internal/document/quality"
	"docverify/internal/verification"
	"docverify/pkg/requestcontext"
)

// Engine recognizes text in a preprocessed image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// BlurGate decides whether an image is too blurry to read.
type BlurGate interface {
	IsBlurry(image []byte) bool
}

// Extractor implements the text extraction stage of the pipeline.
type Extractor struct {
	gate   BlurGate
	engine Engine
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(gate BlurGate, engine Engine, logger *slog.Logger) *Extractor {
	return &Extractor{gate: gate, engine: engine, logger: logger}
}

// ExtractText returns the OCR text of doc, or a too_blurry rejection naming the document.
func (e *Extractor) ExtractText(ctx context.Context, doc verification.NormalizedDocument) (string, error) {
	if e.gate.IsBlurry(doc.Image) {
		if score, err := quality.Sharpness(doc.Image); err == nil {
			e.logger.InfoContext(ctx, "document rejected as blurry",
				"request_id", requestcontext.RequestID(ctx),
				"document", doc.Kind,
				"sharpness", score,
			)
		}
		return "", verification.NewTooBlurry(doc.Kind)
	}

	prepared, err := Preprocess(doc.Image)
	if err != nil {
		return "", fmt.Errorf("preprocess %s: %w", doc.Kind, err)
	}

	start := time.Now()
	text, err := e.engine.Recognize(ctx, prepared)
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", doc.Kind, err)
	}
	e.logger.DebugContext(ctx, "document recognized",
		"request_id", requestcontext.RequestID(ctx),
		"document", doc.Kind,
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(text), nil
}
