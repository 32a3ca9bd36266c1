package ocr

import (
	"context"
	"errors"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine recognizes text with Google Cloud Vision document text detection.
type VisionEngine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

// NewVisionEngine creates a Vision client. An empty credentialsFile falls back to
// application default credentials.
func NewVisionEngine(ctx context.Context, credentialsFile string, languages ...string) (*VisionEngine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &VisionEngine{client: client, languages: languages}, nil
}

// Recognize returns the full text annotation of image.
func (e *VisionEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	resp, err := e.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:        &visionpb.Image{Content: image},
			Features:     []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{LanguageHints: e.languages},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", errors.New("vision annotate: empty response")
	}
	result := resp.GetResponses()[0]
	if status := result.GetError(); status != nil && status.GetCode() != 0 {
		return "", fmt.Errorf("vision annotate: %s", status.GetMessage())
	}
	return result.GetFullTextAnnotation().GetText(), nil
}

// Close releases the underlying gRPC connection.
func (e *VisionEngine) Close() error {
	return e.client.Close()
}
