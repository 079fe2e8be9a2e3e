package scanning

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

const (
	featureDocumentText = "DOCUMENT_TEXT_DETECTION"
	featureText         = "TEXT_DETECTION"
)

// Vision implements TextDetector using the Google Cloud Vision API
type Vision struct {
	service *vision.Service
}

// NewVision creates a Vision detector. Callers pass credentials, e.g.
// option.WithAPIKey or option.WithCredentialsFile.
func NewVision(ctx context.Context, opts ...option.ClientOption) (*Vision, error) {
	service, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}
	return &Vision{service: service}, nil
}

// DetectDocumentText runs DOCUMENT_TEXT_DETECTION
func (v *Vision) DetectDocumentText(ctx context.Context, image []byte) (OCRResult, error) {
	return v.annotate(ctx, image, featureDocumentText)
}

// DetectText runs TEXT_DETECTION
func (v *Vision) DetectText(ctx context.Context, image []byte) (OCRResult, error) {
	return v.annotate(ctx, image, featureText)
}

func (v *Vision) annotate(ctx context.Context, image []byte, feature string) (OCRResult, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*vision.Feature{{Type: feature}},
			},
		},
	}

	resp, err := v.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return OCRResult{}, fmt.Errorf("annotating image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return OCRResult{}, nil
	}

	res := resp.Responses[0]
	if res.Error != nil && res.Error.Code != 0 {
		return OCRResult{}, fmt.Errorf("vision error (code %d): %s", res.Error.Code, res.Error.Message)
	}

	// The first annotation holds the full text; the rest are individual words
	raw := make([]Annotation, 0, len(res.TextAnnotations))
	for _, a := range res.TextAnnotations {
		if a == nil {
			continue
		}
		raw = append(raw, toAnnotation(a))
	}

	var text string
	if len(raw) > 0 {
		text = raw[0].Description
	}
	return OCRResult{Text: text, Raw: raw}, nil
}

func toAnnotation(a *vision.EntityAnnotation) Annotation {
	ann := Annotation{Description: a.Description, Locale: a.Locale}
	if a.BoundingPoly != nil {
		for _, v := range a.BoundingPoly.Vertices {
			if v == nil {
				continue
			}
			ann.Vertices = append(ann.Vertices, Vertex{X: v.X, Y: v.Y})
		}
	}
	return ann
}
