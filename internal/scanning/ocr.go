package scanning

import (
	"context"
	"log/slog"
	"strings"
)

// Vertex is a corner of an annotation's bounding polygon
type Vertex struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Annotation is a single text detection returned by OCR
type Annotation struct {
	Description string   `json:"description"`
	Locale      string   `json:"locale,omitempty"`
	Vertices    []Vertex `json:"vertices,omitempty"`
}

// OCRResult is the detected text and its raw annotations.
// Text is empty iff no usable text was detected.
type OCRResult struct {
	Text string
	Raw  []Annotation
}

// TextDetector defines the OCR capability the pipeline depends on
type TextDetector interface {
	// DetectDocumentText runs detection tuned for dense, structured documents
	DetectDocumentText(ctx context.Context, image []byte) (OCRResult, error)
	// DetectText runs generic scene text detection
	DetectText(ctx context.Context, image []byte) (OCRResult, error)
}

// Extractor runs document detection with a single generic-detection fallback
type Extractor struct {
	detector TextDetector
	metrics  *Metrics
}

// NewExtractor creates an Extractor; metrics may be nil
func NewExtractor(detector TextDetector, metrics *Metrics) *Extractor {
	return &Extractor{detector: detector, metrics: metrics}
}

// Extract returns the OCR text of a preprocessed image
func (e *Extractor) Extract(ctx context.Context, image []byte) (OCRResult, error) {
	result, err := e.detector.DetectDocumentText(ctx, image)
	if err != nil {
		return OCRResult{}, &ScanError{Kind: KindTransientFailure, Detail: "document text detection", Err: err}
	}
	if strings.TrimSpace(result.Text) != "" {
		slog.Info("Document text detection succeeded", "annotations", len(result.Raw))
		return result, nil
	}

	slog.Info("Document text detection returned no text, falling back to text detection")
	e.metrics.ocrFallback()
	result, err = e.detector.DetectText(ctx, image)
	if err != nil {
		return OCRResult{}, &ScanError{Kind: KindTransientFailure, Detail: "text detection", Err: err}
	}
	if strings.TrimSpace(result.Text) == "" {
		return OCRResult{}, &ScanError{Kind: KindUnreadable, Detail: "No text could be detected"}
	}

	slog.Info("Text detection succeeded", "annotations", len(result.Raw))
	return result, nil
}
