package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// DefaultMaxWidth caps OCR payload size while keeping receipt text legible
const DefaultMaxWidth = 1200

// MaxInputPixels bounds the decoded size of an upload; a small compressed file
// can declare far more pixels than the process can hold.
const MaxInputPixels = 0x3FFF * 0x3FFF

const (
	sharpenSigma = 1.0
	// fraction of pixels clipped at each end of the histogram when normalizing
	normalizeClip = 0.01
)

// Preprocessor normalizes a raw receipt photo for OCR
type Preprocessor struct {
	MaxWidth int
}

// NewPreprocessor creates a Preprocessor; a non-positive width uses DefaultMaxWidth
func NewPreprocessor(maxWidth int) *Preprocessor {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Preprocessor{MaxWidth: maxWidth}
}

// Preprocess resizes, sharpens, normalizes and grayscales the image and returns it as PNG.
// A corrupt or oversized image is unreadable.
func (p *Preprocessor) Preprocess(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ScanError{Kind: KindUnreadable, Detail: "decoding image header", Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, &ScanError{Kind: KindUnreadable, Detail: fmt.Sprintf("image is %dx%d pixels", cfg.Width, cfg.Height)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ScanError{Kind: KindUnreadable, Detail: "decoding image", Err: err}
	}

	var out image.Image = img
	if out.Bounds().Dx() > p.MaxWidth {
		out = imaging.Resize(out, p.MaxWidth, 0, imaging.Lanczos)
	}
	out = imaging.Sharpen(out, sharpenSigma)
	out = normalize(out)
	out = imaging.Grayscale(out)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize stretches the luminance range so the darkest and lightest pixels
// (ignoring outliers) map to black and white. Flat images are returned as-is.
func normalize(img image.Image) image.Image {
	var hist [256]int
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return img
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[luminance(img.At(x, y))]++
		}
	}

	clip := int(float64(total) * normalizeClip)
	lo, hi := 0, 255
	for seen := 0; lo < 255; lo++ {
		seen += hist[lo]
		if seen > clip {
			break
		}
	}
	for seen := 0; hi > 0; hi-- {
		seen += hist[hi]
		if seen > clip {
			break
		}
	}
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	stretch := func(v uint8) uint8 {
		f := (float64(v) - float64(lo)) * scale
		switch {
		case f < 0:
			return 0
		case f > 255:
			return 255
		}
		return uint8(f + 0.5)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

func luminance(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}
