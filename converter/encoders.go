package converter

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"imgconv/contracts"
)

// EncodeQuality is the default quality for lossy and near-lossless
// encode paths, 0.9 on the 0-1 scale used by canvas-style encoders.
const EncodeQuality = 90

// EncodeOptions carries per-input encode parameters. DPI only affects
// physically-sized targets (pdf); Quality only lossy ones. Zero values
// fall back to the defaults.
type EncodeOptions struct {
	DPI     float64
	Quality int
}

func (o EncodeOptions) quality() int {
	if o.Quality <= 0 {
		return EncodeQuality
	}
	return o.Quality
}

// Encoder encodes a rasterized surface into one target format.
type Encoder interface {
	Format() contracts.Format
	Encode(img image.Image, opts EncodeOptions) ([]byte, error)
}

// magickEncode is the optional ImageMagick encode backend, installed by
// the imagick build tag. Nil when the backend is not compiled in.
var magickEncode func(img image.Image, format string, quality uint) ([]byte, error)

type pngEncoder struct{}

func (pngEncoder) Format() contracts.Format { return contracts.FormatPNG }

func (pngEncoder) Encode(img image.Image, _ EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jpegEncoder struct{}

func (jpegEncoder) Format() contracts.Format { return contracts.FormatJPG }

func (jpegEncoder) Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.quality()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
