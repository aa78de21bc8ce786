// Package converter implements the conversion routine: decode the input
// into a bitmap, rasterize it onto a pixel surface with format-specific
// background handling, and re-encode the surface into the target format.
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"

	// Decoder registration for formats not covered by the encoders below.
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imgconv/contracts"
	"imgconv/handles"
	"imgconv/logging"
	"imgconv/metrics"
	"imgconv/utils"
)

// ConversionError reports a failed conversion and the stage that failed
// (decode or encode).
type ConversionError struct {
	File  string
	Stage string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s: %s failed: %v", e.File, e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Converter runs conversions and stores their output in a handle
// registry. The per-format encoders are a registry so that adding a
// target format is a registration, not a change to Convert.
type Converter struct {
	registry *handles.Registry
	encoders map[contracts.Format]Encoder
	quality  int
}

var _ contracts.Converter = (*Converter)(nil)

// New returns a Converter with all built-in encoders registered and the
// default encode quality.
func New(registry *handles.Registry) *Converter {
	c := &Converter{
		registry: registry,
		encoders: make(map[contracts.Format]Encoder),
		quality:  EncodeQuality,
	}
	c.Register(pngEncoder{})
	c.Register(jpegEncoder{})
	c.Register(webpEncoder{})
	c.Register(pdfEncoder{})
	return c
}

// Register installs enc for its format, replacing any previous encoder.
func (c *Converter) Register(enc Encoder) {
	c.encoders[enc.Format()] = enc
}

// SetQuality overrides the encode quality for lossy targets. Values
// outside 1..100 are ignored.
func (c *Converter) SetQuality(q int) {
	if q >= 1 && q <= 100 {
		c.quality = q
	}
}

// Convert decodes file, rasterizes it and encodes the surface to target.
// The encoded bytes are stored under a fresh registry handle which the
// caller must eventually release.
func (c *Converter) Convert(file contracts.FileInfo, target contracts.Format) (contracts.ConvertResult, error) {
	logging.Debug("converting %q (%s, %d bytes) to %s", file.Name, file.MediaType, len(file.Data), target)
	metrics.ConversionsStarted.WithLabelValues(string(target)).Inc()
	start := time.Now()

	enc, ok := c.encoders[target]
	if !ok {
		return contracts.ConvertResult{}, &ConversionError{
			File: file.Name, Stage: "encode", Err: fmt.Errorf("no encoder for format %s", target),
		}
	}

	img, err := Decode(file)
	if err != nil {
		metrics.ConversionsFailed.WithLabelValues(string(target), "decode").Inc()
		logging.Warn("decode failed for %q: %v", file.Name, err)
		return contracts.ConvertResult{}, &ConversionError{File: file.Name, Stage: "decode", Err: err}
	}

	surface := rasterize(img, target)

	data, err := enc.Encode(surface, EncodeOptions{DPI: utils.ProbeDPI(file.Data), Quality: c.quality})
	if err == nil && len(data) == 0 {
		err = errors.New("encoder produced no data")
	}
	if err != nil {
		metrics.ConversionsFailed.WithLabelValues(string(target), "encode").Inc()
		logging.Warn("encode failed for %q: %v", file.Name, err)
		return contracts.ConvertResult{}, &ConversionError{File: file.Name, Stage: "encode", Err: err}
	}

	h := c.registry.Create(data, target.MediaType())
	metrics.ConversionsSucceeded.WithLabelValues(string(target)).Inc()
	metrics.ConversionDuration.WithLabelValues(string(target)).Observe(time.Since(start).Seconds())
	logging.Info("converted %q to %s: %d bytes in %s", file.Name, target, len(data), time.Since(start))

	bounds := surface.Bounds()
	return contracts.ConvertResult{
		Handle:      h,
		Size:        int64(len(data)),
		PixelWidth:  bounds.Dx(),
		PixelHeight: bounds.Dy(),
		Format:      target,
	}, nil
}

// Decode turns an input file into a bitmap. Vector input goes through
// the libvips rasterizer; raster input goes through the registered
// decoders with EXIF auto-orientation applied.
func Decode(file contracts.FileInfo) (image.Image, error) {
	if isSVG(file) {
		return decodeSVG(file.Data)
	}
	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}
	return img, nil
}

func isSVG(file contracts.FileInfo) bool {
	return file.MediaType == "image/svg+xml" || file.Ext() == ".svg"
}

// rasterize draws img onto a surface of exactly its own size, unscaled.
// Targets without alpha support get an opaque white background first;
// alpha-capable targets keep the surface transparent.
func rasterize(img image.Image, target contracts.Format) *image.RGBA {
	bounds := img.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if !target.SupportsAlpha() {
		draw.Draw(surface, surface.Bounds(), image.White, image.Point{}, draw.Src)
	}
	draw.Draw(surface, surface.Bounds(), img, bounds.Min, draw.Over)
	return surface
}
