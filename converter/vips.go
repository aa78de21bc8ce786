package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"imgconv/contracts"
	"imgconv/logging"
)

var (
	vipsInitMutex sync.Mutex
	vipsAvailable bool
)

// InitVips starts libvips. Called once at startup; SVG decoding and WebP
// encoding are unavailable until it has run.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		return
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
	}
}

// VipsAvailable reports whether libvips has been initialized.
func VipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// decodeSVG rasterizes vector input through libvips (rsvg loader) and
// re-imports the result as a bitmap.
func decodeSVG(data []byte) (image.Image, error) {
	if !VipsAvailable() {
		return nil, fmt.Errorf("libvips not available for SVG input")
	}

	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load SVG: %w", err)
	}
	defer ref.Close()

	pngBytes, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to rasterize SVG: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rasterized SVG: %w", err)
	}
	return img, nil
}

// webpEncoder encodes through libvips; WebP keeps alpha, so the surface
// goes through a lossless PNG intermediate. Falls back to the ImageMagick
// backend when compiled in and vips is unavailable.
type webpEncoder struct{}

func (webpEncoder) Format() contracts.Format { return contracts.FormatWebP }

func (webpEncoder) Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	if !VipsAvailable() {
		if magickEncode != nil {
			return magickEncode(img, "WEBP", uint(opts.quality()))
		}
		return nil, fmt.Errorf("libvips not available for WebP output")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to stage surface for vips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load surface: %w", err)
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	params.Quality = opts.quality()
	params.NearLossless = true
	out, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("vips webp export failed: %w", err)
	}
	return out, nil
}
