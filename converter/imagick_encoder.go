//go:build imagick
// +build imagick

package converter

// Optional ImageMagick encode backend, used for WebP output when libvips
// is not initialized. Requires the MagickWand C libraries.

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"gopkg.in/gographics/imagick.v2/imagick"
)

func init() {
	imagick.Initialize()
	magickEncode = encodeWithMagick
}

func encodeWithMagick(img image.Image, format string, quality uint) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to stage surface for imagick: %w", err)
	}

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImageBlob(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("imagick failed to read surface: %w", err)
	}
	if err := mw.SetImageFormat(format); err != nil {
		return nil, fmt.Errorf("imagick does not support %s: %w", format, err)
	}
	if err := mw.SetImageCompressionQuality(quality); err != nil {
		return nil, err
	}
	return mw.GetImageBlob(), nil
}
