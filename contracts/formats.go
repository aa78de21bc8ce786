package contracts

import (
	"fmt"
	"strings"
)

// Format tags an image format, either as a conversion target or as the
// detected format of an input file.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatWebP Format = "webp"
	FormatPDF  Format = "pdf"

	// Source-only formats. Files in these formats can be admitted and
	// decoded but are not conversion targets.
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatSVG  Format = "svg"

	// FormatUnknown tags an input whose declared media type is not
	// recognized.
	FormatUnknown Format = "unknown"
)

// FormatInfo describes one conversion target. Adding a target format is a
// data change in TargetFormats, not a logic change in the converter.
type FormatInfo struct {
	Ext           string
	MediaType     string
	SupportsAlpha bool
}

// TargetFormats is the set of formats the converter can encode to.
var TargetFormats = map[Format]FormatInfo{
	FormatPNG:  {Ext: "png", MediaType: "image/png", SupportsAlpha: true},
	FormatJPG:  {Ext: "jpg", MediaType: "image/jpeg", SupportsAlpha: false},
	FormatWebP: {Ext: "webp", MediaType: "image/webp", SupportsAlpha: true},
	FormatPDF:  {Ext: "pdf", MediaType: "application/pdf", SupportsAlpha: false},
}

// ParseFormat parses a user-supplied target format name. "jpeg" is
// accepted as an alias of "jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "webp":
		return FormatWebP, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown target format %q", s)
}

// Ext returns the canonical file extension without the dot.
func (f Format) Ext() string {
	if info, ok := TargetFormats[f]; ok {
		return info.Ext
	}
	return string(f)
}

// MediaType returns the canonical media type, or application/octet-stream
// for formats without a target entry.
func (f Format) MediaType() string {
	if info, ok := TargetFormats[f]; ok {
		return info.MediaType
	}
	return "application/octet-stream"
}

// SupportsAlpha reports whether the format keeps an alpha channel.
// Formats without a target entry are treated as opaque.
func (f Format) SupportsAlpha() bool {
	return TargetFormats[f].SupportsAlpha
}

var sourceByMediaType = map[string]Format{
	"image/png":     FormatPNG,
	"image/jpeg":    FormatJPG,
	"image/jpg":     FormatJPG,
	"image/webp":    FormatWebP,
	"image/gif":     FormatGIF,
	"image/bmp":     FormatBMP,
	"image/tiff":    FormatTIFF,
	"image/svg+xml": FormatSVG,
}

// SourceFormat maps a declared media type to a source format tag. An
// unrecognized or empty media type yields FormatUnknown; the filename
// extension is deliberately not consulted.
func SourceFormat(mediaType string) Format {
	if f, ok := sourceByMediaType[strings.ToLower(mediaType)]; ok {
		return f
	}
	return FormatUnknown
}
