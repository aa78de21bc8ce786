// Package utils probes image metadata that the conversion pipeline needs
// but the decoders do not expose.
package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// ProbeDPI returns the horizontal resolution declared by the file's
// metadata, checking EXIF resolution tags first and the PNG pHYs chunk
// second. Returns 72 when neither is present.
func ProbeDPI(data []byte) float64 {
	if dpi, err := dpiFromEXIF(data); err == nil {
		return dpi
	}
	if dpi, err := dpiFromPNG(data); err == nil {
		return dpi
	}
	return 72
}

func dpiFromEXIF(data []byte) (float64, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 0, fmt.Errorf("EXIF not found: %w", err)
	}

	im := exifcommon.NewIfdMapping()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return 0, err
	}
	_, index, err := exif.Collect(im, exif.NewTagIndex(), rawExif)
	if err != nil {
		return 0, err
	}

	tags, err := index.RootIfd.FindTagWithName("XResolution")
	if err != nil || len(tags) == 0 {
		return 0, fmt.Errorf("no XResolution tag")
	}
	val, err := tags[0].Value()
	if err != nil {
		return 0, err
	}
	rats, ok := val.([]exifcommon.Rational)
	if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
		return 0, fmt.Errorf("malformed XResolution value")
	}
	dpi := float64(rats[0].Numerator) / float64(rats[0].Denominator)

	// ResolutionUnit 3 means centimeters.
	if tags, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil && len(tags) > 0 {
		if val, err := tags[0].Value(); err == nil {
			if units, ok := val.([]uint16); ok && len(units) > 0 && units[0] == 3 {
				dpi *= 2.54
			} else if unit, ok := val.(uint16); ok && unit == 3 {
				dpi *= 2.54
			}
		}
	}

	if dpi <= 0 {
		return 0, fmt.Errorf("non-positive resolution")
	}
	return dpi, nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func dpiFromPNG(data []byte) (float64, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return 0, fmt.Errorf("not a PNG")
	}
	buf := bytes.NewReader(data[len(pngSignature):])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return 0, fmt.Errorf("no pHYs chunk")
		}

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			return 0, fmt.Errorf("no pHYs chunk")
		}

		if string(chunkType) == "pHYs" {
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return 0, err
			}
			// unit 1 is pixels per meter
			if unit == 1 {
				return float64(pxPerUnitX) * 0.0254, nil
			}
			return 0, fmt.Errorf("pHYs unit unknown")
		}

		// skip chunk data plus CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			return 0, fmt.Errorf("no pHYs chunk")
		}
	}
}
