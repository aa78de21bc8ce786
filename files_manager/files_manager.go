// Package files_manager decides which user-supplied files are admitted
// for conversion and loads files from disk for batch mode.
package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imgconv/contracts"
	"imgconv/logging"
)

var supportedMediaTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/webp":    true,
	"image/gif":     true,
	"image/bmp":     true,
	"image/tiff":    true,
	"image/svg+xml": true,
}

var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".svg":  true,
}

var mediaTypeByExtension = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".svg":  "image/svg+xml",
}

// SupportsFileType reports whether a file is eligible for conversion: the
// declared media type is checked first, then the lowercased filename
// extension. Pure predicate, no side effects beyond debug logging.
func SupportsFileType(f contracts.FileInfo) bool {
	if supportedMediaTypes[strings.ToLower(f.MediaType)] {
		return true
	}
	if supportedExtensions[f.Ext()] {
		return true
	}
	logging.Debug("rejecting %q: media type %q and extension %q not supported",
		f.Name, f.MediaType, f.Ext())
	return false
}

// FilterSupported returns the admitted subset of files in input order.
// The input is not mutated.
func FilterSupported(files []contracts.FileInfo) []contracts.FileInfo {
	admitted := make([]contracts.FileInfo, 0, len(files))
	for _, f := range files {
		if SupportsFileType(f) {
			admitted = append(admitted, f)
		}
	}
	return admitted
}

// MediaTypeForName derives a media type from the filename extension for
// files read from disk, where no declared type exists. Unrecognized
// extensions yield application/octet-stream.
func MediaTypeForName(name string) string {
	if mt, ok := mediaTypeByExtension[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// ScanDir walks dir and returns the paths of all supported image files
// plus their total byte size.
func ScanDir(dir string) ([]string, int64, error) {
	var paths []string
	var size int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), "._") {
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(info.Name()))] {
			paths = append(paths, path)
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return nil, size, fmt.Errorf("error while scanning directory: %w", err)
	}
	return paths, size, nil
}

// LoadFile reads one file from disk into a FileInfo, deriving the media
// type from the extension.
func LoadFile(path string) (contracts.FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.FileInfo{}, fmt.Errorf("error reading %s: %w", path, err)
	}
	name := filepath.Base(path)
	return contracts.FileInfo{
		Name:      name,
		MediaType: MediaTypeForName(name),
		Data:      data,
	}, nil
}
