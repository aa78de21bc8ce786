package contracts

import (
	"path/filepath"
	"strings"
)

// FileInfo is one user-supplied input file: its name, its declared media
// type and its raw bytes. The bytes are owned by the caller and read-only
// to the conversion pipeline.
type FileInfo struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the input's byte size.
func (f FileInfo) Size() int64 {
	return int64(len(f.Data))
}

// Ext returns the lowercased filename extension including the dot, or ""
// when the name has none.
func (f FileInfo) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}
