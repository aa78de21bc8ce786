package contracts

// Handle is an opaque reference to a byte buffer held by a handle
// registry. The zero value is the empty handle; releasing it is a no-op.
type Handle string

// ConvertResult is the outcome of one successful conversion: a registry
// handle over the encoded bytes plus the reported geometry.
type ConvertResult struct {
	Handle      Handle
	Size        int64
	PixelWidth  int
	PixelHeight int
	Format      Format
}

// Converter converts one admitted file to a target format.
type Converter interface {
	Convert(file FileInfo, target Format) (ConvertResult, error)
}
