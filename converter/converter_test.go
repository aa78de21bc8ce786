package converter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"imgconv/contracts"
	"imgconv/handles"
)

// makePNG encodes a solid-colored PNG of the given size.
func makePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func pngFile(t *testing.T, name string, width, height int, c color.Color) contracts.FileInfo {
	t.Helper()
	return contracts.FileInfo{
		Name:      name,
		MediaType: "image/png",
		Data:      makePNG(t, width, height, c),
	}
}

func TestConvertPNGToPNG(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	file := pngFile(t, "in.png", 800, 600, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	result, err := conv.Convert(file, contracts.FormatPNG)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if result.Size == 0 {
		t.Fatal("result size is 0")
	}
	if result.PixelWidth != 800 || result.PixelHeight != 600 {
		t.Errorf("dimensions %dx%d, want 800x600", result.PixelWidth, result.PixelHeight)
	}

	// the reported size must agree with an independent refetch
	data, mediaType, ok := registry.Get(result.Handle)
	if !ok {
		t.Fatal("result handle not retrievable")
	}
	if mediaType != "image/png" {
		t.Errorf("media type = %q, want image/png", mediaType)
	}
	if int64(len(data)) != result.Size {
		t.Errorf("refetched %d bytes, result reports %d", len(data), result.Size)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a valid PNG: %v", err)
	}
}

func TestConvertToJPGFillsWhiteBackground(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	// fully transparent input; an opaque target must show white, not black
	file := pngFile(t, "clear.png", 16, 16, color.RGBA{})
	result, err := conv.Convert(file, contracts.FormatJPG)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	data, mediaType, _ := registry.Get(result.Handle)
	if mediaType != "image/jpeg" {
		t.Errorf("media type = %q, want image/jpeg", mediaType)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a valid JPEG: %v", err)
	}
	r, g, b, _ := img.At(8, 8).RGBA()
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("background pixel = (%d, %d, %d), want near-white", r>>8, g>>8, b>>8)
	}
}

func TestConvertToPNGKeepsTransparency(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	file := pngFile(t, "clear.png", 8, 8, color.RGBA{})
	result, err := conv.Convert(file, contracts.FormatPNG)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	data, _, _ := registry.Get(result.Handle)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, _, _, a := img.At(4, 4).RGBA(); a != 0 {
		t.Errorf("alpha = %d, want 0 for an alpha-capable target", a)
	}
}

func TestConvertToPDF(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	file := pngFile(t, "page.png", 40, 30, color.RGBA{R: 200, A: 255})
	result, err := conv.Convert(file, contracts.FormatPDF)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	data, mediaType, _ := registry.Get(result.Handle)
	if mediaType != "application/pdf" {
		t.Errorf("media type = %q", mediaType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestConvertMalformedInput(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	file := contracts.FileInfo{
		Name:      "broken.png",
		MediaType: "image/png",
		Data:      []byte("this is not an image at all"),
	}
	_, err := conv.Convert(file, contracts.FormatPNG)
	if err == nil {
		t.Fatal("expected an error for malformed input")
	}

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("error is %T, want *ConversionError", err)
	}
	if convErr.Stage != "decode" {
		t.Errorf("stage = %q, want decode", convErr.Stage)
	}
	if registry.Len() != 0 {
		t.Errorf("failed conversion allocated %d handles", registry.Len())
	}
}

type fakeEncoder struct {
	format contracts.Format
	data   []byte
	err    error
}

func (f fakeEncoder) Format() contracts.Format { return f.format }

func (f fakeEncoder) Encode(_ image.Image, _ EncodeOptions) ([]byte, error) {
	return f.data, f.err
}

func TestConvertEmptyEncodeOutputFails(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)
	conv.Register(fakeEncoder{format: contracts.FormatWebP, data: nil})

	file := pngFile(t, "a.png", 4, 4, color.RGBA{A: 255})
	_, err := conv.Convert(file, contracts.FormatWebP)

	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("error is %T, want *ConversionError", err)
	}
	if convErr.Stage != "encode" {
		t.Errorf("stage = %q, want encode", convErr.Stage)
	}
	if registry.Len() != 0 {
		t.Errorf("empty encode allocated %d handles", registry.Len())
	}
}

// captureEncoder records the EncodeOptions it was handed.
type captureEncoder struct {
	format contracts.Format
	opts   *EncodeOptions
}

func (c captureEncoder) Format() contracts.Format { return c.format }

func (c captureEncoder) Encode(_ image.Image, opts EncodeOptions) ([]byte, error) {
	*c.opts = opts
	return []byte{1}, nil
}

func TestQualityReachesEncoders(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	var seen EncodeOptions
	conv.Register(captureEncoder{format: contracts.FormatJPG, opts: &seen})
	file := pngFile(t, "a.png", 4, 4, color.RGBA{A: 255})

	if _, err := conv.Convert(file, contracts.FormatJPG); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if seen.Quality != EncodeQuality {
		t.Errorf("default quality = %d, want %d", seen.Quality, EncodeQuality)
	}

	conv.SetQuality(55)
	if _, err := conv.Convert(file, contracts.FormatJPG); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if seen.Quality != 55 {
		t.Errorf("quality = %d, want 55", seen.Quality)
	}

	// out-of-range values are ignored, the last valid setting holds
	conv.SetQuality(0)
	conv.SetQuality(101)
	if _, err := conv.Convert(file, contracts.FormatJPG); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if seen.Quality != 55 {
		t.Errorf("quality after invalid settings = %d, want 55", seen.Quality)
	}
}

func TestConvertBatch(t *testing.T) {
	registry := handles.NewRegistry()
	conv := New(registry)

	files := []contracts.FileInfo{
		pngFile(t, "one.png", 12, 12, color.RGBA{R: 255, A: 255}),
		{Name: "broken.png", MediaType: "image/png", Data: []byte("junk")},
		pngFile(t, "three.png", 6, 6, color.RGBA{B: 255, A: 255}),
	}

	results := conv.ConvertBatch(files, contracts.FormatJPG, 2)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].File.Name != "one.png" || results[2].File.Name != "three.png" {
		t.Error("results not in input order")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected failures: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("malformed input did not fail")
	}
	if results[0].Result.Size == 0 || results[2].Result.Size == 0 {
		t.Error("successful results report zero size")
	}
	if registry.Len() != 2 {
		t.Errorf("expected 2 live handles, got %d", registry.Len())
	}
}

// Exercises the real libvips paths (SVG decode, WebP encode). Needs a
// libvips installation, so it is opt-in.
func TestConvertSVGToWebP(t *testing.T) {
	if os.Getenv("IMGCONV_TEST_VIPS") == "" {
		t.Skip("set IMGCONV_TEST_VIPS=1 to run libvips integration tests")
	}
	InitVips()
	defer ShutdownVips()

	registry := handles.NewRegistry()
	conv := New(registry)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50"><rect width="100" height="50" fill="red"/></svg>`)
	file := contracts.FileInfo{Name: "box.svg", MediaType: "image/svg+xml", Data: svg}

	result, err := conv.Convert(file, contracts.FormatWebP)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.Size == 0 {
		t.Error("empty webp output")
	}
	if result.PixelWidth != 100 || result.PixelHeight != 50 {
		t.Errorf("dimensions %dx%d, want 100x50", result.PixelWidth, result.PixelHeight)
	}
}
