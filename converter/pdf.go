package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/phpdave11/gofpdf"

	"imgconv/contracts"
)

// pdfEncoder wraps the surface in a single-page PDF sized from the
// input's probed DPI (72 when the input declares none).
type pdfEncoder struct{}

func (pdfEncoder) Format() contracts.Format { return contracts.FormatPDF }

func (pdfEncoder) Encode(img image.Image, opts EncodeOptions) ([]byte, error) {
	var jbuf bytes.Buffer
	if err := jpeg.Encode(&jbuf, img, &jpeg.Options{Quality: opts.quality()}); err != nil {
		return nil, fmt.Errorf("error staging JPEG for PDF: %w", err)
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = 72
	}
	bounds := img.Bounds()
	widthMM := float64(bounds.Dx()) * 25.4 / dpi
	heightMM := float64(bounds.Dy()) * 25.4 / dpi

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: widthMM, Ht: heightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: widthMM, Ht: heightMM})

	imgOpts := gofpdf.ImageOptions{ImageType: "JPEG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("page", imgOpts, &jbuf)
	pdf.ImageOptions("page", 0, 0, widthMM, heightMM, false, imgOpts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("error writing PDF: %w", err)
	}
	return out.Bytes(), nil
}
