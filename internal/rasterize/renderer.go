package rasterize

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	baseDPI        = 72
	defaultScale   = 1.5
	defaultQuality = 85
)

// Renderer rasterizes PDF documents to JPEG page images via MuPDF.
// Scale multiplies the PDF's natural 72 DPI; Quality is the JPEG
// encoder quality.
type Renderer struct {
	Scale   float64
	Quality int
}

// NewRenderer creates a Renderer, substituting defaults for zero or
// out-of-range options.
func NewRenderer(scale float64, quality int) *Renderer {
	if scale <= 0 {
		scale = defaultScale
	}
	if quality < 1 || quality > 100 {
		quality = defaultQuality
	}
	return &Renderer{Scale: scale, Quality: quality}
}

// Open validates the document bytes and prepares them for page rendering.
func (r *Renderer) Open(data []byte) (domain.PageSequence, error) {
	if len(data) == 0 {
		return nil, domain.DecodeError("document is empty", nil)
	}
	if err := validatePDF(data); err != nil {
		return nil, domain.DecodeError("failed to validate PDF", err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.DecodeError("failed to open PDF", err)
	}

	return &Document{
		doc:     doc,
		dpi:     baseDPI * r.Scale,
		quality: r.Quality,
	}, nil
}

// validatePDF runs a relaxed structural validation over the byte stream, so
// clearly corrupt uploads are rejected before MuPDF touches them.
func validatePDF(data []byte) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.Validate(bytes.NewReader(data), cfg)
}

// Document is one open PDF, rendered strictly one page at a time.
type Document struct {
	doc     *fitz.Document
	dpi     float64
	quality int
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage renders the 1-based page n and encodes it as JPEG.
func (d *Document) RenderPage(n int) (domain.PageImage, error) {
	if n < 1 || n > d.doc.NumPage() {
		return domain.PageImage{}, domain.RenderError(fmt.Sprintf("page %d out of range 1..%d", n, d.doc.NumPage()), nil)
	}

	img, err := d.doc.ImageDPI(n-1, d.dpi)
	if err != nil {
		return domain.PageImage{}, domain.RenderError(fmt.Sprintf("failed to render page %d", n), err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.quality}); err != nil {
		return domain.PageImage{}, domain.RenderError(fmt.Sprintf("failed to encode page %d as JPG", n), err)
	}

	bounds := img.Bounds()
	return domain.PageImage{
		Number: n,
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Close releases the underlying MuPDF document.
func (d *Document) Close() error {
	return d.doc.Close()
}
