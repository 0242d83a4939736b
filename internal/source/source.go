package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

var ErrNoPages = errors.New("document has no pages")

// Source is a paged document whose pages can be rasterized.
type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

type FitzPDFSource struct {
	doc *fitz.Document
}

// NewFitzPDFSource opens an uploaded PDF held in memory.
func NewFitzPDFSource(data []byte) (*FitzPDFSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrDecode, err)
	}
	return &FitzPDFSource{doc: doc}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Page is one rasterized document page, PNG encoded so it can be stored as
// an ordinary image slide.
type Page struct {
	Name string
	PNG  []byte
}

// Pages rasterizes up to maxPages pages of src in order.
func Pages(src Source, baseName string, dpi, maxPages int) ([]Page, error) {
	count := src.PageCount()
	if count == 0 {
		return nil, ErrNoPages
	}
	if maxPages > 0 && count > maxPages {
		count = maxPages
	}

	pages := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		img, err := src.RenderPage(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		pages = append(pages, Page{
			Name: fmt.Sprintf("%s_page%02d.png", baseName, i+1),
			PNG:  buf.Bytes(),
		})
	}
	return pages, nil
}
