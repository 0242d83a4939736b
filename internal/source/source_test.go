package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pages   int
	failAt  int
	closed  bool
	renders []int
}

func (f *fakeSource) PageCount() int { return f.pages }

func (f *fakeSource) GetPageDimensions(int) (float64, float64, error) { return 100, 50, nil }

func (f *fakeSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index == f.failAt {
		return nil, errors.New("broken page")
	}
	f.renders = append(f.renders, index)
	img := image.NewRGBA(image.Rect(0, 0, 10, 5))
	img.Set(0, 0, color.RGBA{R: uint8(index), A: 255})
	return img, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestPages(t *testing.T) {
	src := &fakeSource{pages: 3, failAt: -1}

	pages, err := Pages(src, "invite", 150, 0)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "invite_page01.png", pages[0].Name)
	assert.Equal(t, "invite_page03.png", pages[2].Name)
	assert.Equal(t, []int{0, 1, 2}, src.renders)

	_, _, err = CheckImage(pages[1].Name, pages[1].PNG)
	assert.NoError(t, err)
}

func TestPagesLimitAndErrors(t *testing.T) {
	pages, err := Pages(&fakeSource{pages: 10, failAt: -1}, "deck", 72, 4)
	require.NoError(t, err)
	assert.Len(t, pages, 4)

	_, err = Pages(&fakeSource{pages: 0, failAt: -1}, "deck", 72, 4)
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = Pages(&fakeSource{pages: 3, failAt: 1}, "deck", 72, 0)
	assert.ErrorContains(t, err, "render page 2")
}

func TestCheckImage(t *testing.T) {
	data := encodePNG(t, 40, 30)

	w, h, err := CheckImage("photo.PNG", data)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	_, _, err = CheckImage("photo.jpeg", jpg.Bytes())
	assert.NoError(t, err)

	_, _, err = CheckImage("photo.gif", data)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = CheckImage("photo.jpg", []byte("not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = DecodeImage([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrDecode)
}
