// Package renderer materializes slides into still frames at the output
// resolution. Motion (zoom, fades) is applied later by FFmpeg.
package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/source"
	"github.com/ivlev/ecard2video/internal/system"
	"golang.org/x/image/draw"
)

type Renderer struct {
	Width, Height int
	Brightness    float64
	Contrast      float64
}

func New(cfg *config.Config) *Renderer {
	return &Renderer{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Brightness: cfg.Render.Brightness,
		Contrast:   cfg.Render.Contrast,
	}
}

// Render returns the still frame of s. The frame comes from the shared pool;
// callers hand it back with system.PutFrame when done.
func (r *Renderer) Render(s slide.Slide) (*image.RGBA, error) {
	switch s.Kind {
	case slide.KindImage:
		return r.PrepareImage(s.Image)
	case slide.KindText:
		return r.TextCard(s)
	case slide.KindQR:
		return r.QRCard(s)
	}
	return nil, fmt.Errorf("unknown slide kind %q", s.Kind)
}

// PrepareImage decodes an uploaded photo, lifts brightness and contrast and
// stretches it to the output resolution.
func (r *Renderer) PrepareImage(data []byte) (*image.RGBA, error) {
	img, err := source.DecodeImage(data)
	if err != nil {
		return nil, err
	}

	rgb := flatten(img)
	Brightness(rgb, r.Brightness)
	Contrast(rgb, r.Contrast)

	frame := system.GetFrame(r.Width, r.Height)
	draw.CatmullRom.Scale(frame, frame.Bounds(), rgb, rgb.Bounds(), draw.Src, nil)
	return frame, nil
}

// flatten copies img onto an opaque black RGBA canvas anchored at 0,0.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// Brightness scales every channel by factor (blend against black).
func Brightness(img *image.RGBA, factor float64) {
	if factor == 1 {
		return
	}
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(float64(i) * factor)
	}
	applyLUT(img, &lut)
}

// Contrast pushes channels away from the mean luminance of the image by factor
// (blend against a flat grey of that mean).
func Contrast(img *image.RGBA, factor float64) {
	if factor == 1 {
		return
	}
	mean := float64(int(MeanLuminance(img) + 0.5))
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(mean + (float64(i)-mean)*factor)
	}
	applyLUT(img, &lut)
}

// MeanLuminance uses the ITU-R 601-2 luma transform.
func MeanLuminance(img *image.RGBA) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			sum += (uint64(row[i])*299 + uint64(row[i+1])*587 + uint64(row[i+2])*114) / 1000
		}
	}
	return float64(sum) / float64(b.Dx()*b.Dy())
}

func applyLUT(img *image.RGBA, lut *[256]uint8) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func fill(img *image.RGBA, c color.Color) {
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}
