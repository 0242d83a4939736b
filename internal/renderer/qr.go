package renderer

import (
	"fmt"
	"image"

	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/system"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// qrShare is the QR code edge relative to the canvas width.
const qrShare = 0.6

// QRCard draws a QR code of the slide payload centred on the background.
func (r *Renderer) QRCard(s slide.Slide) (*image.RGBA, error) {
	bg, err := slide.ParseColor(s.BackgroundColor)
	if err != nil {
		return nil, err
	}
	fg, err := slide.ParseColor(s.TextColor)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(s.Text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	q.BackgroundColor = bg
	q.ForegroundColor = fg

	size := int(float64(min(r.Width, r.Height)) * qrShare)
	code := q.Image(size)

	frame := system.GetFrame(r.Width, r.Height)
	fill(frame, bg)

	cb := code.Bounds()
	at := image.Pt((r.Width-cb.Dx())/2, (r.Height-cb.Dy())/2)
	draw.Draw(frame, image.Rectangle{Min: at, Max: at.Add(cb.Size())}, code, cb.Min, draw.Src)
	return frame, nil
}
