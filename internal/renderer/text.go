package renderer

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/system"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// textMargin is the share of the canvas width kept free on each side.
const textMargin = 0.08

var (
	regularOnce sync.Once
	regularFont *opentype.Font
	regularErr  error
)

func loadFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// TextCard draws the slide text centred on a flat background, wrapped to the
// canvas width.
func (r *Renderer) TextCard(s slide.Slide) (*image.RGBA, error) {
	bg, err := slide.ParseColor(s.BackgroundColor)
	if err != nil {
		return nil, err
	}
	fg, err := slide.ParseColor(s.TextColor)
	if err != nil {
		return nil, err
	}

	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(s.FontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	frame := system.GetFrame(r.Width, r.Height)
	fill(frame, bg)

	maxWidth := fixed.I(r.Width - 2*int(float64(r.Width)*textMargin))
	lines := WrapText(face, s.Text, maxWidth)
	if len(lines) == 0 {
		return frame, nil
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	blockHeight := lineHeight * len(lines)
	y := (r.Height-blockHeight)/2 + metrics.Ascent.Ceil()

	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	for _, line := range lines {
		width := d.MeasureString(line)
		x := (fixed.I(r.Width) - width) / 2
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(y)}
		d.DrawString(line)
		y += lineHeight
	}
	return frame, nil
}

// WrapText breaks text into lines no wider than maxWidth. Explicit newlines
// are kept; words wider than a line are split between runes.
func WrapText(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			for font.MeasureString(face, word) > maxWidth {
				head, tail := splitWord(face, word, maxWidth)
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				lines = append(lines, head)
				word = tail
			}
			if word == "" {
				continue
			}

			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if font.MeasureString(face, candidate) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// splitWord returns the longest prefix of word that fits, at least one rune.
func splitWord(face font.Face, word string, maxWidth fixed.Int26_6) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && font.MeasureString(face, string(runes[:n+1])) <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
