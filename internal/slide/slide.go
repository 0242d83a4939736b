// Package slide holds the e-card slide model and the ordered slide list that
// a single editing session mutates.
package slide

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
	KindQR    Kind = "qr"
)

const (
	MinDuration    = 2.0
	MaxDuration    = 10.0
	DurationStep   = 0.5
	MinTransition  = 0.5
	MaxTransition  = 3.0
	TransitionStep = 0.1
	MinFontSize    = 30
	MaxFontSize    = 120

	DefaultDuration   = 4.0
	DefaultTransition = 1.0
	DefaultBackground = "#fdf6f0"
	DefaultTextColor  = "#a52a2a"
	DefaultFontSize   = 60
)

// Slide is one timed visual unit of the output video. Image slides carry the
// uploaded bytes; text and QR slides carry text plus styling.
type Slide struct {
	Kind       Kind    `json:"kind"`
	Duration   float64 `json:"duration"`
	Transition float64 `json:"transition"`

	Image     []byte `json:"-"`
	ImageName string `json:"image_name,omitempty"`

	Text            string `json:"text,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	FontSize        int    `json:"font_size,omitempty"`
}

func NewImage(name string, data []byte) Slide {
	return Slide{
		Kind:       KindImage,
		Duration:   DefaultDuration,
		Transition: DefaultTransition,
		Image:      data,
		ImageName:  name,
	}
}

func NewText(text, background, textColor string, fontSize int) Slide {
	return Slide{
		Kind:            KindText,
		Duration:        DefaultDuration,
		Transition:      DefaultTransition,
		Text:            text,
		BackgroundColor: background,
		TextColor:       textColor,
		FontSize:        fontSize,
	}
}

// NewQR builds a card whose QR code encodes payload (typically an RSVP link).
func NewQR(payload, background, moduleColor string) Slide {
	return Slide{
		Kind:            KindQR,
		Duration:        DefaultDuration,
		Transition:      DefaultTransition,
		Text:            payload,
		BackgroundColor: background,
		TextColor:       moduleColor,
	}
}

func (s Slide) Validate() error {
	if err := checkRange(FieldDuration, s.Duration, MinDuration, MaxDuration); err != nil {
		return err
	}
	if err := checkRange(FieldTransition, s.Transition, MinTransition, MaxTransition); err != nil {
		return err
	}

	switch s.Kind {
	case KindImage:
		if len(s.Image) == 0 {
			return fmt.Errorf("%w: image slide without image data", ErrInvalidValue)
		}
	case KindText:
		if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
			return fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrInvalidValue, FieldFontSize, s.FontSize, MinFontSize, MaxFontSize)
		}
		fallthrough
	case KindQR:
		if _, err := ParseColor(s.BackgroundColor); err != nil {
			return fmt.Errorf("%s: %w", FieldBackground, err)
		}
		if _, err := ParseColor(s.TextColor); err != nil {
			return fmt.Errorf("%s: %w", FieldTextColor, err)
		}
		if s.Kind == KindQR && strings.TrimSpace(s.Text) == "" {
			return fmt.Errorf("%w: qr slide without payload", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: unknown slide kind %q", ErrInvalidValue, s.Kind)
	}
	return nil
}

// Label is a short human description used in logs and on the editor page.
func (s Slide) Label() string {
	switch s.Kind {
	case KindImage:
		return "Image: " + s.ImageName
	case KindQR:
		return "QR: " + s.Text
	default:
		text := strings.Join(strings.Fields(s.Text), " ")
		if len([]rune(text)) > 40 {
			text = string([]rune(text)[:40]) + "…"
		}
		return "Text: " + text
	}
}

// ParseColor accepts "#rrggbb" (as produced by HTML color inputs).
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidValue, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidValue, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func ClampDuration(v float64) float64 {
	return clamp(v, MinDuration, MaxDuration)
}

func ClampTransition(v float64) float64 {
	return clamp(v, MinTransition, MaxTransition)
}

func ClampFontSize(v int) int {
	if v < MinFontSize {
		return MinFontSize
	}
	if v > MaxFontSize {
		return MaxFontSize
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func checkRange(field Field, v, lo, hi float64) error {
	if v != v || v < lo || v > hi {
		return fmt.Errorf("%w: %s=%g outside [%g, %g]", ErrInvalidValue, field, v, lo, hi)
	}
	return nil
}
