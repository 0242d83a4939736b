// Package deck reads and writes slide decks: YAML descriptions of an e-card
// for rendering from the command line.
package deck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/source"
	"gopkg.in/yaml.v3"
)

const Version = "1.0"

// Deck is a complete e-card description.
type Deck struct {
	Version string      `yaml:"version"`
	Output  string      `yaml:"output,omitempty"`
	Slides  []SlideSpec `yaml:"slides"`
}

// SlideSpec describes one slide. Zero values take the editor defaults.
type SlideSpec struct {
	Kind            slide.Kind `yaml:"kind"`
	Input           string     `yaml:"input,omitempty"` // image path, relative to the deck file
	Duration        float64    `yaml:"duration,omitempty"`
	Transition      float64    `yaml:"transition,omitempty"`
	Text            string     `yaml:"text,omitempty"`
	BackgroundColor string     `yaml:"background_color,omitempty"`
	TextColor       string     `yaml:"text_color,omitempty"`
	FontSize        int        `yaml:"font_size,omitempty"`
}

// Write writes a deck to a YAML file
func Write(d *Deck, path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read reads a deck from a YAML file
func Read(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse deck %s: %w", path, err)
	}
	if d.Version == "" {
		d.Version = Version
	}
	return &d, nil
}

// ToList loads images and builds a validated slide list. Relative inputs
// are resolved against baseDir.
func ToList(d *Deck, baseDir string) (*slide.List, error) {
	l := slide.NewList()
	for i, ss := range d.Slides {
		s, err := ss.toSlide(baseDir)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		if _, err := l.Add(s); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return l, nil
}

// FromSlides is the reverse of ToList for text and QR slides; image slides
// keep their file name as input.
func FromSlides(slides []slide.Slide) *Deck {
	d := &Deck{Version: Version}
	for _, s := range slides {
		d.Slides = append(d.Slides, SlideSpec{
			Kind:            s.Kind,
			Input:           s.ImageName,
			Duration:        s.Duration,
			Transition:      s.Transition,
			Text:            s.Text,
			BackgroundColor: s.BackgroundColor,
			TextColor:       s.TextColor,
			FontSize:        s.FontSize,
		})
	}
	return d
}

func (ss SlideSpec) toSlide(baseDir string) (slide.Slide, error) {
	var s slide.Slide
	switch ss.Kind {
	case slide.KindImage:
		if ss.Input == "" {
			return s, fmt.Errorf("%w: image slide without input", slide.ErrInvalidValue)
		}
		path := ss.Input
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return s, err
		}
		if _, _, err := source.CheckImage(path, data); err != nil {
			return s, err
		}
		s = slide.NewImage(filepath.Base(path), data)
	case slide.KindText, "":
		s = slide.NewText(ss.Text,
			orDefault(ss.BackgroundColor, slide.DefaultBackground),
			orDefault(ss.TextColor, slide.DefaultTextColor),
			slide.DefaultFontSize)
		if ss.FontSize != 0 {
			s.FontSize = ss.FontSize
		}
	case slide.KindQR:
		s = slide.NewQR(ss.Text,
			orDefault(ss.BackgroundColor, "#ffffff"),
			orDefault(ss.TextColor, "#000000"))
	default:
		return s, fmt.Errorf("%w: unknown slide kind %q", slide.ErrInvalidValue, ss.Kind)
	}

	if ss.Duration != 0 {
		s.Duration = ss.Duration
	}
	if ss.Transition != 0 {
		s.Transition = ss.Transition
	}
	return s, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
