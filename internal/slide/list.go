package slide

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type Field string

const (
	FieldDuration   Field = "duration"
	FieldTransition Field = "transition"
	FieldText       Field = "text"
	FieldBackground Field = "background_color"
	FieldTextColor  Field = "text_color"
	FieldFontSize   Field = "font_size"
)

type Direction int

const (
	Up Direction = iota
	Down
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: direction %q", ErrInvalidValue, s)
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// List is the ordered slide sequence of one session. Position is the only
// identity a slide has. List is not safe for concurrent use; the owning
// session serializes access.
type List struct {
	slides   []Slide
	revision uint64
}

func NewList(slides ...Slide) *List {
	l := &List{}
	l.slides = append(l.slides, slides...)
	return l
}

func (l *List) Len() int {
	return len(l.slides)
}

// Revision grows by one with every mutation that changed the list.
func (l *List) Revision() uint64 {
	return l.revision
}

func (l *List) At(index int) (Slide, error) {
	if err := l.checkIndex(index); err != nil {
		return Slide{}, err
	}
	return l.slides[index], nil
}

// Slides returns a copy of the current order.
func (l *List) Slides() []Slide {
	out := make([]Slide, len(l.slides))
	copy(out, l.slides)
	return out
}

func (l *List) Add(s Slide) (int, error) {
	if err := s.Validate(); err != nil {
		return -1, err
	}
	l.slides = append(l.slides, s)
	l.revision++
	return len(l.slides) - 1, nil
}

// Move swaps the slide at index with its neighbour. Moving past either end
// is a no-op and reports changed=false.
func (l *List) Move(index int, dir Direction) (bool, error) {
	if err := l.checkIndex(index); err != nil {
		return false, err
	}

	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if target < 0 || target >= len(l.slides) {
		return false, nil
	}

	l.slides[index], l.slides[target] = l.slides[target], l.slides[index]
	l.revision++
	return true, nil
}

func (l *List) Delete(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	l.slides = slices.Delete(l.slides, index, index+1)
	l.revision++
	return nil
}

// Edit parses value for field and stores it on the slide at index. On any
// error the slide keeps its previous value.
func (l *List) Edit(index int, field Field, value string) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}

	s := l.slides[index]
	value = strings.TrimSpace(value)

	switch field {
	case FieldDuration:
		v, err := parseFloat(field, value)
		if err != nil {
			return err
		}
		if err := checkRange(field, v, MinDuration, MaxDuration); err != nil {
			return err
		}
		s.Duration = snap(v, DurationStep)
	case FieldTransition:
		v, err := parseFloat(field, value)
		if err != nil {
			return err
		}
		if err := checkRange(field, v, MinTransition, MaxTransition); err != nil {
			return err
		}
		s.Transition = snap(v, TransitionStep)
	case FieldText:
		if s.Kind == KindImage {
			return fmt.Errorf("%w: %s on %s slide", ErrUnknownField, field, s.Kind)
		}
		if s.Kind == KindQR && value == "" {
			return fmt.Errorf("%w: qr payload must not be empty", ErrInvalidValue)
		}
		s.Text = value
	case FieldBackground, FieldTextColor:
		if s.Kind == KindImage {
			return fmt.Errorf("%w: %s on %s slide", ErrUnknownField, field, s.Kind)
		}
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if field == FieldBackground {
			s.BackgroundColor = strings.ToLower(value)
		} else {
			s.TextColor = strings.ToLower(value)
		}
	case FieldFontSize:
		if s.Kind != KindText {
			return fmt.Errorf("%w: %s on %s slide", ErrUnknownField, field, s.Kind)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, field, value)
		}
		if v < MinFontSize || v > MaxFontSize {
			return fmt.Errorf("%w: %s=%d outside [%d, %d]", ErrInvalidValue, field, v, MinFontSize, MaxFontSize)
		}
		s.FontSize = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	l.slides[index] = s
	l.revision++
	return nil
}

func (l *List) checkIndex(index int) error {
	if index < 0 || index >= len(l.slides) {
		return fmt.Errorf("%w: %d (have %d slides)", ErrOutOfRange, index, len(l.slides))
	}
	return nil
}

func parseFloat(field Field, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidValue, field, value)
	}
	return v, nil
}

// snap rounds v to the nearest multiple of step; the form inputs reject
// values that are off-step.
func snap(v, step float64) float64 {
	per := math.Round(1 / step)
	return math.Round(v*per) / per
}
