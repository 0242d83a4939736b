package slide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSlide(text string) Slide {
	return NewText(text, DefaultBackground, DefaultTextColor, DefaultFontSize)
}

func texts(l *List) []string {
	var out []string
	for _, s := range l.Slides() {
		out = append(out, s.Text)
	}
	return out
}

func TestAddDefaults(t *testing.T) {
	l := NewList()

	idx, err := l.Add(NewImage("couple.jpg", []byte{0xff, 0xd8}))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	s, err := l.At(0)
	require.NoError(t, err)
	assert.Equal(t, KindImage, s.Kind)
	assert.Equal(t, 4.0, s.Duration)
	assert.Equal(t, 1.0, s.Transition)
	assert.Equal(t, uint64(1), l.Revision())
}

func TestAddRejectsInvalid(t *testing.T) {
	l := NewList()

	_, err := l.Add(NewText("Save the date", DefaultBackground, DefaultTextColor, 150))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = l.Add(NewText("Save the date", "pink", DefaultTextColor, 60))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = l.Add(NewImage("empty.png", nil))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = l.Add(NewQR("  ", DefaultBackground, DefaultTextColor))
	assert.ErrorIs(t, err, ErrInvalidValue)

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, uint64(0), l.Revision())
}

func TestMoveThirdUpTwice(t *testing.T) {
	l := NewList(textSlide("1"), textSlide("2"), textSlide("3"))

	changed, err := l.Move(2, Up)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = l.Move(1, Up)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, []string{"3", "1", "2"}, texts(l))
}

func TestMoveUpThenDownRestores(t *testing.T) {
	for i := 1; i < 4; i++ {
		l := NewList(textSlide("a"), textSlide("b"), textSlide("c"), textSlide("d"))
		before := texts(l)

		_, err := l.Move(i, Up)
		require.NoError(t, err)
		_, err = l.Move(i-1, Down)
		require.NoError(t, err)

		assert.Equal(t, before, texts(l), "index %d", i)
	}
}

func TestMoveAtEdgesIsNoop(t *testing.T) {
	l := NewList(textSlide("a"), textSlide("b"))
	rev := l.Revision()

	changed, err := l.Move(0, Up)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = l.Move(1, Down)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, []string{"a", "b"}, texts(l))
	assert.Equal(t, rev, l.Revision())

	_, err = l.Move(5, Up)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDelete(t *testing.T) {
	l := NewList(textSlide("a"), textSlide("b"), textSlide("c"), textSlide("d"))

	require.NoError(t, l.Delete(1))
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"a", "c", "d"}, texts(l))

	assert.ErrorIs(t, l.Delete(3), ErrOutOfRange)
	assert.ErrorIs(t, l.Delete(-1), ErrOutOfRange)
	assert.Equal(t, 3, l.Len())
}

func TestDeleteReleasesImage(t *testing.T) {
	l := NewList(NewImage("a.png", []byte{1}), NewImage("b.png", []byte{2}))

	require.NoError(t, l.Delete(0))
	require.Equal(t, 1, l.Len())

	// хвост backing-массива не должен держать байты картинки
	tail := l.slides[:2][1]
	assert.Nil(t, tail.Image)
	assert.Equal(t, "b.png", l.slides[0].ImageName)
}

func TestEdit(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		value   string
		wantErr error
		check   func(t *testing.T, s Slide)
	}{
		{"duration in range", FieldDuration, "7.5", nil, func(t *testing.T, s Slide) { assert.Equal(t, 7.5, s.Duration) }},
		{"duration upper bound", FieldDuration, "10", nil, func(t *testing.T, s Slide) { assert.Equal(t, 10.0, s.Duration) }},
		{"duration too long", FieldDuration, "10.5", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 4.0, s.Duration) }},
		{"duration not a number", FieldDuration, "soon", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 4.0, s.Duration) }},
		{"duration NaN", FieldDuration, "NaN", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 4.0, s.Duration) }},
		{"transition in range", FieldTransition, "2.3", nil, func(t *testing.T, s Slide) { assert.Equal(t, 2.3, s.Transition) }},
		{"duration snapped to step", FieldDuration, "2.25", nil, func(t *testing.T, s Slide) { assert.Equal(t, 2.5, s.Duration) }},
		{"duration below step rejected", FieldDuration, "1.9", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 4.0, s.Duration) }},
		{"transition snapped to step", FieldTransition, "1.26", nil, func(t *testing.T, s Slide) { assert.Equal(t, 1.3, s.Transition) }},
		{"transition too short", FieldTransition, "0.2", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 1.0, s.Transition) }},
		{"font size", FieldFontSize, "90", nil, func(t *testing.T, s Slide) { assert.Equal(t, 90, s.FontSize) }},
		{"font size too big", FieldFontSize, "150", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, 60, s.FontSize) }},
		{"background", FieldBackground, "#FFFFFF", nil, func(t *testing.T, s Slide) { assert.Equal(t, "#ffffff", s.BackgroundColor) }},
		{"bad text color", FieldTextColor, "red", ErrInvalidValue, func(t *testing.T, s Slide) { assert.Equal(t, DefaultTextColor, s.TextColor) }},
		{"text", FieldText, "We're getting married", nil, func(t *testing.T, s Slide) { assert.Equal(t, "We're getting married", s.Text) }},
		{"unknown field", Field("opacity"), "1", ErrUnknownField, func(t *testing.T, s Slide) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewList(textSlide("Save the date"))
			err := l.Edit(0, tt.field, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			s, err := l.At(0)
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestEditKindRestrictions(t *testing.T) {
	l := NewList(NewImage("a.png", []byte{1}), NewQR("https://example.com/rsvp", DefaultBackground, "#000000"))

	assert.ErrorIs(t, l.Edit(0, FieldText, "hello"), ErrUnknownField)
	assert.ErrorIs(t, l.Edit(0, FieldFontSize, "40"), ErrUnknownField)
	assert.ErrorIs(t, l.Edit(1, FieldFontSize, "40"), ErrUnknownField)
	assert.ErrorIs(t, l.Edit(1, FieldText, ""), ErrInvalidValue)
	assert.NoError(t, l.Edit(1, FieldText, "https://example.com/rsvp?id=7"))
	assert.ErrorIs(t, l.Edit(2, FieldDuration, "3"), ErrOutOfRange)
}

func TestSlidesReturnsCopy(t *testing.T) {
	l := NewList(textSlide("a"))
	snapshot := l.Slides()
	snapshot[0].Text = "changed"

	s, _ := l.At(0)
	assert.Equal(t, "a", s.Text)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, MaxFontSize, ClampFontSize(150))
	assert.Equal(t, MinFontSize, ClampFontSize(5))
	assert.Equal(t, 60, ClampFontSize(60))
	assert.Equal(t, MaxDuration, ClampDuration(42))
	assert.Equal(t, MinTransition, ClampTransition(0))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("UP")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	_, err = ParseDirection("left")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#a52a2a")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xa5), c.R)
	assert.Equal(t, uint8(0x2a), c.G)
	assert.Equal(t, uint8(0x2a), c.B)
	assert.Equal(t, uint8(0xff), c.A)

	for _, bad := range []string{"", "a52a2a", "#a52a2", "#gggggg"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, ErrInvalidValue, bad)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Image: a.png", NewImage("a.png", []byte{1}).Label())
	assert.Equal(t, "Text: Save the date", textSlide("Save\nthe   date").Label())
}
