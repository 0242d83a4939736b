package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/ecard2video/internal/slide"
)

// Слайдеры формы ограничены диапазоном, поэтому значения при добавлении
// приводятся к допустимым, а не отклоняются.

func formFloat(c *gin.Context, key string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(key)), 64)
	if err != nil || v != v {
		return def
	}
	return v
}

func formInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.PostForm(key)))
	if err != nil {
		return def
	}
	return v
}

func formColor(c *gin.Context, key, def string) string {
	v := strings.ToLower(strings.TrimSpace(c.PostForm(key)))
	if v == "" {
		return def
	}
	return v
}

// applyTiming sets duration and transition from the add form.
func applyTiming(c *gin.Context, s *slide.Slide) {
	s.Duration = slide.ClampDuration(formFloat(c, "duration", slide.DefaultDuration))
	s.Transition = slide.ClampTransition(formFloat(c, "transition", slide.DefaultTransition))
}

func textSlideFromForm(c *gin.Context) slide.Slide {
	s := slide.NewText(
		strings.ReplaceAll(c.PostForm("text"), "\r\n", "\n"),
		formColor(c, "background_color", slide.DefaultBackground),
		formColor(c, "text_color", slide.DefaultTextColor),
		slide.ClampFontSize(formInt(c, "font_size", slide.DefaultFontSize)),
	)
	applyTiming(c, &s)
	return s
}

func qrSlideFromForm(c *gin.Context) slide.Slide {
	s := slide.NewQR(
		strings.TrimSpace(c.PostForm("payload")),
		formColor(c, "background_color", "#ffffff"),
		formColor(c, "text_color", "#000000"),
	)
	applyTiming(c, &s)
	return s
}

// multipartSlack covers boundaries and the small text fields sent along with
// the file.
const multipartSlack = 1 << 20

// readUpload reads the multipart file field, refusing anything above limit.
// The body is capped before gin parses it, so an oversized upload is never
// spooled in full.
func readUpload(c *gin.Context, field string, limit int64) (string, []byte, error) {
	if limit > 0 {
		if c.Request.ContentLength > limit+multipartSlack {
			return "", nil, fmt.Errorf("%w: body is %d bytes, limit %d", ErrTooLarge, c.Request.ContentLength, limit)
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)
	}
	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, fmt.Errorf("%w: limit %d", ErrTooLarge, limit)
		}
		return "", nil, fmt.Errorf("%w: %s", ErrNoUpload, field)
	}
	if limit > 0 && fh.Size > limit {
		return "", nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, fh.Filename, fh.Size, limit)
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// editFields lists the edit panel inputs in the order they are applied.
var editFields = []slide.Field{
	slide.FieldDuration,
	slide.FieldTransition,
	slide.FieldText,
	slide.FieldBackground,
	slide.FieldTextColor,
	slide.FieldFontSize,
}

func parseIndex(c *gin.Context) (int, error) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadIndex, c.Param("index"))
	}
	return i, nil
}
