package server

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/ecard2video/internal/session"
	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/source"
	"github.com/ivlev/ecard2video/internal/system"
)

func (s *Server) index(c *gin.Context) {
	s.renderPage(c, currentSession(c), http.StatusOK, "")
}

// mutate runs fn under the session lock and redirects back to the editor.
// A failed action leaves its message for the next page render.
func (s *Server) mutate(c *gin.Context, action string, fn func(l *slide.List) error) {
	sess := currentSession(c)
	sess.Lock()
	err := fn(sess.List())
	if err != nil {
		sess.SetFlash(err.Error())
	}
	rev := sess.List().Revision()
	sess.Unlock()

	if err != nil {
		slog.Warn("slide action rejected", "session", sess.ID, "action", action, "error", err)
	} else {
		slog.Debug("slide action", "session", sess.ID, "action", action, "revision", rev)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) addImage(c *gin.Context) {
	name, data, upErr := readUpload(c, "image", s.cfg.Upload.MaxBytes)
	s.mutate(c, "add image", func(l *slide.List) error {
		if upErr != nil {
			return upErr
		}
		w, h, err := source.CheckImage(name, data)
		if err != nil {
			return err
		}
		if w*h > s.cfg.Upload.MaxPixels {
			return fmt.Errorf("%w: %s is %dx%d pixels, limit %d", ErrTooLarge, name, w, h, s.cfg.Upload.MaxPixels)
		}
		sl := slide.NewImage(filepath.Base(name), data)
		applyTiming(c, &sl)
		_, err = l.Add(sl)
		return err
	})
}

func (s *Server) addText(c *gin.Context) {
	sl := textSlideFromForm(c)
	s.mutate(c, "add text", func(l *slide.List) error {
		_, err := l.Add(sl)
		return err
	})
}

func (s *Server) addQR(c *gin.Context) {
	sl := qrSlideFromForm(c)
	s.mutate(c, "add qr", func(l *slide.List) error {
		_, err := l.Add(sl)
		return err
	})
}

// addPDF appends every page of the uploaded PDF as an image slide.
func (s *Server) addPDF(c *gin.Context) {
	name, data, err := readUpload(c, "pdf", s.cfg.Upload.MaxBytes)
	var pages []source.Page
	if err == nil {
		pages, err = s.pdfPages(name, data)
	}

	s.mutate(c, "add pdf", func(l *slide.List) error {
		if err != nil {
			return err
		}
		for _, p := range pages {
			sl := slide.NewImage(p.Name, p.PNG)
			applyTiming(c, &sl)
			if _, err := l.Add(sl); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) pdfPages(name string, data []byte) ([]source.Page, error) {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, fmt.Errorf("%w: %s (want pdf)", source.ErrUnsupportedImage, name)
	}
	doc, err := source.NewFitzPDFSource(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return source.Pages(doc, base, s.cfg.Upload.PDFDPI, s.cfg.Upload.PDFMaxPages)
}

// editSlide applies every edit panel field present in the form. Each field
// is validated on its own; a rejected field keeps its previous value.
func (s *Server) editSlide(c *gin.Context) {
	index, ierr := parseIndex(c)
	s.mutate(c, "edit", func(l *slide.List) error {
		if ierr != nil {
			return ierr
		}
		var errs []error
		for _, f := range editFields {
			v, ok := c.GetPostForm(string(f))
			if !ok {
				continue
			}
			v = strings.ReplaceAll(v, "\r\n", "\n")
			if err := l.Edit(index, f, v); err != nil {
				if errors.Is(err, slide.ErrOutOfRange) {
					return err
				}
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func (s *Server) moveSlide(c *gin.Context) {
	index, ierr := parseIndex(c)
	dir, derr := slide.ParseDirection(c.PostForm("direction"))
	s.mutate(c, "move", func(l *slide.List) error {
		if err := errors.Join(ierr, derr); err != nil {
			return err
		}
		_, err := l.Move(index, dir)
		return err
	})
}

func (s *Server) deleteSlide(c *gin.Context) {
	index, ierr := parseIndex(c)
	s.mutate(c, "delete", func(l *slide.List) error {
		if ierr != nil {
			return ierr
		}
		return l.Delete(index)
	})
}

// previewSlide returns the still frame of a slide as PNG.
func (s *Server) previewSlide(c *gin.Context) {
	index, err := parseIndex(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sl, err := slideAt(currentSession(c), index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	frame, err := s.renderer.Render(sl)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	defer system.PutFrame(frame)

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) listSlides(c *gin.Context) {
	sess := currentSession(c)
	sess.Lock()
	slides := sess.List().Slides()
	rev := sess.List().Revision()
	sess.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"revision": rev,
		"count":    len(slides),
		"slides":   slides,
	})
}

func slideAt(sess *session.Session, index int) (slide.Slide, error) {
	sess.Lock()
	defer sess.Unlock()
	return sess.List().At(index)
}
