package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/ecard2video/internal/engine"
	"github.com/ivlev/ecard2video/internal/session"
)

// generate renders the session's slides and sends the video as a download.
// The session stays locked for the whole render, so edits wait for it.
func (s *Server) generate(c *gin.Context) {
	sess := currentSession(c)
	ctx := context.WithoutCancel(c.Request.Context())

	v, err, shared := s.renders.Do(sess.ID, func() (interface{}, error) {
		return s.renderSession(ctx, sess)
	})
	if err != nil {
		if errors.Is(err, engine.ErrEmptyDeck) {
			s.renderPage(c, sess, http.StatusOK, "")
			return
		}
		slog.Error("render failed", "session", sess.ID, "error", err)
		s.renderPage(c, sess, http.StatusInternalServerError, fmt.Sprintf("Could not create the video: %v", err))
		return
	}

	data := v.([]byte)
	slog.Info("video delivered", "session", sess.ID, "bytes", len(data), "shared", shared)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.cfg.Render.OutputName))
	c.Data(http.StatusOK, "video/mp4", data)
}

// renderSession runs the pipeline and loads the result into memory, so the
// temp directory is gone before the first byte is sent.
func (s *Server) renderSession(ctx context.Context, sess *session.Session) ([]byte, error) {
	sess.Lock()
	defer sess.Unlock()

	slides := sess.List().Slides()
	slog.Info("render requested", "session", sess.ID, "slides", len(slides), "revision", sess.List().Revision())

	res, err := s.project.Run(ctx, slides)
	if err != nil {
		return nil, err
	}
	defer res.Cleanup()

	data, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("read rendered video: %w", err)
	}
	return data, nil
}
