// Package server is the web form around the slide editor: add, edit,
// reorder and delete slides, then download the rendered e-card.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/engine"
	"github.com/ivlev/ecard2video/internal/renderer"
	"github.com/ivlev/ecard2video/internal/session"
	"github.com/ivlev/ecard2video/internal/video"
	"golang.org/x/sync/singleflight"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionKey = "session"

type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	store    *session.Store
	project  *engine.VideoProject
	renderer *renderer.Renderer

	// один рендер на сессию, повторные Generate ждут его результата
	renders singleflight.Group
}

func New(cfg *config.Config, store *session.Store, enc video.VideoEncoder) *Server {
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Debug {
		router.Use(gin.Logger())
	}
	router.MaxMultipartMemory = cfg.Upload.MaxBytes
	router.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")))

	s := &Server{
		cfg:      cfg,
		router:   router,
		store:    store,
		project:  engine.NewVideoProject(cfg, enc),
		renderer: renderer.New(cfg),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	ui := s.router.Group("/", s.sessionMiddleware())
	{
		ui.GET("/", s.index)
		ui.POST("/slides/image", s.addImage)
		ui.POST("/slides/text", s.addText)
		ui.POST("/slides/qr", s.addQR)
		ui.POST("/slides/pdf", s.addPDF)
		ui.POST("/slides/:index/edit", s.editSlide)
		ui.POST("/slides/:index/move", s.moveSlide)
		ui.POST("/slides/:index/delete", s.deleteSlide)
		ui.GET("/slides/:index/preview.png", s.previewSlide)
		ui.POST("/generate", s.generate)
		ui.GET("/api/slides", s.listSlides)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.store.Start(ctx, s.cfg.Session.JanitorTick)
	defer s.store.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"sessions":  s.store.Len(),
		"timestamp": time.Now(),
	})
}

func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := s.cfg.Session.CookieName
		id, _ := c.Cookie(name)
		sess, _ := s.store.GetOrCreate(id)
		// Max-Age продлевается на каждом запросе вместе с TTL на сервере
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, sess.ID, int(s.cfg.Session.TTL.Seconds()), "/", "", false, true)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
