package server

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/ecard2video/internal/session"
	"github.com/ivlev/ecard2video/internal/slide"
)

type slideView struct {
	Index int
	slide.Slide
	Label  string
	First  bool
	Last   bool
	IsText bool
	IsQR   bool
}

type limits struct {
	MinDuration, MaxDuration, DurationStep       float64
	MinTransition, MaxTransition, TransitionStep float64
	MinFontSize, MaxFontSize                     int
}

type pageData struct {
	Slides   []slideView
	Revision uint64
	Flash    string
	Error    string
	Awaiting bool
	Limits   limits
	Defaults slide.Slide
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var formLimits = limits{
	MinDuration: slide.MinDuration, MaxDuration: slide.MaxDuration, DurationStep: slide.DurationStep,
	MinTransition: slide.MinTransition, MaxTransition: slide.MaxTransition, TransitionStep: slide.TransitionStep,
	MinFontSize: slide.MinFontSize, MaxFontSize: slide.MaxFontSize,
}

// renderPage draws the editor for sess. It takes the session lock itself.
func (s *Server) renderPage(c *gin.Context, sess *session.Session, status int, errMsg string) {
	sess.Lock()
	slides := sess.List().Slides()
	rev := sess.List().Revision()
	flash := sess.TakeFlash()
	sess.Unlock()

	data := pageData{
		Slides:   make([]slideView, len(slides)),
		Revision: rev,
		Flash:    flash,
		Error:    errMsg,
		Awaiting: len(slides) == 0,
		Limits:   formLimits,
		Defaults: slide.NewText("", slide.DefaultBackground, slide.DefaultTextColor, slide.DefaultFontSize),
	}
	for i, sl := range slides {
		data.Slides[i] = slideView{
			Index:  i,
			Slide:  sl,
			Label:  sl.Label(),
			First:  i == 0,
			Last:   i == len(slides)-1,
			IsText: sl.Kind == slide.KindText,
			IsQR:   sl.Kind == slide.KindQR,
		}
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(status, "index.html", data)
}
