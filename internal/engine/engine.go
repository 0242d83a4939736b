// Package engine drives one render: every slide becomes a timed segment,
// the segments are joined in list order into a single video file.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/effects"
	"github.com/ivlev/ecard2video/internal/renderer"
	"github.com/ivlev/ecard2video/internal/slide"
	"github.com/ivlev/ecard2video/internal/system"
	"github.com/ivlev/ecard2video/internal/video"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc получает число готовых сегментов. Вызывается из воркеров,
// но никогда параллельно.
type ProgressFunc func(done, total int)

type VideoProject struct {
	Config   *config.Config
	Renderer *renderer.Renderer
	Encoder  video.VideoEncoder
	Progress ProgressFunc
}

func NewVideoProject(cfg *config.Config, ve video.VideoEncoder) *VideoProject {
	return &VideoProject{
		Config:   cfg,
		Renderer: renderer.New(cfg),
		Encoder:  ve,
	}
}

// Result is a finished video inside the render's temp directory. The caller
// delivers Path and then calls Cleanup.
type Result struct {
	Path     string
	Duration float64
	Slides   int
	tempDir  string
}

func (r *Result) Cleanup() {
	if r == nil || r.tempDir == "" {
		return
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		slog.Warn("temp dir cleanup failed", "dir", r.tempDir, "error", err)
	}
}

// Run renders slides in order. On error nothing is left on disk.
func (p *VideoProject) Run(ctx context.Context, slides []slide.Slide) (_ *Result, err error) {
	if len(slides) == 0 {
		return nil, &RenderError{Stage: StageEmpty, Slide: -1, Err: ErrEmptyDeck}
	}
	startTime := time.Now()

	if err := system.CheckDiskSpace(ctx, p.Config.Render.TempDir, p.Config.Render.MinFreeDiskMB); err != nil {
		return nil, &RenderError{Stage: StageDisk, Slide: -1, Err: err}
	}

	tempDir, err := os.MkdirTemp(p.Config.Render.TempDir, "ecard2video_")
	if err != nil {
		return nil, &RenderError{Stage: StageDisk, Slide: -1, Err: err}
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tempDir)
		}
	}()

	slog.Info("render started", "slides", len(slides), "size", fmt.Sprintf("%dx%d", p.Config.Width, p.Config.Height), "fps", p.Config.FPS)

	segments := make([]string, len(slides))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	workers := p.Config.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	encodeStart := time.Now()
	for i, s := range slides {
		g.Go(func() error {
			segPath := filepath.Join(tempDir, fmt.Sprintf("s%03d.mp4", i))
			if err := p.renderSegment(gctx, i, s, segPath); err != nil {
				return err
			}
			segments[i] = segPath

			mu.Lock()
			done++
			if p.Progress != nil {
				p.Progress(done, len(slides))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	encodeTime := time.Since(encodeStart)

	concatStart := time.Now()
	finalPath := filepath.Join(tempDir, p.outputName())
	if err := p.Encoder.Concatenate(ctx, segments, finalPath); err != nil {
		return nil, &RenderError{Stage: StageConcat, Slide: -1, Err: err}
	}
	concatTime := time.Since(concatStart)

	total := 0.0
	for _, s := range slides {
		total += s.Duration
	}

	if p.Config.ShowStats {
		probed, perr := video.ProbeDuration(finalPath)
		if perr != nil {
			slog.Warn("ffprobe failed", "error", perr)
		}
		slog.Info("render report",
			"build", p.Config.BuildVersion,
			"slides", len(slides),
			"expected_s", total,
			"probed_s", probed,
			"total", time.Since(startTime).Round(time.Millisecond),
			"segments", encodeTime.Round(time.Millisecond),
			"concat", concatTime.Round(time.Millisecond),
			"mem_used_pct", fmt.Sprintf("%.1f", system.MemoryUsedPercent(ctx)),
		)
	}

	return &Result{Path: finalPath, Duration: total, Slides: len(slides), tempDir: tempDir}, nil
}

func (p *VideoProject) renderSegment(ctx context.Context, index int, s slide.Slide, segPath string) error {
	frame, err := p.Renderer.Render(s)
	if err != nil {
		return &RenderError{Stage: StageDecode, Slide: index, Err: err}
	}
	defer system.PutFrame(frame)

	params := p.SegmentParams(index, s)
	filter := effects.ForSegment(params).GenerateFilter(params)

	if timeout := p.Config.Render.SegmentTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := p.Encoder.EncodeSegment(ctx, frame, segPath, params, filter); err != nil {
		return &RenderError{Stage: StageSegment, Slide: index, Err: err}
	}
	slog.Debug("segment ready", "slide", index+1, "kind", s.Kind, "duration", s.Duration)
	return nil
}

// SegmentParams собирает параметры сегмента: зум только у фотографий,
// фейд на каждую сторону ограничен половиной длительности.
func (p *VideoProject) SegmentParams(index int, s slide.Slide) config.SegmentParams {
	params := config.SegmentParams{
		Width:        p.Config.Width,
		Height:       p.Config.Height,
		FPS:          p.Config.FPS,
		Duration:     s.Duration,
		FadeDuration: effects.FadeDuration(s.Duration, s.Transition),
		PageIndex:    index,
	}
	if s.Kind == slide.KindImage {
		params.ZoomGrowth = p.Config.Render.ZoomGrowth
	}
	return params
}

func (p *VideoProject) outputName() string {
	if p.Config.Render.OutputName != "" {
		return p.Config.Render.OutputName
	}
	return "output.mp4"
}
