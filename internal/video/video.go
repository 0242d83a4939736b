package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/system"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type VideoEncoder interface {
	EncodeSegment(ctx context.Context, img image.Image, videoPath string, params config.SegmentParams, filter string) error
	Concatenate(ctx context.Context, segmentPaths []string, finalPath string) error
}

type FFmpegEncoder struct {
	FFmpegPath    string
	Encoder       string
	Quality       int
	Width, Height int
	FPS           int
	AudioCodec    string
	AudioSampleHz int
}

func NewFFmpegEncoder(cfg *config.Config, encoder string, quality int) *FFmpegEncoder {
	return &FFmpegEncoder{
		FFmpegPath:    cfg.FFmpegPath,
		Encoder:       encoder,
		Quality:       quality,
		Width:         cfg.Width,
		Height:        cfg.Height,
		FPS:           cfg.FPS,
		AudioCodec:    cfg.Render.AudioCodec,
		AudioSampleHz: cfg.Render.AudioSampleHz,
	}
}

// EncodeSegment pipes one raw RGBA frame into ffmpeg; the filter chain
// expands it into a clip of params.Duration seconds.
func (e *FFmpegEncoder) EncodeSegment(
	ctx context.Context,
	img image.Image,
	videoPath string,
	params config.SegmentParams,
	filter string,
) error {
	inputW, inputH := img.Bounds().Dx(), img.Bounds().Dy()
	args := e.SegmentArgs(inputW, inputH, videoPath, params, filter)

	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Передаем один кадр raw-данных, фильтр размножит его
	if err := writeRawRGBA(stdin, img); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("write raw error: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg segment error: %v, output: %s", err, tail(out.String()))
	}
	return nil
}

func (e *FFmpegEncoder) SegmentArgs(inputW, inputH int, videoPath string, params config.SegmentParams, filter string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-i", "-",
		"-vf", filter,
		"-t", fmt.Sprintf("%f", params.Duration),
		"-r", strconv.Itoa(params.FPS),
		"-pix_fmt", "yuv420p",
		"-an",
		"-c:v", e.Encoder,
	}
	args = append(args, system.QualityArgs(e.Encoder, e.Quality)...)
	return append(args, videoPath)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Concatenate joins the segments in order onto one canvas and encodes the
// result with a silent audio track.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, segmentPaths []string, finalPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	args := e.ConcatArgs(segmentPaths, finalPath)
	cmd := exec.CommandContext(ctx, e.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, tail(string(out)))
	}
	return nil
}

func (e *FFmpegEncoder) ConcatArgs(segmentPaths []string, finalPath string) []string {
	w, h := strconv.Itoa(e.Width), strconv.Itoa(e.Height)

	clips := make([]*ffmpeg.Stream, 0, len(segmentPaths))
	for _, p := range segmentPaths {
		clip := ffmpeg.Input(p).Video().
			Filter("scale", ffmpeg.Args{w, h}, ffmpeg.KwArgs{"force_original_aspect_ratio": "decrease"}).
			Filter("pad", ffmpeg.Args{w, h, "(ow-iw)/2", "(oh-ih)/2"}).
			Filter("setsar", ffmpeg.Args{"1"})
		clips = append(clips, clip)
	}
	joined := ffmpeg.Concat(clips)

	silence := ffmpeg.Input(
		fmt.Sprintf("anullsrc=r=%d:cl=stereo", e.AudioSampleHz),
		ffmpeg.KwArgs{"f": "lavfi"},
	)

	outArgs := ffmpeg.KwArgs{
		"c:v":      e.Encoder,
		"pix_fmt":  "yuv420p",
		"r":        strconv.Itoa(e.FPS),
		"c:a":      e.AudioCodec,
		"shortest": "",
		"movflags": "+faststart",
	}
	quality := system.QualityArgs(e.Encoder, e.Quality)
	for i := 0; i+1 < len(quality); i += 2 {
		outArgs[strings.TrimPrefix(quality[i], "-")] = quality[i+1]
	}

	// GetArgs, в отличие от Compile, не пишет команду в стандартный log
	return ffmpeg.Output([]*ffmpeg.Stream{joined, silence.Audio()}, finalPath, outArgs).
		OverWriteOutput().
		GetArgs()
}

// ProbeDuration returns the container duration of a media file in seconds.
func ProbeDuration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: duration %q: %w", path, info.Format.Duration, err)
	}
	return d, nil
}

// tail keeps the end of ffmpeg output, where the actual error is printed.
func tail(s string) string {
	const limit = 2000
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
