package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEncoder() *FFmpegEncoder {
	cfg := config.Default()
	return NewFFmpegEncoder(cfg, "libx264", 23)
}

func TestSegmentArgs(t *testing.T) {
	e := testEncoder()
	params := config.SegmentParams{Width: 1080, Height: 1920, FPS: 30, Duration: 4}

	args := e.SegmentArgs(1080, 1920, "/tmp/s0.mp4", params, "null")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-f rawvideo -pixel_format rgba -video_size 1080x1920 -i -")
	assert.Contains(t, joined, "-vf null")
	assert.Contains(t, joined, "-t 4.000000")
	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "-c:v libx264 -crf 23 -preset medium")
	assert.Equal(t, "/tmp/s0.mp4", args[len(args)-1])
}

func TestConcatArgs(t *testing.T) {
	e := testEncoder()

	args := e.ConcatArgs([]string{"s0.mp4", "s1.mp4"}, "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i s0.mp4")
	assert.Contains(t, joined, "-i s1.mp4")
	assert.Contains(t, joined, "-f lavfi -i anullsrc=r=44100:cl=stereo")
	assert.Contains(t, joined, "concat=n=2")
	assert.Contains(t, joined, "pad=1080:1920")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-crf 23")
	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "-shortest")
	// -y is a global option and may follow the output file
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "out.mp4")
	assert.NotEqual(t, "ffmpeg", args[0])
}

func TestConcatArgsDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	testEncoder().ConcatArgs([]string{"s0.mp4"}, "out.mp4")
	assert.Empty(t, buf.String())
}

func TestConcatenateEmpty(t *testing.T) {
	err := testEncoder().Concatenate(context.Background(), nil, "out.mp4")
	assert.Error(t, err)
}

func TestWriteRawRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 2, 4, 3))
	img.Set(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, img))
	assert.Equal(t, 2*1*4, buf.Len())
	assert.Equal(t, []byte{10, 20, 30, 255}, buf.Bytes()[:4])
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short"))
	long := strings.Repeat("x", 5000) + "error"
	got := tail(long)
	assert.True(t, strings.HasSuffix(got, "error"))
	assert.Less(t, len(got), 2100)
}

func TestEncodeAndConcatenate(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	cfg := config.Default()
	cfg.Width, cfg.Height = 64, 112
	e := NewFFmpegEncoder(cfg, "libx264", 30)
	dir := t.TempDir()
	ctx := context.Background()

	frame := image.NewRGBA(image.Rect(0, 0, 64, 112))
	var segments []string
	for i, d := range []float64{2, 3} {
		params := config.SegmentParams{Width: 64, Height: 112, FPS: 30, Duration: d, FadeDuration: 0.5, ZoomGrowth: 0.05}
		path := filepath.Join(dir, "s"+string(rune('0'+i))+".mp4")
		filter := effects.ForSegment(params).GenerateFilter(params)
		require.NoError(t, e.EncodeSegment(ctx, frame, path, params, filter))
		segments = append(segments, path)
	}

	out := filepath.Join(dir, "out.mp4")
	require.NoError(t, e.Concatenate(ctx, segments, out))

	d, err := ProbeDuration(out)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 0.2)
}
