package effects

import (
	"fmt"
	"math"

	"github.com/ivlev/ecard2video/internal/config"
)

// Effect turns segment parameters into an FFmpeg -vf chain that expands one
// still frame into a timed clip.
type Effect interface {
	GenerateFilter(params config.SegmentParams) string
}

// ForSegment picks the zooming effect for segments that grow, the still one otherwise.
func ForSegment(p config.SegmentParams) Effect {
	if p.ZoomGrowth > 0 {
		return &ZoomFadeEffect{}
	}
	return &StillFadeEffect{}
}

// ZoomScale is the displayed scale of an image slide at time t: 1 at the
// start, 1+growth at the end, linear in between.
func ZoomScale(t, duration, growth float64) float64 {
	if duration <= 0 {
		return 1
	}
	t = math.Max(0, math.Min(t, duration))
	return 1 + growth*(t/duration)
}

// FadeDuration returns the length of each of the fade-in and fade-out ramps.
// Half of the transition goes to each side, never more than half the clip.
func FadeDuration(duration, transition float64) float64 {
	return math.Max(0, math.Min(transition/2, duration/2))
}

// FrameCount is the number of output frames of a clip.
func FrameCount(duration float64, fps int) int {
	n := int(math.Round(duration * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// ZoomFadeEffect: centered linear zoom plus fade-in/out.
type ZoomFadeEffect struct{}

func (e *ZoomFadeEffect) GenerateFilter(p config.SegmentParams) string {
	frames := FrameCount(p.Duration, p.FPS)

	// zoompan считает кадры в "on"; t = on/fps
	start := ZoomScale(0, p.Duration, p.ZoomGrowth)
	perFrame := (ZoomScale(p.Duration, p.Duration, p.ZoomGrowth) - start) / (p.Duration * float64(p.FPS))
	zFormula := fmt.Sprintf("%.6f+%.9f*on", start, perFrame)

	// Апскейл x2 перед zoompan убирает дрожание при субпиксельном зуме
	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		p.Width*2, p.Height*2, p.Width*2, p.Height*2,
	)

	zoomFilter := fmt.Sprintf(
		"zoompan=z='%s':d=%d:s=%dx%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':fps=%d",
		zFormula, frames, p.Width, p.Height, p.FPS,
	)

	return fmt.Sprintf("%s,%s,%s,setsar=1", aspectFilter, zoomFilter, fadeFilter(p))
}

// StillFadeEffect holds the frame for the whole clip (text and QR cards).
type StillFadeEffect struct{}

func (e *StillFadeEffect) GenerateFilter(p config.SegmentParams) string {
	return fmt.Sprintf(
		"scale=%d:%d,setsar=1,tpad=stop_mode=clone:stop_duration=%.3f,fps=%d,%s",
		p.Width, p.Height, p.Duration, p.FPS, fadeFilter(p),
	)
}

func fadeFilter(p config.SegmentParams) string {
	fade := math.Min(p.FadeDuration, p.Duration/2)
	if fade <= 0 {
		return "null"
	}
	return fmt.Sprintf("fade=t=in:st=0:d=%.3f,fade=t=out:st=%.3f:d=%.3f", fade, p.Duration-fade, fade)
}
