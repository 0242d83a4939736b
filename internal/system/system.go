package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

var ErrLowDisk = errors.New("not enough free disk space")

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Warn("Cannot read open file limit", "error", err)
		return
	}

	want := uint64(2048)
	if want > rLimit.Max {
		want = rLimit.Max
	}
	if rLimit.Cur >= want {
		return
	}
	rLimit.Cur = want

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Warn("Cannot raise open file limit", "error", err)
		return
	}
	slog.Debug("Open file limit raised", "limit", rLimit.Cur)
}

// CheckFFmpeg verifies that the ffmpeg binary can be started.
func CheckFFmpeg(ctx context.Context, ffmpegPath string) error {
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg -version: %v, output: %s", err, string(out))
	}
	return nil
}

// GetBestH264Encoder возвращает аппаратный H.264 энкодер, если ffmpeg его знает,
// иначе libx264.
func GetBestH264Encoder(ctx context.Context, ffmpegPath string) string {
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality maps an encoder to its quality knob default.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // битрейт = Q*100 кбит/с
	case "h264_nvenc":
		return 28 // эквивалент CRF для NVENC
	default:
		return 23 // стандартный CRF для x264
	}
}

// QualityArgs returns encoder specific rate control flags.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// CheckDiskSpace fails with ErrLowDisk when dir has less than minFreeMB free.
func CheckDiskSpace(ctx context.Context, dir string, minFreeMB uint64) error {
	if minFreeMB == 0 {
		return nil
	}
	if dir == "" {
		dir = os.TempDir()
	}
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return fmt.Errorf("disk usage of %s: %w", dir, err)
	}
	freeMB := usage.Free / (1 << 20)
	if freeMB < minFreeMB {
		return fmt.Errorf("%w: %s has %d MB free, need %d MB", ErrLowDisk, dir, freeMB, minFreeMB)
	}
	return nil
}

// MemoryUsedPercent is reported in the render statistics.
func MemoryUsedPercent(ctx context.Context) float64 {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0
	}
	return vm.UsedPercent
}
