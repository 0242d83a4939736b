package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Workers      int    `yaml:"workers"`
	VideoEncoder string `yaml:"video_encoder"` // "auto" probes for a hardware H.264 encoder
	Quality      int    `yaml:"quality"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	LogLevel     string `yaml:"log_level"`
	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`

	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	Render  RenderConfig  `yaml:"render"`
}

type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
}

type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	JanitorTick time.Duration `yaml:"janitor_tick"`
	CookieName  string        `yaml:"cookie_name"`
}

type UploadConfig struct {
	MaxBytes    int64 `yaml:"max_bytes"`
	MaxPixels   int   `yaml:"max_pixels"` // ширина*высота загруженной картинки
	PDFDPI      int   `yaml:"pdf_dpi"`
	PDFMaxPages int   `yaml:"pdf_max_pages"`
}

type RenderConfig struct {
	TempDir        string        `yaml:"temp_dir"`
	MinFreeDiskMB  uint64        `yaml:"min_free_disk_mb"`
	OutputName     string        `yaml:"output_name"`
	Brightness     float64       `yaml:"brightness"`
	Contrast       float64       `yaml:"contrast"`
	ZoomGrowth     float64       `yaml:"zoom_growth"`
	AudioCodec     string        `yaml:"audio_codec"`
	AudioSampleHz  int           `yaml:"audio_sample_hz"`
	SegmentTimeout time.Duration `yaml:"segment_timeout"`
}

// SegmentParams описывает один сегмент (слайд) итогового видео.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	FadeDuration  float64 // на каждую сторону, уже ограничено длительностью
	ZoomGrowth    float64 // 0 для слайдов без зума
	PageIndex     int
}

// Default returns the configuration of the original e-card form: portrait
// 1080x1920 at 30 fps.
func Default() *Config {
	return &Config{
		Width:        1080,
		Height:       1920,
		FPS:          30,
		Workers:      1,
		VideoEncoder: "libx264",
		Quality:      23,
		FFmpegPath:   "ffmpeg",
		LogLevel:     "info",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Session: SessionConfig{
			TTL:         2 * time.Hour,
			JanitorTick: 10 * time.Minute,
			CookieName:  "ecard_session",
		},
		Upload: UploadConfig{
			MaxBytes:    32 << 20,
			MaxPixels:   50_000_000,
			PDFDPI:      150,
			PDFMaxPages: 50,
		},
		Render: RenderConfig{
			MinFreeDiskMB:  200,
			OutputName:     "Wedding_ECard.mp4",
			Brightness:     1.05,
			Contrast:       1.10,
			ZoomGrowth:     0.05,
			AudioCodec:     "aac",
			AudioSampleHz:  44100,
			SegmentTimeout: 5 * time.Minute,
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ECARD_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ECARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ECARD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ECARD_FFMPEG"); v != "" {
		c.FFmpegPath = v
	}
	if v := os.Getenv("ECARD_ENCODER"); v != "" {
		c.VideoEncoder = v
	}
	if v := os.Getenv("ECARD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ECARD_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("ECARD_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ECARD_DEBUG: %w", err)
		}
		c.Server.Debug = debug
	}
	return nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		problems = append(problems, fmt.Sprintf("resolution %dx%d must be positive and even", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		problems = append(problems, "fps must be positive")
	}
	if c.Workers <= 0 {
		problems = append(problems, "workers must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "upload.max_bytes must be positive")
	}
	if c.Upload.MaxPixels <= 0 {
		problems = append(problems, "upload.max_pixels must be positive")
	}
	if c.Render.OutputName == "" {
		problems = append(problems, "render.output_name is empty")
	}
	if c.Render.Brightness <= 0 || c.Render.Contrast <= 0 {
		problems = append(problems, "render.brightness and render.contrast must be positive")
	}
	if c.Render.ZoomGrowth < 0 {
		problems = append(problems, "render.zoom_growth must not be negative")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
