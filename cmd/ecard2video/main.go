package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ivlev/ecard2video/internal/config"
	"github.com/ivlev/ecard2video/internal/deck"
	"github.com/ivlev/ecard2video/internal/engine"
	"github.com/ivlev/ecard2video/internal/server"
	"github.com/ivlev/ecard2video/internal/session"
	"github.com/ivlev/ecard2video/internal/system"
	"github.com/ivlev/ecard2video/internal/video"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

var buildVersion = "dev"

func main() {
	_ = godotenv.Load()

	configPtr := flag.String("config", "", "YAML config file (defaults are built in)")
	addrPtr := flag.String("addr", "", "HTTP listen address, e.g. :8080")
	deckPtr := flag.String("deck", "", "Render a YAML deck and exit instead of serving HTTP")
	outputPtr := flag.String("output", "", "Output video for -deck (default: deck output or Wedding_ECard.mp4)")
	workersPtr := flag.Int("workers", 0, "Parallel segment encoders (0 - from config)")
	encoderPtr := flag.String("encoder", "", "H.264 encoder: libx264, h264_nvenc, h264_videotoolbox or auto")
	qualityPtr := flag.Int("quality", 0, "Quality (0 - encoder default; x264: CRF, VideoToolbox: bitrate = Q*100k)")
	statsPtr := flag.Bool("stats", false, "Print a render report")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	if *addrPtr != "" {
		cfg.Server.Addr = *addrPtr
	}
	if *workersPtr > 0 {
		cfg.Workers = *workersPtr
	}
	if *encoderPtr != "" {
		cfg.VideoEncoder = *encoderPtr
	}
	if *qualityPtr > 0 {
		cfg.Quality = *qualityPtr
	}
	if *statsPtr {
		cfg.ShowStats = true
	}
	cfg.BuildVersion = buildVersion
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	setupLogging(cfg.LogLevel)
	system.InitResourceLimits()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := system.CheckFFmpeg(ctx, cfg.FFmpegPath); err != nil {
		log.Fatalf("[-] %v", err)
	}

	encoderName := cfg.VideoEncoder
	if encoderName == "auto" {
		encoderName = system.GetBestH264Encoder(ctx, cfg.FFmpegPath)
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}
	quality := cfg.Quality
	if quality == 0 || (cfg.VideoEncoder == "auto" && *qualityPtr == 0) {
		quality = system.DefaultQuality(encoderName)
	}
	enc := video.NewFFmpegEncoder(cfg, encoderName, quality)

	if *deckPtr != "" {
		if err := renderDeck(ctx, cfg, enc, *deckPtr, *outputPtr); err != nil {
			log.Fatalf("[-] Ошибка рендера: %v", err)
		}
		return
	}

	srv := server.New(cfg, session.NewStore(cfg.Session.TTL), enc)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("[-] Ошибка сервера: %v", err)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func renderDeck(ctx context.Context, cfg *config.Config, enc video.VideoEncoder, deckPath, output string) error {
	d, err := deck.Read(deckPath)
	if err != nil {
		return err
	}
	list, err := deck.ToList(d, filepath.Dir(deckPath))
	if err != nil {
		return err
	}

	if output == "" {
		output = d.Output
	}
	if output == "" {
		output = cfg.Render.OutputName
	}

	fmt.Println("--- [ECARD2VIDEO] ---")
	fmt.Printf("[*] Колода: %s | Слайдов: %d\n", deckPath, list.Len())
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Энкодер: %s\n", cfg.Width, cfg.Height, cfg.FPS, encoderLabel(enc))
	fmt.Println("---------------------")

	bar := progressbar.NewOptions(
		list.Len(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Segments"),
	)

	start := time.Now()
	project := engine.NewVideoProject(cfg, enc)
	project.Progress = func(done, total int) {
		_ = bar.Set(done)
	}

	res, err := project.Run(ctx, list.Slides())
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	if err := copyFile(res.Path, output); err != nil {
		return err
	}

	fmt.Printf("[+++] Успех! Результат: %s (%.1fs видео за %s)\n", output, res.Duration, time.Since(start).Round(time.Millisecond))
	return nil
}

func encoderLabel(enc video.VideoEncoder) string {
	if f, ok := enc.(*video.FFmpegEncoder); ok {
		return f.Encoder
	}
	return "custom"
}

// copyFile переносит результат из временной папки рендера; rename не
// работает между файловыми системами.
func copyFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
