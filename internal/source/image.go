package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
)

var (
	ErrDecode           = errors.New("cannot decode image")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsImageName reports whether name has one of the accepted upload extensions.
func IsImageName(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// CheckImage validates an upload without decoding the pixels.
func CheckImage(name string, data []byte) (width, height int, err error) {
	if !IsImageName(name) {
		return 0, 0, fmt.Errorf("%w: %s (want jpg, jpeg or png)", ErrUnsupportedImage, name)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	if format != "jpeg" && format != "png" {
		return 0, 0, fmt.Errorf("%w: %s is %s", ErrUnsupportedImage, name, format)
	}
	return cfg.Width, cfg.Height, nil
}

func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
