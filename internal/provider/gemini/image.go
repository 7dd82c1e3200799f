package gemini

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/fpang/spot-the-difference/internal/game"
)

// decodeImage checks that data is a supported image and records its size.
// The declared MIME type is replaced by the detected one.
func decodeImage(data []byte, declared string) (*game.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %q image config: %w", declared, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return &game.Image{
		Data:     data,
		MIMEType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
