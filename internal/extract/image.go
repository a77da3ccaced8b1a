package extract

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

type imageAdapter struct{}

// Extract decodes image bounds and derives placeholder otolith morphometrics
// from them. The measurements mirror the upstream feature extractor's
// approximation: area from pixel count, perimeter from an equivalent circle,
// and a thickness-scaled volume.
func (imageAdapter) Extract(ctx context.Context, path string) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	artifact := &Artifact{
		Filename: filepath.Base(path),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		Features: deriveMorphometrics(cfg.Width, cfg.Height),
	}

	return &Payload{Kind: KindArtifact, Artifact: artifact}, nil
}

func deriveMorphometrics(width, height int) Morphometrics {
	if width <= 0 || height <= 0 {
		return Morphometrics{}
	}

	area := float64(width) * float64(height) * 0.7
	perimeter := 2 * math.Sqrt(math.Pi*area)
	circularity := (4 * math.Pi * area) / (perimeter * perimeter)
	aspectRatio := float64(width) / float64(height)
	volume := area * 0.1

	return Morphometrics{
		Circularity: floatPtr(round2(circularity)),
		Area:        floatPtr(math.Round(area)),
		Perimeter:   floatPtr(math.Round(perimeter)),
		AspectRatio: floatPtr(round2(aspectRatio)),
		Volume:      floatPtr(math.Round(volume)),
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func floatPtr(value float64) *float64 {
	return &value
}
