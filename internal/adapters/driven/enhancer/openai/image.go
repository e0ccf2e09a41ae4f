package openai

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// boundImage shrinks data so its longest side is at most maxDim and
// returns the bytes to send with their MIME type. Images within bounds,
// formats the decoder does not know, and a non-positive maxDim all pass
// through untouched.
func boundImage(data []byte, filename string, maxDim int) ([]byte, string) {
	mimeType := domain.MIMETypeForFilename(filename)
	if maxDim <= 0 {
		return data, mimeType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return data, mimeType
	}

	format := imaging.PNG
	if mimeType == "image/jpeg" {
		format = imaging.JPEG
	} else if mimeType != "image/png" {
		return data, mimeType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, mimeType
	}

	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(92)); err != nil {
		return data, mimeType
	}

	logger.Debug("openai: resized %s from %dx%d to %dx%d", filename,
		cfg.Width, cfg.Height, resized.Bounds().Dx(), resized.Bounds().Dy())
	return buf.Bytes(), mimeType
}
