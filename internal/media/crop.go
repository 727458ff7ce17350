// Package media prepares round clue assets: cover-art crops for image
// rounds and ffmpeg-trimmed snippets for audio rounds.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"

	_ "image/jpeg"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

const (
	// Hard mode shows roughly 10% of the cover area: sqrt(0.1) per side.
	hardCropScale = 0.316

	// Crops below this width are upscaled so Kakao previews stay legible.
	minClueWidth = 512
)

// Crop returns the clue region of the cover for the difficulty. Easy is
// the whole image; medium is a half-size window; hard is a hardCropScale
// window. The window origin is uniformly random within the image.
func Crop(img image.Image, difficulty string) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var cw, ch int
	switch difficulty {
	case "easy":
		return img
	case "medium":
		cw, ch = w/2, h/2
	default:
		cw = int(float64(w) * hardCropScale)
		ch = int(float64(h) * hardCropScale)
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}

	left := bounds.Min.X + rand.Intn(w-cw+1)
	top := bounds.Min.Y + rand.Intn(h-ch+1)

	out := image.NewRGBA(image.Rect(0, 0, cw, ch))
	xdraw.Draw(out, out.Bounds(), img, image.Pt(left, top), xdraw.Src)
	return out
}

type Cropper struct {
	logger *zap.Logger
}

func NewCropper(logger *zap.Logger) *Cropper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cropper{logger: logger}
}

// RenderClue decodes the cover at path, crops it for the difficulty,
// upscales small crops and re-encodes as PNG.
func (c *Cropper) RenderClue(path, difficulty string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cover: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode cover %s: %w", path, err)
	}

	clue := Crop(img, difficulty)
	if w := clue.Bounds().Dx(); w > 0 && w < minClueWidth {
		clue = upscale(clue, minClueWidth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, clue); err != nil {
		return nil, fmt.Errorf("encode clue: %w", err)
	}
	return buf.Bytes(), nil
}

func upscale(img image.Image, targetWidth int) image.Image {
	b := img.Bounds()
	scale := float64(targetWidth) / float64(b.Dx())
	h := int(float64(b.Dy()) * scale)
	if h < 1 {
		h = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, targetWidth, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
