package media

import (
	"image"
	"image/color"
	"testing"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestCropEasyIsIdentity(t *testing.T) {
	img := testImage(1000, 1000)
	out := Crop(img, "easy")
	if out != img {
		t.Error("easy difficulty should return the original image")
	}
}

func TestCropMediumDimensions(t *testing.T) {
	out := Crop(testImage(1000, 800), "medium")
	if got := out.Bounds(); got.Dx() != 500 || got.Dy() != 400 {
		t.Errorf("medium crop = %dx%d, want 500x400", got.Dx(), got.Dy())
	}
}

func TestCropHardDimensions(t *testing.T) {
	out := Crop(testImage(1000, 1000), "hard")
	if got := out.Bounds(); got.Dx() != 316 || got.Dy() != 316 {
		t.Errorf("hard crop = %dx%d, want 316x316", got.Dx(), got.Dy())
	}
}

func TestCropHardOriginVaries(t *testing.T) {
	// Encode the pixel position in its color so the crop content tells
	// us where the window landed.
	img := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	for y := 0; y < 1000; y++ {
		for x := 0; x < 1000; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8(x / 256), A: 255})
		}
	}

	seen := make(map[color.Color]struct{})
	for i := 0; i < 32; i++ {
		out := Crop(img, "hard")
		seen[out.At(0, 0)] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("32 hard crops all started at the same origin, got %d distinct corners", len(seen))
	}
}

func TestCropTinyImage(t *testing.T) {
	out := Crop(testImage(2, 2), "hard")
	if got := out.Bounds(); got.Dx() < 1 || got.Dy() < 1 {
		t.Errorf("crop collapsed to %dx%d", got.Dx(), got.Dy())
	}
}

func TestSelectWindowBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		start, length := SelectWindow(180, 15)
		if length != 15 {
			t.Fatalf("length = %v, want 15", length)
		}
		if start < 0 || start > 165 {
			t.Fatalf("start %v out of [0,165]", start)
		}
	}
}

func TestSelectWindowShortTrack(t *testing.T) {
	start, length := SelectWindow(10, 15)
	if start != 0 || length != 10 {
		t.Errorf("short track should play whole: start=%v length=%v", start, length)
	}
}
