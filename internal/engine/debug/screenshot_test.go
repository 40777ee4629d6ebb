package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCaptureFromPixelsFlips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "voxview")
	sc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC) }

	// 1x2 image, bottom row red, top row blue (GL order).
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels: %v", err)
	}
	if want := filepath.Join(dir, "voxview_2025-03-01_12-30-45.000.png"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if r != 0 || b != 0xffff {
		t.Errorf("top pixel should be blue, got r=%x b=%x", r, b)
	}
	r, _, b, _ = img.At(0, 1).RGBA()
	if r != 0xffff || b != 0 {
		t.Errorf("bottom pixel should be red, got r=%x b=%x", r, b)
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "x")
	if _, err := sc.CaptureFromPixels(make([]byte, 7), 1, 2); err == nil {
		t.Error("expected size mismatch error")
	}
	if _, err := sc.CaptureFromPixels(nil, 0, 0); err == nil {
		t.Error("expected error for empty image")
	}
}
