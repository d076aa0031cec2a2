package imaging

import (
	"bytes"
	"errors"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestDecode(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(120, 80, color.RGBA{255, 0, 0, 255}))

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Errorf("dimensions: got %dx%d, want 120x80", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecode_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(64, 32, color.RGBA{0, 0, 255, 255}), nil); err != nil {
		t.Fatalf("failed to encode JPEG: %v", err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("dimensions: got %dx%d, want 64x32", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"text", []byte("this is not an image")},
		{"truncated png", encodePNG(t, createInMemoryImage(10, 10, color.White))[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode: got %v, want ErrDecode", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	data := encodePNG(t, createAlphaImage(40, 30, color.NRGBA{255, 0, 0, 128}))

	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if info.Width != 40 || info.Height != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if !info.HasAlpha {
		t.Error("HasAlpha: got false, want true")
	}
	if info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s, want 8-bit", info.ColorDepth)
	}
	if info.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(data))
	}
}

func TestInspect_JPEGHasNoAlpha(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(16, 16, color.White), nil); err != nil {
		t.Fatalf("failed to encode JPEG: %v", err)
	}

	info, err := Inspect(buf.Bytes())
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.HasAlpha {
		t.Error("HasAlpha: got true, want false")
	}
}

func TestInspect_Invalid(t *testing.T) {
	_, err := Inspect([]byte("nope"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Inspect: got %v, want ErrDecode", err)
	}
}
