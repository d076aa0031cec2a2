package imaging

import (
	"errors"
	"image/color"
	"testing"
)

func TestResize_NoDimensionsReturnsInput(t *testing.T) {
	img := createInMemoryImage(80, 60, color.RGBA{255, 0, 0, 255})

	for _, keep := range []bool{true, false} {
		out, err := Resize(img, 0, 0, keep)
		if err != nil {
			t.Fatalf("Resize failed: %v", err)
		}
		if out != img {
			t.Errorf("keepAspect=%v: expected the input image to be returned unchanged", keep)
		}
	}
}

func TestResize_KeepAspect(t *testing.T) {
	img := createInMemoryImage(800, 400, color.RGBA{0, 128, 255, 255})

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"width only", 100, 0, 100, 50},
		{"height only", 0, 100, 200, 100},
		{"both, width binds", 100, 100, 100, 50},
		{"both, height binds", 400, 50, 100, 50},
		{"larger than source", 1600, 800, 800, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(img, tt.width, tt.height, true)
			if err != nil {
				t.Fatalf("Resize failed: %v", err)
			}
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResize_Exact(t *testing.T) {
	img := createInMemoryImage(800, 400, color.RGBA{0, 128, 255, 255})

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"both", 100, 100, 100, 100},
		{"width only keeps height", 100, 0, 100, 400},
		{"height only keeps width", 0, 100, 800, 100},
		{"upscale", 1000, 900, 1000, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Resize(img, tt.width, tt.height, false)
			if err != nil {
				t.Fatalf("Resize failed: %v", err)
			}
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResize_KeepAspectBoundsAndRatio(t *testing.T) {
	sources := [][2]int{{800, 600}, {600, 800}, {1024, 768}, {333, 777}, {1920, 1080}, {50, 2000}}
	bounds := [][2]int{{100, 100}, {640, 0}, {0, 480}, {123, 45}, {10, 300}}

	for _, src := range sources {
		img := createInMemoryImage(src[0], src[1], color.White)
		for _, bnd := range bounds {
			out, err := Resize(img, bnd[0], bnd[1], true)
			if err != nil {
				t.Fatalf("Resize failed: %v", err)
			}

			limitW, limitH := bnd[0], bnd[1]
			if limitW == 0 {
				limitW = src[0]
			}
			if limitH == 0 {
				limitH = src[1]
			}

			w, h := out.Bounds().Dx(), out.Bounds().Dy()
			if w > limitW || h > limitH {
				t.Errorf("%dx%d bounded by %dx%d: got %dx%d, exceeds bound", src[0], src[1], limitW, limitH, w, h)
			}

			// The derived side must be within one pixel of the exact ratio.
			wantH := float64(w) * float64(src[1]) / float64(src[0])
			wantW := float64(h) * float64(src[0]) / float64(src[1])
			if !withinOne(wantH, h) && !withinOne(wantW, w) {
				t.Errorf("%dx%d bounded by %dx%d: got %dx%d, aspect ratio not preserved", src[0], src[1], limitW, limitH, w, h)
			}
		}
	}
}

func TestResize_Negative(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	if _, err := Resize(img, -1, 10, true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative width: got %v, want ErrInvalidArgument", err)
	}
	if _, err := Resize(img, 10, -1, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative height: got %v, want ErrInvalidArgument", err)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"landscape", 1000, 500, 200, 200, 200, 100},
		{"portrait", 500, 1000, 200, 200, 100, 200},
		{"already small", 50, 30, 200, 200, 50, 30},
		{"custom box", 400, 400, 64, 32, 32, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(tt.srcW, tt.srcH, color.RGBA{10, 20, 30, 255})
			out, err := Thumbnail(img, tt.maxW, tt.maxH)
			if err != nil {
				t.Fatalf("Thumbnail failed: %v", err)
			}
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnail_NeverExceedsBox(t *testing.T) {
	sizes := []int{1, 7, 199, 200, 201, 640, 1500}

	for _, w := range sizes {
		for _, h := range sizes {
			img := createInMemoryImage(w, h, color.White)
			out, err := Thumbnail(img, DefaultThumbnailWidth, DefaultThumbnailHeight)
			if err != nil {
				t.Fatalf("Thumbnail failed: %v", err)
			}
			if out.Bounds().Dx() > DefaultThumbnailWidth || out.Bounds().Dy() > DefaultThumbnailHeight {
				t.Errorf("%dx%d: got %dx%d, exceeds 200x200", w, h, out.Bounds().Dx(), out.Bounds().Dy())
			}
			if out.Bounds().Dx() > w || out.Bounds().Dy() > h {
				t.Errorf("%dx%d: got %dx%d, upscaled", w, h, out.Bounds().Dx(), out.Bounds().Dy())
			}
		}
	}
}

func TestThumbnail_InvalidBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	for _, b := range [][2]int{{0, 10}, {10, 0}, {-5, 10}} {
		if _, err := Thumbnail(img, b[0], b[1]); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Thumbnail(%d, %d): got %v, want ErrInvalidArgument", b[0], b[1], err)
		}
	}
}

func withinOne(want float64, got int) bool {
	d := want - float64(got)
	return d <= 1 && d >= -1
}
