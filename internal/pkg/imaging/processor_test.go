package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestThumbnailCropsToSquare(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 500))
	for x := 0; x < 800; x++ {
		src.Set(x, 250, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode source: %v", err)
	}

	p := NewProcessor(Config{})
	thumb, err := p.Thumbnail(&buf)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumb.Width != 400 || thumb.Height != 400 {
		t.Fatalf("size = %dx%d, want 400x400", thumb.Width, thumb.Height)
	}
	if thumb.ContentType != "image/png" {
		t.Fatalf("ContentType = %q", thumb.ContentType)
	}
	if _, err := png.Decode(bytes.NewReader(thumb.Data)); err != nil {
		t.Fatalf("thumbnail is not a png: %v", err)
	}
}

func TestThumbnailRejectsNonImages(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	if _, err := p.Thumbnail(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected decode error")
	}
}
