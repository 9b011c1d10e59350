package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	// Register decoders for gallery uploads
	_ "image/gif"

	"github.com/disintegration/imaging"
)

// Config for thumbnail generation
type Config struct {
	ThumbWidth  int // default 400
	ThumbHeight int // default 400
	Quality     int // JPEG quality 1-100 (default 85)
}

// DefaultConfig matches the gallery card size
func DefaultConfig() Config {
	return Config{
		ThumbWidth:  400,
		ThumbHeight: 400,
		Quality:     85,
	}
}

// Thumbnail is an encoded thumbnail
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Processor creates gallery thumbnails
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	if config.ThumbWidth <= 0 || config.ThumbHeight <= 0 {
		def := DefaultConfig()
		config.ThumbWidth, config.ThumbHeight = def.ThumbWidth, def.ThumbHeight
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = DefaultConfig().Quality
	}
	return &Processor{config: config}
}

// Thumbnail decodes the image and center-crops it to the configured size,
// the way the media CDN's fo-auto crop frames gallery cards.
func (p *Processor) Thumbnail(reader io.Reader) (*Thumbnail, error) {
	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	contentType := "image/jpeg"
	if format == "png" {
		contentType = "image/png"
		err = png.Encode(&buf, thumb)
	} else {
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: p.config.Quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Thumbnail{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       thumb.Bounds().Dx(),
		Height:      thumb.Bounds().Dy(),
	}, nil
}
