package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowersdz/gallery-admin/internal/pkg/imaging"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
)

// ThumbPrefix is where generated image thumbnails are stored, mirroring the object key.
const ThumbPrefix = "thumbs/"

const sniffLen = 512

// Backend serves as both media uploader and delete relay on top of a Storage.
// The file id of a stored object is its key.
type Backend struct {
	storage  Storage
	thumbs   *imaging.Processor
	maxBytes int64
	newID    func() string
}

// NewBackend creates a storage-backed media backend. thumbs may be nil to skip thumbnails.
func NewBackend(st Storage, thumbs *imaging.Processor, maxBytes int64) *Backend {
	return &Backend{
		storage:  st,
		thumbs:   thumbs,
		maxBytes: maxBytes,
		newID:    func() string { return uuid.NewString()[:8] },
	}
}

// Upload stores the file and, for images, its thumbnail.
func (b *Backend) Upload(ctx context.Context, req *upload.Request) (*upload.Result, error) {
	if req == nil || req.File == nil {
		return nil, upload.ErrEmptyFile
	}

	src := req.File
	if b.maxBytes > 0 {
		src = io.LimitReader(src, b.maxBytes+1)
	}
	data, err := io.ReadAll(upload.NewProgressReader(src, req.Size, req.OnProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, upload.ErrEmptyFile
	}
	if b.maxBytes > 0 && int64(len(data)) > b.maxBytes {
		return nil, upload.ErrFileTooLarge
	}

	contentType := upload.DetectContentType(req.ContentType, data[:min(sniffLen, len(data))])
	key := b.objectKey(req)

	if err := b.storage.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, err
	}

	fileType := "non-image"
	if strings.HasPrefix(contentType, "image/") {
		fileType = "image"
		b.putThumbnail(ctx, key, data)
	}

	return &upload.Result{
		FileID:   key,
		Name:     path.Base(key),
		URL:      b.storage.GetURL(key),
		FilePath: "/" + key,
		FileType: fileType,
		Size:     int64(len(data)),
	}, nil
}

func (b *Backend) putThumbnail(ctx context.Context, key string, data []byte) {
	if b.thumbs == nil {
		return
	}
	thumb, err := b.thumbs.Thumbnail(bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Thumbnail generation failed, serving original")
		return
	}
	if err := b.storage.Put(ctx, ThumbPrefix+key, bytes.NewReader(thumb.Data), thumb.ContentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to store thumbnail")
	}
}

// DeleteFile removes the object and its thumbnail.
func (b *Backend) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" || strings.HasPrefix(fileID, ThumbPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, fileID)
	}
	if err := b.storage.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := b.storage.Delete(ctx, ThumbPrefix+fileID); err != nil {
		log.Warn().Err(err).Str("key", fileID).Msg("Failed to delete thumbnail")
	}
	return nil
}

// ThumbnailURL maps an image URL returned by Upload to its thumbnail URL.
// URLs from elsewhere are returned unchanged.
func (b *Backend) ThumbnailURL(fileURL string) string {
	base := b.storage.GetURL("")
	if !strings.HasPrefix(fileURL, base) {
		return fileURL
	}
	return b.storage.GetURL(ThumbPrefix + strings.TrimPrefix(fileURL, base))
}

func (b *Backend) objectKey(req *upload.Request) string {
	name := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '?' || r == '#' {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "file"
	}

	if req.UseUniqueFileName {
		ext := path.Ext(name)
		name = strings.TrimSuffix(name, ext) + "_" + b.newID() + ext
	}

	folder := strings.Trim(req.Folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
