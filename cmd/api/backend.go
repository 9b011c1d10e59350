package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flowersdz/gallery-admin/internal/config"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/imagekit"
	"github.com/flowersdz/gallery-admin/internal/pkg/imaging"
	"github.com/flowersdz/gallery-admin/internal/pkg/relayclient"
	"github.com/flowersdz/gallery-admin/internal/pkg/storage"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
)

// mediaBackend is where uploaded files go and how they are deleted
type mediaBackend struct {
	uploader  upload.Uploader
	deleter   upload.Deleter
	thumbnail media.ThumbnailFunc

	// files serves stored objects under /media; local backend only
	files http.Handler
}

func newMediaBackend(ctx context.Context, cfg *config.Config, imageKit *imagekit.Client) (*mediaBackend, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendImageKit, "":
		var authorizer imagekit.Authorizer = imageKit
		var deleter upload.Deleter = imageKit
		if cfg.RelayBaseURL != "" {
			// Another deployment holds the private key
			relayClient := relayclient.NewClient(cfg.RelayBaseURL, cfg.RelayToken, cfg.HTTPClientTimeout)
			authorizer, deleter = relayClient, relayClient
		}
		return &mediaBackend{
			uploader:  imagekit.NewUploader(cfg.ImageKitPublicKey, cfg.ImageKitUploadURL, authorizer, cfg.HTTPClientTimeout),
			deleter:   deleter,
			thumbnail: media.ImageKitThumbnail,
		}, nil

	case config.MediaBackendLocal:
		st, err := storage.NewLocalStorage(cfg.LocalStoragePath, cfg.LocalStorageURL)
		if err != nil {
			return nil, err
		}
		b := newStorageBackend(st, cfg)
		b.files = http.StripPrefix("/media", http.FileServer(http.Dir(st.Root())))
		return b, nil

	case config.MediaBackendR2:
		st, err := storage.NewR2Storage(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return newStorageBackend(st, cfg), nil

	case config.MediaBackendS3:
		st, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return newStorageBackend(st, cfg), nil

	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}

func newStorageBackend(st storage.Storage, cfg *config.Config) *mediaBackend {
	b := storage.NewBackend(st, imaging.NewProcessor(imaging.DefaultConfig()), cfg.UploadMaxBytes)
	return &mediaBackend{uploader: b, deleter: b, thumbnail: b.ThumbnailURL}
}
