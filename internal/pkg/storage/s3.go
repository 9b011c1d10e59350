package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 / MinIO connection configuration
type S3Config struct {
	Endpoint  string // empty for AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// NewS3Storage creates an S3 or MinIO storage instance
func NewS3Storage(ctx context.Context, cfg S3Config) (Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	publicURL := cfg.PublicURL
	switch {
	case publicURL != "":
	case cfg.Endpoint != "":
		publicURL = fmt.Sprintf("%s/%s", trimURL(cfg.Endpoint), cfg.Bucket)
	default:
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}

	return &objectStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: trimURL(publicURL),
		name:      "S3",
	}, nil
}
