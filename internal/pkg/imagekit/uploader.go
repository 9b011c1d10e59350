package imagekit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
	"github.com/flowersdz/gallery-admin/internal/pkg/upstream"
)

// Authorizer supplies signed upload parameters, either in-process or from a relay.
type Authorizer interface {
	AuthenticationParameters(ctx context.Context) (AuthParams, error)
}

// Uploader is the browser-side half of ImageKit uploads: it holds only the public
// key and obtains a signature per file from its Authorizer.
type Uploader struct {
	publicKey string
	uploadURL string
	auth      Authorizer
	http      *resty.Client
}

// NewUploader creates an uploader
func NewUploader(publicKey, uploadURL string, auth Authorizer, timeout time.Duration) *Uploader {
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Uploader{
		publicKey: publicKey,
		uploadURL: uploadURL,
		auth:      auth,
		http:      resty.New().SetTimeout(timeout),
	}
}

type uploadResponse struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FilePath     string `json:"filePath"`
	FileType     string `json:"fileType"`
	Size         int64  `json:"size"`
}

// Upload sends the file as multipart form data with signed parameters.
func (u *Uploader) Upload(ctx context.Context, req *upload.Request) (*upload.Result, error) {
	if req == nil || req.File == nil {
		return nil, upload.ErrEmptyFile
	}

	params, err := u.auth.AuthenticationParameters(ctx)
	if err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = upload.OctetStream
	}

	var out uploadResponse
	resp, err := u.http.R().
		SetContext(ctx).
		SetMultipartField("file", req.FileName, contentType, upload.NewProgressReader(req.File, req.Size, req.OnProgress)).
		SetMultipartFormData(map[string]string{
			"fileName":          req.FileName,
			"publicKey":         u.publicKey,
			"signature":         params.Signature,
			"expire":            strconv.FormatInt(params.Expire, 10),
			"token":             params.Token,
			"useUniqueFileName": strconv.FormatBool(req.UseUniqueFileName),
			"tags":              strings.Join(req.Tags, ","),
			"folder":            req.Folder,
		}).
		SetResult(&out).
		Post(u.uploadURL)
	if err != nil {
		return nil, upstream.Classify(ctx, "imagekit upload", err)
	}
	if resp.IsError() {
		return nil, upstream.NewStatusError("imagekit upload", resp.StatusCode(), resp.Body())
	}
	if out.URL == "" {
		return nil, errors.New("imagekit upload: response has no url")
	}

	return &upload.Result{
		FileID:   out.FileID,
		Name:     out.Name,
		URL:      out.URL,
		FilePath: out.FilePath,
		FileType: out.FileType,
		Size:     out.Size,
	}, nil
}
