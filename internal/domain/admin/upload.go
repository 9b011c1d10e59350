package admin

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
)

const sniffLen = 512

// File is one selected file
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadFailure names a file that did not make it
type UploadFailure struct {
	Row   string `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadReport summarises a batch
type UploadReport struct {
	Uploaded []string        `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

// Runner processes tasks with bounded concurrency. A limit of 1 runs them one after
// another in the given order.
type Runner struct {
	limit int
}

// NewRunner creates a runner
func NewRunner(limit int) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{limit: limit}
}

// Run calls every task and waits. Tasks report their own failures.
func (r *Runner) Run(ctx context.Context, tasks []func(ctx context.Context)) {
	g := new(errgroup.Group)
	g.SetLimit(r.limit)
	for _, task := range tasks {
		g.Go(func() error {
			task(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// UploadFiles uploads files in selection order and records each one. One file
// failing never stops the rest.
func (c *Controller) UploadFiles(ctx context.Context, files []File, defaultAlt string) (*UploadReport, error) {
	user := c.User()
	if user == nil {
		c.view.Alert(ErrSignInRequired.Error())
		return nil, ErrSignInRequired
	}
	if len(files) == 0 {
		c.view.Alert(ErrNoFiles.Error())
		return nil, ErrNoFiles
	}

	var mu sync.Mutex
	report := &UploadReport{Uploaded: []string{}, Failed: []UploadFailure{}}

	tasks := make([]func(ctx context.Context), 0, len(files))
	for _, f := range files {
		tasks = append(tasks, func(ctx context.Context) {
			row := UploadRow{ID: uuid.NewString(), Name: f.Name}
			c.view.UploadRowAdded(row)

			key, err := c.uploadOne(ctx, row, f, defaultAlt, user.UID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.FromContext(ctx).Error().Err(err).Str("file", f.Name).Msg("Upload failed")
				c.view.UploadFailed(row.ID, err.Error())
				report.Failed = append(report.Failed, UploadFailure{Row: row.ID, Name: f.Name, Error: err.Error()})
				return
			}
			c.view.UploadProgress(row.ID, 100)
			report.Uploaded = append(report.Uploaded, key)
		})
	}

	NewRunner(c.app.concurrency()).Run(ctx, tasks)
	c.view.SelectionCleared()
	return report, nil
}

func (c *Controller) uploadOne(ctx context.Context, row UploadRow, f File, defaultAlt, uid string) (string, error) {
	if f.Size == 0 {
		return "", upload.ErrEmptyFile
	}
	if c.app.MaxFileBytes > 0 && f.Size > c.app.MaxFileBytes {
		return "", upload.ErrFileTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	head, _ := br.Peek(sniffLen)
	contentType := upload.DetectContentType(f.ContentType, head)

	var tags []string
	if c.app.Tag != "" {
		tags = []string{c.app.Tag}
	}

	res, err := c.app.Uploader.Upload(ctx, &upload.Request{
		File:              br,
		Size:              f.Size,
		FileName:          f.Name,
		ContentType:       contentType,
		Folder:            c.app.Folder,
		Tags:              tags,
		UseUniqueFileName: true,
		OnProgress: func(loaded, total int64) {
			c.view.UploadProgress(row.ID, upload.Percent(loaded, total))
		},
	})
	if err != nil {
		return "", err
	}

	return c.app.Store.Push(ctx, media.Record{
		URL:    res.URL,
		FileID: res.FileID,
		Type:   media.TypeFor(contentType),
		Alt:    media.DefaultAlt(defaultAlt, f.Name),
		Order:  c.app.now().UnixMilli(),
		UID:    uid,
	})
}
