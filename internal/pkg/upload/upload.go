// Package upload holds the types shared by every media upload backend.
package upload

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"

	"github.com/h2non/filetype"
)

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

// OctetStream is the content type browsers declare for files they cannot classify
const OctetStream = "application/octet-stream"

// Request describes one file to upload
type Request struct {
	File              io.Reader
	Size              int64
	FileName          string
	ContentType       string
	Folder            string
	Tags              []string
	UseUniqueFileName bool

	// OnProgress is called with bytes sent so far. Optional.
	OnProgress func(loaded, total int64)
}

// Result is what a backend returns for a stored file
type Result struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
	FileType string `json:"fileType"`
	Size     int64  `json:"size"`
}

// Uploader stores a file and returns its public delivery URL
type Uploader interface {
	Upload(ctx context.Context, req *Request) (*Result, error)
}

// Deleter removes a stored file by id
type Deleter interface {
	DeleteFile(ctx context.Context, fileID string) error
}

// Percent converts a byte count to a whole percentage, rounded.
func Percent(loaded, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(loaded) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// DetectContentType returns the declared type unless it is empty or generic,
// in which case the leading bytes are sniffed.
func DetectContentType(declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != OctetStream {
		return declared
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if declared == "" {
		return OctetStream
	}
	return declared
}

type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	fn     func(loaded, total int64)
}

// NewProgressReader wraps r so fn observes every chunk read. A nil fn returns r.
func NewProgressReader(r io.Reader, total int64, fn func(loaded, total int64)) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}
