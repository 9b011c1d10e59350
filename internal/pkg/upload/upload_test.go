package upload

import (
	"bytes"
	"io"
	"testing"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		loaded, total int64
		want          int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 67},
		{100, 100, 100},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := Percent(tc.loaded, tc.total); got != tc.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tc.loaded, tc.total, got, tc.want)
		}
	}
}

func TestDetectContentType(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	if got := DetectContentType("video/mp4", png); got != "video/mp4" {
		t.Fatalf("declared type should win, got %q", got)
	}
	if got := DetectContentType(OctetStream, png); got != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", got)
	}
	if got := DetectContentType("", []byte("plain")); got != OctetStream {
		t.Fatalf("expected octet-stream fallback, got %q", got)
	}
}

func TestProgressReaderReportsCumulativeBytes(t *testing.T) {
	var calls []int64
	r := NewProgressReader(bytes.NewReader(make([]byte, 10)), 10, func(loaded, total int64) {
		if total != 10 {
			t.Errorf("total = %d", total)
		}
		calls = append(calls, loaded)
	})

	buf := make([]byte, 4)
	for {
		if _, err := r.Read(buf); err == io.EOF {
			break
		}
	}

	if len(calls) != 3 || calls[2] != 10 {
		t.Fatalf("unexpected progress calls: %v", calls)
	}
}
