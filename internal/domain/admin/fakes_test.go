package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/jwt"
	"github.com/flowersdz/gallery-admin/internal/pkg/upload"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeView struct {
	*EventView
	confirm bool

	mu       sync.Mutex
	events   []Event
	confirms []string
}

func newFakeView(confirm bool) *fakeView {
	v := &fakeView{confirm: confirm}
	v.EventView = NewEventView(v.record)
	return v
}

func (v *fakeView) record(e Event) {
	v.mu.Lock()
	v.events = append(v.events, e)
	v.mu.Unlock()
}

func (v *fakeView) Confirm(ctx context.Context, message string) bool {
	v.mu.Lock()
	v.confirms = append(v.confirms, message)
	v.mu.Unlock()
	return v.confirm
}

func (v *fakeView) ofType(t EventType) []Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []Event
	for _, e := range v.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (v *fakeView) alerts() []string {
	var out []string
	for _, e := range v.ofType(EventAlert) {
		out = append(out, e.Data.(Message).Message)
	}
	return out
}

type fakeUploader struct {
	mu   sync.Mutex
	reqs []upload.Request
	fail map[string]error
}

func (u *fakeUploader) Upload(ctx context.Context, req *upload.Request) (*upload.Result, error) {
	data, err := io.ReadAll(req.File)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.reqs = append(u.reqs, *req)
	failErr := u.fail[req.FileName]
	u.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	if req.OnProgress != nil {
		req.OnProgress(int64(len(data))/2, int64(len(data)))
		req.OnProgress(int64(len(data)), int64(len(data)))
	}
	return &upload.Result{
		FileID: "file-" + req.FileName,
		Name:   req.FileName,
		URL:    "https://ik.imagekit.io/demo/flowersdz/" + req.FileName,
	}, nil
}

func (u *fakeUploader) names() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []string
	for _, r := range u.reqs {
		out = append(out, r.FileName)
	}
	return out
}

// callLog records the relay and store calls of a delete in order
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeDeleter struct {
	log *callLog
	err error
}

func (d *fakeDeleter) DeleteFile(ctx context.Context, fileID string) error {
	d.log.add("relay:" + fileID)
	return d.err
}

type spyStore struct {
	*media.MemoryStore
	log *callLog

	mu      sync.Mutex
	patches []media.Patch
}

func (s *spyStore) Update(ctx context.Context, key string, patch media.Patch) error {
	s.mu.Lock()
	s.patches = append(s.patches, patch)
	s.mu.Unlock()
	return s.MemoryStore.Update(ctx, key, patch)
}

func (s *spyStore) Remove(ctx context.Context, key string) error {
	s.log.add("remove:" + key)
	return s.MemoryStore.Remove(ctx, key)
}

type stubProvider struct{}

func (stubProvider) SignInWithPassword(_ context.Context, email, password string) (*auth.Identity, error) {
	if password != "pw" {
		return nil, errors.New("INVALID_PASSWORD")
	}
	return &auth.Identity{UID: "op-1", Email: email, Provider: "password"}, nil
}

func (stubProvider) StartProviderSignIn(_ context.Context, continueURI string) (*auth.ProviderFlow, error) {
	return &auth.ProviderFlow{AuthURI: "https://accounts.example/o", SessionID: "flow-1"}, nil
}

func (stubProvider) CompleteProviderSignIn(_ context.Context, requestURI, sessionID string) (*auth.Identity, error) {
	return &auth.Identity{UID: "op-2", Email: "g@flowers.dz", Provider: auth.GoogleProviderID}, nil
}

type fixture struct {
	app      *App
	store    *spyStore
	uploader *fakeUploader
	deleter  *fakeDeleter
	log      *callLog
	jwt      *jwt.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &callLog{}
	store := &spyStore{MemoryStore: media.NewMemoryStore(), log: log}
	uploader := &fakeUploader{fail: map[string]error{}}
	deleter := &fakeDeleter{log: log}
	jwtSvc := jwt.NewService("test-secret", time.Hour)

	app := &App{
		Store:         store,
		Uploader:      uploader,
		Deleter:       deleter,
		Thumbnail:     media.ImageKitThumbnail,
		Provider:      stubProvider{},
		Sessions:      auth.NewSessions(jwtSvc, auth.NewMemoryRevocations()),
		Folder:        "/flowersdz",
		Tag:           "flowersdz",
		Concurrency:   1,
		FeedbackDelay: 10 * time.Millisecond,
		Now:           func() time.Time { return fixedNow },
	}
	return &fixture{app: app, store: store, uploader: uploader, deleter: deleter, log: log, jwt: jwtSvc}
}

func (f *fixture) controller(view View, signedIn bool) *Controller {
	gateway := auth.NewGateway(f.app.Provider)
	if signedIn {
		gateway.Restore(auth.Identity{UID: "op-1", Email: "op@flowers.dz", Provider: "password"})
	}
	return NewController(f.app, gateway, view, "gallery.flowersdz.com")
}

func memFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
