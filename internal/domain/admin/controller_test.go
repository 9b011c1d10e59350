package admin

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/pkg/storage"
)

func TestStartShowsAuthStateAndGallery(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Push(context.Background(), media.Record{URL: "https://x/a.jpg", Type: media.TypeImage, Order: 1}); err != nil {
		t.Fatalf("push: %v", err)
	}

	view := newFakeView(true)
	c := f.controller(view, false)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Close()

	states := view.ofType(EventAuthState)
	if len(states) != 1 || states[0].Data.(AuthState).SignedIn {
		t.Fatalf("expected signed-out state first, got %+v", states)
	}
	galleries := view.ofType(EventGallery)
	if len(galleries) != 1 || len(galleries[0].Data.([]media.Card)) != 1 {
		t.Fatalf("expected initial gallery, got %+v", galleries)
	}

	if _, err := c.SignInWithEmail(context.Background(), "op@flowers.dz", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	states = view.ofType(EventAuthState)
	last := states[len(states)-1].Data.(AuthState)
	if !last.SignedIn || last.User.Email != "op@flowers.dz" {
		t.Fatalf("expected signed-in state with email, got %+v", last)
	}
}

func TestSignInWithEmailShowsGenericError(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)
	c := f.controller(view, false)

	if _, err := c.SignInWithEmail(context.Background(), "op@flowers.dz", "wrong"); err == nil {
		t.Fatal("expected sign-in to fail")
	}
	errs := view.ofType(EventAuthError)
	if len(errs) != 1 || errs[0].Data.(Message).Message == "INVALID_PASSWORD" {
		t.Fatalf("expected one generic auth error, got %+v", errs)
	}
}

func TestUploadRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)
	c := f.controller(view, false)

	_, err := c.UploadFiles(context.Background(), []File{memFile("rose.jpg", "image/jpeg", []byte("jpeg"))}, "")
	if !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired, got %v", err)
	}
	if got := view.alerts(); len(got) != 1 || got[0] != "sign-in required" {
		t.Fatalf("unexpected alerts: %v", got)
	}
	if len(f.uploader.names()) != 0 {
		t.Fatal("uploader called without a user")
	}
}

func TestUploadNoFiles(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)

	_, err := f.controller(view, true).UploadFiles(context.Background(), nil, "")
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
	if got := view.alerts(); len(got) != 1 || got[0] != "choose files first" {
		t.Fatalf("unexpected alerts: %v", got)
	}
}

func TestUploadImageDerivesAltAndType(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)

	report, err := f.controller(view, true).UploadFiles(context.Background(), []File{memFile("rose.jpg", "image/jpeg", []byte("jpeg-bytes"))}, "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(report.Uploaded) != 1 {
		t.Fatalf("expected one upload, got %+v", report)
	}

	rec, ok := f.store.snapshotGet(t, report.Uploaded[0])
	if !ok {
		t.Fatal("record not stored")
	}
	want := media.Record{
		URL:    "https://ik.imagekit.io/demo/flowersdz/rose.jpg",
		FileID: "file-rose.jpg",
		Type:   media.TypeImage,
		Alt:    "rose",
		Order:  fixedNow.UnixMilli(),
		UID:    "op-1",
	}
	if rec != want {
		t.Fatalf("record = %+v, want %+v", rec, want)
	}

	req := f.uploader.reqs[0]
	if !req.UseUniqueFileName || req.Folder != "/flowersdz" || !reflect.DeepEqual(req.Tags, []string{"flowersdz"}) {
		t.Fatalf("unexpected upload request: %+v", req)
	}

	var percents []int
	for _, e := range view.ofType(EventUploadProgress) {
		percents = append(percents, e.Data.(Progress).Percent)
	}
	if !reflect.DeepEqual(percents, []int{50, 100, 100}) {
		t.Fatalf("progress = %v", percents)
	}
	if n := len(view.ofType(EventSelectionCleared)); n != 1 {
		t.Fatalf("selection cleared %d times, want 1", n)
	}
}

func TestUploadVideoType(t *testing.T) {
	f := newFixture(t)

	report, err := f.controller(newFakeView(true), true).UploadFiles(context.Background(), []File{memFile("bloom.mp4", "video/mp4", []byte("mp4"))}, "Spring bloom")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	rec, _ := f.store.snapshotGet(t, report.Uploaded[0])
	if rec.Type != media.TypeVideo {
		t.Fatalf("type = %s, want video", rec.Type)
	}
	if rec.Alt != "Spring bloom" {
		t.Fatalf("alt = %q, want default alt", rec.Alt)
	}
}

func TestUploadSniffsGenericContentType(t *testing.T) {
	f := newFixture(t)
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	if _, err := f.controller(newFakeView(true), true).UploadFiles(context.Background(), []File{memFile("petal", "application/octet-stream", png)}, ""); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got := f.uploader.reqs[0].ContentType; got != "image/png" {
		t.Fatalf("content type = %q, want image/png", got)
	}
}

func TestUploadFailureContinuesInOrder(t *testing.T) {
	f := newFixture(t)
	f.uploader.fail["b.jpg"] = errors.New("upload api down")
	view := newFakeView(true)

	files := []File{
		memFile("a.jpg", "image/jpeg", []byte("a")),
		memFile("b.jpg", "image/jpeg", []byte("b")),
		memFile("c.jpg", "image/jpeg", []byte("c")),
		memFile("empty.jpg", "image/jpeg", nil),
	}
	report, err := f.controller(view, true).UploadFiles(context.Background(), files, "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if got := f.uploader.names(); !reflect.DeepEqual(got, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Fatalf("upload order = %v", got)
	}
	if len(report.Uploaded) != 2 || len(report.Failed) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Failed[0].Name != "b.jpg" || report.Failed[1].Name != "empty.jpg" {
		t.Fatalf("unexpected failures: %+v", report.Failed)
	}
	if n := len(view.ofType(EventUploadFailed)); n != 2 {
		t.Fatalf("failed rows = %d, want 2", n)
	}
	if n := len(view.ofType(EventSelectionCleared)); n != 1 {
		t.Fatalf("selection cleared %d times, want 1", n)
	}
}

func TestSaveAltPatchesOnlyAlt(t *testing.T) {
	f := newFixture(t)
	orig := media.Record{URL: "https://x/a.jpg", FileID: "f1", Type: media.TypeImage, Alt: "old", Order: 7, UID: "op-1"}
	key, _ := f.store.Push(context.Background(), orig)
	view := newFakeView(true)

	out := f.controller(view, true).SaveAlt(context.Background(), key, "x")
	if !out.Stored || out.Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	if len(f.store.patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(f.store.patches))
	}
	data, _ := json.Marshal(f.store.patches[0])
	if string(data) != `{"alt":"x"}` {
		t.Fatalf("patch = %s, want {\"alt\":\"x\"}", data)
	}

	rec, _ := f.store.snapshotGet(t, key)
	orig.Alt = "x"
	if rec != orig {
		t.Fatalf("record = %+v, want %+v", rec, orig)
	}

	deadline := time.Now().Add(time.Second)
	for len(view.ofType(EventSaveFeedback)) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	feedback := view.ofType(EventSaveFeedback)
	if len(feedback) != 2 || !feedback[0].Data.(SaveFeedback).Saved || feedback[1].Data.(SaveFeedback).Saved {
		t.Fatalf("expected saved then reverted feedback, got %+v", feedback)
	}
}

func TestSaveAltStoreErrorIsNotShown(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)

	out := f.controller(view, true).SaveAlt(context.Background(), "missing", "x")
	if !errors.Is(out.Err, media.ErrNotFound) || out.Stored {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(view.alerts()) != 0 {
		t.Fatalf("store error was shown: %v", view.alerts())
	}
	if len(view.ofType(EventSaveFeedback)) == 0 {
		t.Fatal("expected saved feedback regardless of store result")
	}
}

func TestSaveAltRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	out := f.controller(newFakeView(true), false).SaveAlt(context.Background(), "k", "x")
	if !errors.Is(out.Err, ErrSignInRequired) || len(f.store.patches) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDeleteCallsRelayBeforeStore(t *testing.T) {
	f := newFixture(t)
	key, _ := f.store.Push(context.Background(), media.Record{URL: "https://x/a.jpg", FileID: "f1", Type: media.TypeImage})
	view := newFakeView(true)

	if err := f.controller(view, true).Delete(context.Background(), key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.log.all(); !reflect.DeepEqual(got, []string{"relay:f1", "remove:" + key}) {
		t.Fatalf("calls = %v", got)
	}
	if len(view.confirms) != 1 {
		t.Fatalf("expected one confirmation, got %v", view.confirms)
	}
}

func TestDeleteUsesStoredFileID(t *testing.T) {
	f := newFixture(t)
	withFile, _ := f.store.Push(context.Background(), media.Record{URL: "https://x/a.jpg", FileID: "f2", Type: media.TypeImage})
	withoutFile, _ := f.store.Push(context.Background(), media.Record{URL: "https://x/b.jpg", Type: media.TypeImage})
	c := f.controller(newFakeView(true), true)

	if err := c.Delete(context.Background(), withFile); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(context.Background(), withoutFile); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"relay:f2", "remove:" + withFile, "remove:" + withoutFile}
	if got := f.log.all(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestDeleteStorageObjectInFolder(t *testing.T) {
	f := newFixture(t)
	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/media")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	backend := storage.NewBackend(st, nil, 1<<20)
	f.app.Uploader, f.app.Deleter, f.app.Folder = backend, backend, "/flowersdz"
	c := f.controller(newFakeView(true), true)

	report, err := c.UploadFiles(context.Background(), []File{memFile("rose.txt", "text/plain", []byte("petals"))}, "")
	if err != nil || len(report.Uploaded) != 1 {
		t.Fatalf("upload: %+v, %v", report, err)
	}
	key := report.Uploaded[0]
	rec, _ := f.store.snapshotGet(t, key)
	if !strings.HasPrefix(rec.FileID, "flowersdz/") {
		t.Fatalf("FileID = %q, want it inside the folder", rec.FileID)
	}

	if err := c.Delete(context.Background(), key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, err := st.Exists(context.Background(), rec.FileID); err != nil || ok {
		t.Fatalf("object still stored: %v, %v", ok, err)
	}
	if _, ok := f.store.snapshotGet(t, key); ok {
		t.Fatal("record still present")
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)

	if err := f.controller(view, true).Delete(context.Background(), "missing"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(view.confirms) != 0 || len(f.log.all()) != 0 {
		t.Fatalf("missing record was confirmed or deleted: %v %v", view.confirms, f.log.all())
	}
}

func TestDeleteRelayFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.deleter.err = errors.New("imagekit delete http error: status=500")
	key, _ := f.store.Push(context.Background(), media.Record{URL: "https://x/a.jpg", FileID: "f1", Type: media.TypeImage})
	view := newFakeView(true)

	err := f.controller(view, true).Delete(context.Background(), key)
	if !errors.Is(err, ErrDeleteFailed) {
		t.Fatalf("expected ErrDeleteFailed, got %v", err)
	}
	if got := view.alerts(); len(got) != 1 || got[0] != "could not delete" {
		t.Fatalf("unexpected alerts: %v", got)
	}
	if _, ok := f.store.snapshotGet(t, key); !ok {
		t.Fatal("record removed after relay failure")
	}
}

func TestDeleteNotConfirmed(t *testing.T) {
	f := newFixture(t)
	key, _ := f.store.Push(context.Background(), media.Record{URL: "https://x/a.jpg", FileID: "f1", Type: media.TypeImage})

	err := f.controller(newFakeView(false), true).Delete(context.Background(), key)
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if len(f.log.all()) != 0 {
		t.Fatalf("delete ran without confirmation: %v", f.log.all())
	}
}

func TestDeleteRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	view := newFakeView(true)

	if err := f.controller(view, false).Delete(context.Background(), "k"); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired, got %v", err)
	}
	if len(view.confirms) != 0 || len(f.log.all()) != 0 {
		t.Fatal("guard did not stop the delete")
	}
}

func TestProgressEventKeepsZeroPercent(t *testing.T) {
	view := NewRequestView(false)
	view.UploadProgress("row-1", 0)

	data, err := json.Marshal(view.Events())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"percent":0`) {
		t.Fatalf("zero progress dropped: %s", data)
	}
}

func TestRunnerLimitsConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	tasks := make([]func(context.Context), 6)
	for i := range tasks {
		tasks[i] = func(context.Context) {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}
	}

	NewRunner(2).Run(context.Background(), tasks)
	if peak < 1 || peak > 2 {
		t.Fatalf("peak concurrency = %d, want 1..2", peak)
	}
}

func (s *spyStore) snapshotGet(t *testing.T, key string) (media.Record, bool) {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap.Get(key)
}
