package media

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestDefaultAlt(t *testing.T) {
	cases := []struct {
		defaultAlt, file, want string
	}{
		{"", "rose.jpg", "rose"},
		{"", "clip.final.mp4", "clip.final"},
		{"Bouquet.v2", "rose.jpg", "Bouquet"},
		{"Summer bouquet", "rose.jpg", "Summer bouquet"},
		{"", "noext", "noext"},
		{"", "trailing.", "trailing."},
	}
	for _, tc := range cases {
		if got := DefaultAlt(tc.defaultAlt, tc.file); got != tc.want {
			t.Errorf("DefaultAlt(%q, %q) = %q, want %q", tc.defaultAlt, tc.file, got, tc.want)
		}
	}
}

func TestTypeFor(t *testing.T) {
	if TypeFor("video/mp4") != TypeVideo {
		t.Fatal("video/mp4 should be video")
	}
	for _, ct := range []string{"image/jpeg", "", "application/octet-stream"} {
		if TypeFor(ct) != TypeImage {
			t.Fatalf("%q should be image", ct)
		}
	}
}

func TestRenderSortsByOrderAndKeepsTies(t *testing.T) {
	snap := Snapshot{
		{Key: "a", Record: Record{URL: "https://cdn/a.jpg", Type: TypeImage, Order: 3}},
		{Key: "b", Record: Record{URL: "https://cdn/b.jpg", Type: TypeImage, Order: 1}},
		{Key: "c", Record: Record{URL: "https://cdn/c.jpg", Type: TypeImage, Order: 1}},
		{Key: "d", Record: Record{URL: "https://cdn/d.mp4", Type: TypeVideo}},
	}

	cards := Render(snap, nil)
	var keys []string
	for _, c := range cards {
		keys = append(keys, c.Key)
	}
	if want := []string{"d", "b", "c", "a"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("order = %v, want %v", keys, want)
	}

	if snap[0].Key != "a" {
		t.Fatal("Render must not reorder the snapshot")
	}

	if !reflect.DeepEqual(cards, Render(snap, nil)) {
		t.Fatal("Render is not idempotent")
	}
}

func TestRenderCards(t *testing.T) {
	snap := Snapshot{
		{Key: "img", Record: Record{URL: "https://ik/x.jpg", FileID: "f1", Type: TypeImage, Alt: "rose", Order: 1}},
		{Key: "vid", Record: Record{URL: "https://ik/y.mp4", Type: TypeVideo, Alt: "clip", Order: 2}},
	}

	cards := Render(snap, nil)
	img, vid := cards[0], cards[1]

	if img.Kind != KindImage || img.Thumbnail != "https://ik/x.jpg?tr=w-400,h-400,fo-auto" || img.FileID != "f1" || img.Badge != TypeImage {
		t.Fatalf("unexpected image card: %+v", img)
	}
	if vid.Kind != KindVideo || vid.Thumbnail != "https://ik/y.mp4#t=0.5" || vid.Badge != TypeVideo {
		t.Fatalf("unexpected video card: %+v", vid)
	}

	custom := Render(snap, func(u string) string { return u + ".thumb" })
	if custom[0].Thumbnail != "https://ik/x.jpg.thumb" || custom[1].Thumbnail != "https://ik/y.mp4#t=0.5" {
		t.Fatalf("custom thumbnails not applied: %+v", custom)
	}
}

type snapshots struct {
	mu   sync.Mutex
	seen []Snapshot
}

func (s *snapshots) listen(snap Snapshot) {
	s.mu.Lock()
	s.seen = append(s.seen, snap)
	s.mu.Unlock()
}

func (s *snapshots) last() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[len(s.seen)-1]
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var got snapshots
	unsubscribe, err := store.Subscribe(ctx, got.listen)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(got.seen) != 1 || len(got.seen[0]) != 0 {
		t.Fatalf("expected immediate empty snapshot, got %v", got.seen)
	}

	key, err := store.Push(ctx, Record{URL: "https://ik/rose.jpg", FileID: "f1", Type: TypeImage, Alt: "rose", Order: 10, UID: "u1"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if rec, ok := got.last().Get(key); !ok || rec.Alt != "rose" {
		t.Fatalf("pushed record missing from snapshot: %v", got.last())
	}

	if err := store.Update(ctx, key, AltPatch("red rose")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rec, _ := got.last().Get(key)
	if rec.Alt != "red rose" || rec.Order != 10 || rec.FileID != "f1" || rec.UID != "u1" {
		t.Fatalf("partial update touched other fields: %+v", rec)
	}

	if err := store.Update(ctx, "missing", AltPatch("x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Update(ctx, key, Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}

	if stored, err := store.Get(ctx, key); err != nil || stored.FileID != "f1" {
		t.Fatalf("Get = %+v, %v", stored, err)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(got.last()) != 0 {
		t.Fatalf("record still present after remove: %v", got.last())
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove = %v, want ErrNotFound", err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("removing a missing key should succeed: %v", err)
	}

	unsubscribe()
	before := len(got.seen)
	if _, err := store.Push(ctx, Record{URL: "https://ik/b.jpg", Type: TypeImage}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(got.seen) != before {
		t.Fatal("listener called after unsubscribe")
	}
}

func TestMemoryStoreRejectsInvalidRecords(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Push(context.Background(), Record{Type: TypeImage}); !errors.Is(err, ErrMissingURL) {
		t.Fatalf("expected ErrMissingURL, got %v", err)
	}
	if _, err := store.Push(context.Background(), Record{URL: "u", Type: "gif"}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestMemoryStoreKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var want []string
	for i := 0; i < 5; i++ {
		key, err := store.Push(ctx, Record{URL: "u", Type: TypeImage})
		if err != nil {
			t.Fatalf("Push: %v", err)
		}
		want = append(want, key)
	}

	snap, _ := store.Snapshot(ctx)
	for i, e := range snap {
		if e.Key != want[i] {
			t.Fatalf("snapshot order %d = %s, want %s", i, e.Key, want[i])
		}
	}
}
