package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeRecencyKV is an in-memory stand-in for the redis structures.
type fakeRecencyKV struct {
	mu     sync.Mutex
	lists  map[string][]string
	hashes map[string]map[string]string
}

func newFakeRecencyKV() *fakeRecencyKV {
	return &fakeRecencyKV{
		lists:  make(map[string][]string),
		hashes: make(map[string]map[string]string),
	}
}

func (f *fakeRecencyKV) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.lists[key]
	n := int64(len(list))
	if n == 0 {
		return nil, nil
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (f *fakeRecencyKV) ListPushTrim(ctx context.Context, key, val string, maxLen int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := append([]string{val}, f.lists[key]...)
	if int64(len(list)) > maxLen {
		list = list[:maxLen]
	}
	f.lists[key] = list
	return nil
}

func (f *fakeRecencyKV) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		return "", false, nil
	}
	val, ok := h[field]
	return val, ok, nil
}

func (f *fakeRecencyKV) HashSet(ctx context.Context, key, field, val string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	h[field] = val
	return nil
}

func newTestRecencyCache(t *testing.T, now time.Time) (*recencyCacheService, *fakeRecencyKV) {
	t.Helper()
	kv := newFakeRecencyKV()
	return &recencyCacheService{
		log:      newTestLogger(t),
		kv:       kv,
		capacity: 3,
		now:      func() time.Time { return now },
	}, kv
}

func urls(keys []RecentKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.URL
	}
	return out
}

func TestRecencyCacheRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestRecencyCache(t, now)

	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.Record(ctx, "t1", "key-b"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	keys, err := svc.Recent(ctx, "t1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := urls(keys)
	if len(got) != 2 || got[0] != "key-b" || got[1] != "key-a" {
		t.Fatalf("recent = %v, want [key-b key-a]", got)
	}
	if keys[0].UseCount != 1 || !keys[0].LastUsed.Equal(now) {
		t.Fatalf("unexpected stats: %+v", keys[0])
	}
}

func TestRecencyCacheBound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRecencyCache(t, time.Now())

	for _, url := range []string{"key-a", "key-b", "key-c", "key-d"} {
		if err := svc.Record(ctx, "t1", url); err != nil {
			t.Fatalf("Record(%s): %v", url, err)
		}
	}

	keys, err := svc.Recent(ctx, "t1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := urls(keys)
	want := []string{"key-d", "key-c", "key-b"}
	if len(got) != len(want) {
		t.Fatalf("recent = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recent = %v, want %v", got, want)
		}
	}
}

func TestRecencyCacheReuseKeepsPosition(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRecencyCache(t, time.Now())

	for _, url := range []string{"key-a", "key-b", "key-c"} {
		if err := svc.Record(ctx, "t1", url); err != nil {
			t.Fatalf("Record(%s): %v", url, err)
		}
	}
	// Reusing the oldest entry bumps its counter but does not move it to
	// the front.
	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record reuse: %v", err)
	}

	keys, err := svc.Recent(ctx, "t1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := urls(keys)
	if got[0] != "key-c" || got[2] != "key-a" {
		t.Fatalf("recent = %v, want key-a still last", got)
	}
	if keys[2].UseCount != 2 {
		t.Fatalf("key-a use count = %d, want 2", keys[2].UseCount)
	}
}

func TestRecencyCacheEvictedKeyResumesCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRecencyCache(t, time.Now())

	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Push key-a out of the bounded list.
	for _, url := range []string{"key-b", "key-c", "key-d"} {
		if err := svc.Record(ctx, "t1", url); err != nil {
			t.Fatalf("Record(%s): %v", url, err)
		}
	}
	// The stats hash survives eviction, so the count picks up at 3.
	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record after eviction: %v", err)
	}

	keys, err := svc.Recent(ctx, "t1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if keys[0].URL != "key-a" {
		t.Fatalf("recent = %v, want key-a first", urls(keys))
	}
	if keys[0].UseCount != 3 {
		t.Fatalf("key-a use count = %d, want 3", keys[0].UseCount)
	}
}

func TestRecencyCacheMissingStatsDefault(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, kv := newTestRecencyCache(t, now)

	// A list entry with no stats row, e.g. after the hash was flushed.
	if err := kv.ListPushTrim(ctx, listKey("t1"), "key-a", 3); err != nil {
		t.Fatalf("seed list: %v", err)
	}

	keys, err := svc.Recent(ctx, "t1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	if keys[0].UseCount != 0 || !keys[0].LastUsed.Equal(now) {
		t.Fatalf("defaults not applied: %+v", keys[0])
	}
}

func TestRecencyCachePerTeacherIsolation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRecencyCache(t, time.Now())

	if err := svc.Record(ctx, "t1", "key-a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	keys, err := svc.Recent(ctx, "t2")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("t2 sees %v, want empty", urls(keys))
	}
}

func TestRecencyCacheRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRecencyCache(t, time.Now())
	if err := svc.Record(ctx, "", "key-a"); err == nil {
		t.Fatal("want error for empty teacher id")
	}
	if err := svc.Record(ctx, "t1", ""); err == nil {
		t.Fatal("want error for empty key url")
	}
}
