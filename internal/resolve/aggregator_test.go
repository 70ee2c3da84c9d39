package resolve

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/events"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/storage"
)

func TestRunBatchEmptyInputCompletesImmediately(t *testing.T) {
	agg := NewAggregator(newTestResolver(&fakeStore{}, events.NewBus()), 4)

	done := make(chan []domain.Report, 1)
	go func() {
		done <- agg.RunBatch(context.Background(), nil)
	}()

	select {
	case reports := <-done:
		if reports == nil || len(reports) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", reports)
		}
	case <-time.After(time.Second):
		t.Fatalf("empty batch must not hang")
	}
}

func TestRunBatchResolvesEveryItem(t *testing.T) {
	store := &fakeStore{posts: map[string]domain.PostRef{
		"u0": {ID: "p0", Content: "post zero", Found: true},
	}}
	agg := NewAggregator(newTestResolver(store, events.NewBus()), 4)

	const n = 25
	items := make([]domain.RawComment, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.RawComment{
			ID:   fmt.Sprintf("c%d", i),
			Post: fmt.Sprintf("u%d", i%5),
		})
	}

	reports := agg.RunBatch(context.Background(), items)
	if len(reports) != n {
		t.Fatalf("expected %d reports, got %d", n, len(reports))
	}

	seen := make(map[string]bool, n)
	for _, r := range reports {
		if seen[r.ID] {
			t.Fatalf("report %s delivered twice", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestRunBatchReusesCacheAcrossItems(t *testing.T) {
	store := &fakeStore{posts: map[string]domain.PostRef{
		"shared": {ID: "p1", Content: "post", Found: true},
	}}
	// Concurrency 1 makes each resolution start after the previous cache
	// write, so the reuse guarantee is deterministic.
	agg := NewAggregator(newTestResolver(store, events.NewBus()), 1)

	items := []domain.RawComment{
		{ID: "c1", Post: "shared"},
		{ID: "c2", Post: "shared"},
		{ID: "c3", Post: "shared"},
	}
	reports := agg.RunBatch(context.Background(), items)

	if store.lookupCount() != 1 {
		t.Fatalf("expected 1 lookup for shared URL, got %d", store.lookupCount())
	}
	for _, r := range reports {
		if r.CommentTo != "p1" || r.OriginalPost != "post" {
			t.Fatalf("report %s lost linkage: %#v", r.ID, r)
		}
	}
}

func TestRunBatchLinkageRoundTrip(t *testing.T) {
	store := &fakeStore{posts: map[string]domain.PostRef{
		"https://social.example/p/9": {ID: "p9", Content: "verbatim original content", Found: true},
	}}
	agg := NewAggregator(newTestResolver(store, events.NewBus()), 4)

	reports := agg.RunBatch(context.Background(), []domain.RawComment{
		{ID: "c1", Text: "reply", Post: "https://social.example/p/9"},
	})

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].CommentTo != "p9" || reports[0].OriginalPost != "verbatim original content" {
		t.Fatalf("round trip mutated linkage: %#v", reports[0])
	}
}

func TestRunBatchCancelledContextSkipsItems(t *testing.T) {
	agg := NewAggregator(newTestResolver(&fakeStore{}, events.NewBus()), 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan []domain.Report, 1)
	go func() {
		done <- agg.RunBatch(ctx, []domain.RawComment{
			{ID: "c1", Post: "u1"},
			{ID: "c2", Post: "u2"},
		})
	}()

	select {
	case reports := <-done:
		if len(reports) != 0 {
			t.Fatalf("expected no reports after cancellation, got %d", len(reports))
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled batch must not hang")
	}
}

// Comments share their parent post's URL, so persisting each cycle's reports
// must never displace the post's stored record. Two cycles against a real
// store, each with a fresh per-cycle cache, verify the second comment still
// links to the original post.
func TestRunBatchLinkageSurvivesSavedComments(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore("bbolt", dir+"/reports.db", storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	original := domain.Report{
		ID:      "p9",
		URL:     "https://social.example/p/9",
		Content: "original content",
	}
	if err := store.SaveReport(original); err != nil {
		t.Fatalf("SaveReport original: %v", err)
	}

	agg := NewAggregator(NewResolver(store, events.NewBus(), "https://social.example", ""), 4)
	ctx := context.Background()

	first := agg.RunBatch(ctx, []domain.RawComment{
		{ID: "c1", Text: "first reply", Post: original.URL},
	})
	if len(first) != 1 || first[0].CommentTo != "p9" {
		t.Fatalf("first cycle lost linkage: %#v", first)
	}
	for _, r := range first {
		if err := store.SaveReport(r); err != nil {
			t.Fatalf("SaveReport cycle report: %v", err)
		}
	}

	second := agg.RunBatch(ctx, []domain.RawComment{
		{ID: "c2", Text: "second reply", Post: original.URL},
	})
	if len(second) != 1 {
		t.Fatalf("expected 1 report, got %d", len(second))
	}
	if second[0].CommentTo != "p9" || second[0].OriginalPost != "original content" {
		t.Fatalf("linkage corrupted after saving a comment: %#v", second[0])
	}
}
