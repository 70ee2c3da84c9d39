package storage

import (
	"testing"
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

func TestBoltStoreSaveAndFind(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/reports.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	report := domain.Report{
		ID:      "p1",
		URL:     "https://social.example/p/1",
		Content: "original post text",
	}
	if err := store.SaveReport(report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	ref, err := store.FindByURL("https://social.example/p/1")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if !ref.Found {
		t.Fatalf("expected stored report to be found")
	}
	if ref.ID != "p1" || ref.Content != "original post text" {
		t.Fatalf("unexpected ref %#v", ref)
	}
}

func TestBoltStoreFindMissingURL(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/reports.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	ref, err := store.FindByURL("https://social.example/p/unknown")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if ref.Found {
		t.Fatalf("expected Found == false for missing URL")
	}
}

func TestBoltStoreExpiresReports(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		ReportTTL:       1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}
	storeRaw, err := openBolt(dir+"/reports.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if err := store.SaveReport(domain.Report{ID: "p1", URL: "u1", Content: "c"}); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	// Fast-forward cleanup cadence and wait out the TTL.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	ref, err := store.FindByURL("u1")
	if err != nil {
		t.Fatalf("FindByURL after expiry: %v", err)
	}
	if ref.Found {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreFirstWriteWins(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/reports.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	original := domain.Report{ID: "p1", URL: "u1", Content: "original post text"}
	if err := store.SaveReport(original); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	// Comments carry the parent post's URL; saving one must not replace the
	// post's record.
	comment := domain.Report{ID: "c1", URL: "u1", Content: "first reply", CommentTo: "p1"}
	if err := store.SaveReport(comment); err != nil {
		t.Fatalf("SaveReport comment: %v", err)
	}

	ref, err := store.FindByURL("u1")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if ref.ID != "p1" || ref.Content != "original post text" {
		t.Fatalf("expected original record to survive, got %#v", ref)
	}
}

func TestBoltStoreReplacesExpiredRecord(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(dir+"/reports.db", Options{
		ReportTTL:       1 * time.Second,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if err := store.SaveReport(domain.Report{ID: "p1", URL: "u1", Content: "old"}); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	if err := store.SaveReport(domain.Report{ID: "p2", URL: "u1", Content: "new"}); err != nil {
		t.Fatalf("SaveReport after expiry: %v", err)
	}

	ref, err := store.FindByURL("u1")
	if err != nil {
		t.Fatalf("FindByURL: %v", err)
	}
	if ref.ID != "p2" || ref.Content != "new" {
		t.Fatalf("expected expired record to be replaced, got %#v", ref)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveReport(domain.Report{URL: "u"}); err != nil {
		t.Fatalf("noop store SaveReport: %v", err)
	}
	ref, err := store.FindByURL("u")
	if err != nil || ref.Found {
		t.Fatalf("noop store FindByURL = %#v, %v", ref, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("cassandra", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}
