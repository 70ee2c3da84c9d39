package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

const reportBucket = "reports"

// storedReport is the on-disk record: the normalized report plus its expiry.
type storedReport struct {
	Report    domain.Report `json:"report"`
	ExpiresAt int64         `json:"expires_at"` // unix seconds
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	reportTTL       time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		reportTTL:       opts.ReportTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveReport stores the report keyed by its post URL. The first record saved
// for a URL wins: comments share their parent post's URL, and letting them
// overwrite the post's record would corrupt every later linkage lookup. An
// expired or unreadable record is replaced.
func (b *boltStore) SaveReport(report domain.Report) error {
	if b == nil || b.db == nil {
		return nil
	}
	if report.URL == "" {
		return fmt.Errorf("report has no url")
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	record := storedReport{
		Report:    report,
		ExpiresAt: now.Add(b.reportTTL).Unix(),
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return fmt.Errorf("report bucket missing")
		}

		key := []byte(report.URL)
		if existing := bucket.Get(key); existing != nil {
			var prev storedReport
			if err := json.Unmarshal(existing, &prev); err == nil && time.Unix(prev.ExpiresAt, 0).After(now) {
				return nil
			}
		}
		return bucket.Put(key, value)
	})
}

// FindByURL looks up the post snapshot stored under the given URL.
func (b *boltStore) FindByURL(url string) (domain.PostRef, error) {
	if b == nil || b.db == nil {
		return domain.PostRef{}, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return domain.PostRef{}, err
	}

	var ref domain.PostRef
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return fmt.Errorf("report bucket missing")
		}

		key := []byte(url)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		var record storedReport
		if err := json.Unmarshal(value, &record); err != nil {
			// Unreadable record, drop it rather than failing every lookup.
			return bucket.Delete(key)
		}
		if !time.Unix(record.ExpiresAt, 0).After(time.Now()) {
			return bucket.Delete(key)
		}

		ref = domain.PostRef{
			ID:      record.Report.ID,
			Content: record.Report.Content,
			Found:   true,
		}
		return nil
	})
	return ref, err
}

// maybeCleanupExpired removes expired reports on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return fmt.Errorf("report bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var record storedReport
			if err := json.Unmarshal(v, &record); err != nil || !time.Unix(record.ExpiresAt, 0).After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}
