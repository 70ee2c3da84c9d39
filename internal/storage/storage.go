package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

// Package storage provides the persistent report store backing comment
// linkage lookups.

// Store persists normalized reports keyed by their post URL. The first
// unexpired record saved for a URL wins; later saves under the same URL
// (comments carry their parent post's URL) leave it untouched.
type Store interface {
	Close() error
	SaveReport(report domain.Report) error
	// FindByURL returns the stored post snapshot for the given URL. A missing
	// entry is not an error: the returned PostRef has Found == false.
	FindByURL(url string) (domain.PostRef, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ReportTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultReportTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = defaultReportTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                   { return nil }
func (noopStore) SaveReport(domain.Report) error { return nil }
func (noopStore) FindByURL(string) (domain.PostRef, error) {
	return domain.PostRef{}, nil
}
