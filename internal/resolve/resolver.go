package resolve

import (
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/events"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/storage"
)

const mediaVideoExt = "mp4"

// Resolver turns one raw comment into a normalized report: derives media
// metadata, defaults missing content, and resolves the comment's original
// post through the per-cycle cache and the persistent store.
type Resolver struct {
	store        storage.Store
	bus          *events.Bus
	mediaBaseURL string
	placeholder  string
}

// NewResolver wires a resolver against the report store.
func NewResolver(store storage.Store, bus *events.Bus, mediaBaseURL, placeholder string) *Resolver {
	if placeholder == "" {
		placeholder = "No Content"
	}
	return &Resolver{
		store:        store,
		bus:          bus,
		mediaBaseURL: mediaBaseURL,
		placeholder:  placeholder,
	}
}

// Resolve builds the normalized report for one raw comment. A failed store
// lookup is reported on the event bus and the report is emitted without the
// linkage fields; it never fails the batch.
func (r *Resolver) Resolve(raw domain.RawComment, cache *Cache) domain.Report {
	report := domain.Report{
		ID:         raw.ID,
		AuthoredAt: time.UnixMilli(raw.Timestamp),
		FetchedAt:  time.Now(),
		Content:    raw.Text,
		URL:        raw.Post,
	}

	if raw.Media != nil {
		mediaType := "photo"
		if raw.Media.Ext == mediaVideoExt {
			mediaType = "video"
		}
		report.Metadata = []domain.MediaItem{{
			Type:     mediaType,
			MediaURL: fmt.Sprintf("%s/static/%s.%s", r.mediaBaseURL, raw.ID, raw.Media.Ext),
		}}
	}

	if report.Content == "" {
		report.Content = r.placeholder
	}

	ref := r.linkedPost(raw.Post, cache)
	if ref.Found {
		report.CommentTo = ref.ID
		report.OriginalPost = ref.Content
	}
	return report
}

// linkedPost resolves the original post for a target URL, consulting the
// per-cycle cache first. Store errors are transient and do not populate the
// cache; definitive found/not-found results do.
func (r *Resolver) linkedPost(url string, cache *Cache) domain.PostRef {
	if url == "" {
		return domain.PostRef{}
	}
	if ref, ok := cache.Get(url); ok {
		return ref
	}

	ref, err := r.store.FindByURL(url)
	if err != nil {
		r.bus.Emit(events.NameLookupError, fmt.Errorf("find original post %s: %w", url, err))
		return domain.PostRef{}
	}

	cache.Put(url, ref)
	return ref
}
