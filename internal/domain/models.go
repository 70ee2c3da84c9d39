package domain

import "time"

// Domain contains core models shared across the ingestion pipeline.

// RawComment is an upstream record as delivered by the comments API, before
// normalization. Post holds the URL of the post the record belongs to: the
// record's own URL for an original post, the parent's URL for a comment.
type RawComment struct {
	ID        string           `json:"_id"`
	Timestamp int64            `json:"timestamp"` // epoch millis
	Text      string           `json:"text"`
	Media     *MediaDescriptor `json:"media"`
	Post      string           `json:"post"`
}

// MediaDescriptor describes an attachment carried by a raw comment.
type MediaDescriptor struct {
	Kind string `json:"kind"`
	Ext  string `json:"ext"`
}

// MediaItem is derived media metadata on a normalized report.
type MediaItem struct {
	Type     string `json:"type"` // "video" or "photo"
	MediaURL string `json:"mediaUrl"`
}

// PostRef is an immutable snapshot of an original post's identity and content,
// used to link a comment back to the post it was written under.
type PostRef struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Found   bool   `json:"-"`
}

// Report is the normalized output unit handed to persistence and publishers.
// CommentTo and OriginalPost are set only when the source item is a comment
// whose original post could be resolved.
type Report struct {
	ID           string      `json:"id"`
	AuthoredAt   time.Time   `json:"authored_at"`
	FetchedAt    time.Time   `json:"fetched_at"`
	Content      string      `json:"content"`
	URL          string      `json:"url"`
	Metadata     []MediaItem `json:"metadata,omitempty"`
	CommentTo    string      `json:"comment_to,omitempty"`
	OriginalPost string      `json:"original_post,omitempty"`
}
