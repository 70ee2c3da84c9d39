package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

// Event represents the payload published downstream for one normalized report.
type Event struct {
	Source      string        `json:"source"`
	Report      domain.Report `json:"report"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent constructs an Event for the given source + report.
func NewEvent(source string, report domain.Report) Event {
	return Event{
		Source:      source,
		Report:      report,
		CollectedAt: time.Now().UTC(),
	}
}
