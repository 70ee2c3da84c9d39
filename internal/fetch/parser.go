package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

// parseBatch decodes the upstream body into an ordered slice of raw comments.
// It fails when the body is not valid JSON or the top-level value is anything
// other than an array; a parse failure never delivers a partial batch.
func parseBatch(body []byte) ([]domain.RawComment, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var items []domain.RawComment
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode upstream body: %w", err)
	}
	if items == nil {
		items = []domain.RawComment{}
	}
	return items, nil
}
