package resolve

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
)

// Aggregator fans resolution out across every raw comment in a batch and fans
// back in, returning only after each item has produced a report.
type Aggregator struct {
	resolver *Resolver
	maxConc  int
}

// NewAggregator builds an aggregator with the given lookup concurrency bound.
func NewAggregator(resolver *Resolver, maxConcurrent int) *Aggregator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Aggregator{resolver: resolver, maxConc: maxConcurrent}
}

// RunBatch resolves all items and returns the completed reports, in completion
// order rather than input order. An empty batch returns immediately without
// spawning any work. Cancelling the context skips items that have not started
// yet, so on shutdown the slice holds only the reports finished in time.
func (a *Aggregator) RunBatch(ctx context.Context, items []domain.RawComment) []domain.Report {
	if len(items) == 0 {
		return []domain.Report{}
	}

	cache := NewCache()
	out := make(chan domain.Report, len(items))

	var g errgroup.Group
	g.SetLimit(a.maxConc)
	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out <- a.resolver.Resolve(item, cache)
			return nil
		})
	}
	_ = g.Wait()
	close(out)

	reports := make([]domain.Report, 0, len(items))
	for report := range out {
		reports = append(reports, report)
	}
	return reports
}
