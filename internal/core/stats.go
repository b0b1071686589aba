package core

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Stats summarizes the editor contents for the dashboard.
type Stats struct {
	Counts  map[Kind]int        `json:"counts"`
	Uploads UploadLimiterStatus `json:"uploads"`
}

// Stats counts every kind concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Counts: make(map[Kind]int, len(Kinds)), Uploads: s.limiter.Status()}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range Kinds {
		g.Go(func() error {
			records, err := s.loadRecords(ctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			stats.Counts[kind] = len(records)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
