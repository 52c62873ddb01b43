package stats

import (
	"context"
	"fmt"

	"github.com/eldtechnologies/hookstore/internal/models"
	"github.com/eldtechnologies/hookstore/internal/store"
)

// TopSenders is how many senders messages_per_sender lists.
const TopSenders = 10

// Source computes aggregates from storage.
type Source interface {
	GetStats(ctx context.Context, topSenders int) (*models.Stats, error)
}

// Aggregator recomputes message statistics on every call. Nothing is cached.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator reading from s.
func NewAggregator(s Source) *Aggregator {
	return &Aggregator{source: s}
}

// Compute returns the current statistics. An empty store yields zero
// counts, an empty sender list and nil timestamps.
func (a *Aggregator) Compute(ctx context.Context) (*models.Stats, error) {
	st, err := a.source.GetStats(ctx, TopSenders)
	if err != nil {
		return nil, fmt.Errorf("%w: compute stats: %w", store.ErrStorageUnavailable, err)
	}
	if st.MessagesPerSender == nil {
		st.MessagesPerSender = []models.SenderCount{}
	}
	return st, nil
}
