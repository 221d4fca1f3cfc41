package services

import (
	"context"
	"maps"

	"go.uber.org/zap"

	"vegn-telegram/storage"
)

const PopularityKey = "vegn-bio-popularity"

// Popularity counts add-to-cart events per menu item across all customers.
// It feeds SortByPopularity.
type Popularity struct {
	counts *storage.Value[map[int64]int64]
}

func NewPopularity(ctx context.Context, kv storage.KV, logger *zap.Logger) *Popularity {
	return &Popularity{
		counts: storage.NewValue(ctx, kv, PopularityKey, func() map[int64]int64 { return map[int64]int64{} }, logger),
	}
}

func (p *Popularity) Record(ctx context.Context, itemID int64) {
	p.counts.Mutate(ctx, func(m map[int64]int64) (map[int64]int64, bool) {
		if m == nil {
			m = map[int64]int64{}
		}
		m[itemID]++
		return m, true
	})
}

// Scores returns a snapshot of the counts.
func (p *Popularity) Scores() map[int64]int64 {
	var out map[int64]int64
	p.counts.View(func(m map[int64]int64) { out = maps.Clone(m) })
	if out == nil {
		out = map[int64]int64{}
	}
	return out
}

func (p *Popularity) Score(itemID int64) int64 {
	var n int64
	p.counts.View(func(m map[int64]int64) { n = m[itemID] })
	return n
}
