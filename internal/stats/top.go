// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/typist/internal/model"
)

// RankErrors orders error frequencies by descending total and keeps at most n.
// Equal totals keep first-occurrence order (lower FirstSeen first).
func RankErrors(freqs []model.ErrorFrequency, n int) []model.ErrorFrequency {
	if n <= 0 || len(freqs) == 0 {
		return nil
	}
	items := make([]model.ErrorFrequency, len(freqs))
	copy(items, freqs)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Total == items[j].Total {
			return items[i].FirstSeen < items[j].FirstSeen
		}
		return items[i].Total > items[j].Total
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
