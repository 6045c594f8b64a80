package stats

import "github.com/verte-zerg/typist/internal/model"

// Mean returns the arithmetic mean of values, or 0 when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// NextUserStat folds a new session into prev. recentAccuracies must hold the
// accuracy of every retained session, including the new one; the average is
// recomputed from them rather than updated incrementally.
func NextUserStat(prev model.UserStat, wpm float64, recentAccuracies []float64) model.UserStat {
	next := prev
	if wpm > next.BestWPM {
		next.BestWPM = wpm
	}
	next.TotalTests++
	next.AvgAccuracy = Mean(recentAccuracies)
	return next
}
