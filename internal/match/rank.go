package match

import "sort"

// DefaultLimit is the result count returned when the caller passes no limit.
// MaxLimit is a hard cap on recommendation breadth; larger requests are
// clamped, never honored.
const (
	DefaultLimit = 10
	MaxLimit     = 10
)

// clampLimit normalizes a caller-supplied limit into [1, MaxLimit].
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// rankResults orders results by overlap score descending, breaking ties by
// join timestamp ascending (earlier-joined users surface first) and finally
// by candidate ID so the ordering is total. The full set is ranked before
// truncation, so the cut always keeps the best-scored entries.
func rankResults(results []MatchResult, limit int) []MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].OverlapScore != results[j].OverlapScore {
			return results[i].OverlapScore > results[j].OverlapScore
		}
		if !results[i].JoinedAt.Equal(results[j].JoinedAt) {
			return results[i].JoinedAt.Before(results[j].JoinedAt)
		}
		return results[i].UserID < results[j].UserID
	})

	limit = clampLimit(limit)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
