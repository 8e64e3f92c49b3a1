package match

import (
	"testing"
	"time"
)

func result(id uint, score int, joined time.Time) MatchResult {
	return MatchResult{
		CandidateProfile: CandidateProfile{UserID: id, JoinedAt: joined},
		OverlapScore:     score,
		ConnectionState:  StateNone,
	}
}

func TestRankResultsByScoreDescending(t *testing.T) {
	now := time.Now()
	results := rankResults([]MatchResult{
		result(1, 0, now),
		result(2, 5, now),
		result(3, 2, now),
	}, 10)

	want := []uint{2, 3, 1}
	for i, id := range want {
		if results[i].UserID != id {
			t.Fatalf("position %d: expected user %d, got %d", i, id, results[i].UserID)
		}
	}
}

func TestRankResultsTieBreakByJoinDate(t *testing.T) {
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	results := rankResults([]MatchResult{
		result(10, 3, base.AddDate(0, 2, 0)),
		result(11, 3, base), // earlier join surfaces first
		result(12, 3, base.AddDate(0, 1, 0)),
	}, 10)

	want := []uint{11, 12, 10}
	for i, id := range want {
		if results[i].UserID != id {
			t.Fatalf("position %d: expected user %d, got %d", i, id, results[i].UserID)
		}
	}
}

func TestRankResultsTieBreakByUserID(t *testing.T) {
	joined := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	results := rankResults([]MatchResult{
		result(7, 1, joined),
		result(3, 1, joined),
		result(5, 1, joined),
	}, 10)

	want := []uint{3, 5, 7}
	for i, id := range want {
		if results[i].UserID != id {
			t.Fatalf("position %d: expected user %d, got %d", i, id, results[i].UserID)
		}
	}
}

func TestRankResultsTruncates(t *testing.T) {
	now := time.Now()
	var results []MatchResult
	for i := 1; i <= 25; i++ {
		results = append(results, result(uint(i), i, now))
	}

	ranked := rankResults(results, 10)
	if len(ranked) != 10 {
		t.Fatalf("expected 10 results, got %d", len(ranked))
	}
	// The cut keeps the best scores.
	if ranked[0].OverlapScore != 25 || ranked[9].OverlapScore != 16 {
		t.Errorf("truncation dropped high-scoring entries: top %d, bottom %d",
			ranked[0].OverlapScore, ranked[9].OverlapScore)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{5, 5},
		{10, 10},
		{11, MaxLimit},
		{1000, MaxLimit},
	}
	for _, tc := range cases {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRankResultsDeterministic(t *testing.T) {
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	build := func() []MatchResult {
		return []MatchResult{
			result(4, 2, base),
			result(2, 2, base),
			result(9, 0, base.AddDate(0, 0, 5)),
			result(1, 7, base),
		}
	}

	first := rankResults(build(), 10)
	second := rankResults(build(), 10)
	for i := range first {
		if first[i].UserID != second[i].UserID {
			t.Fatalf("ordering not deterministic at position %d", i)
		}
	}
}
