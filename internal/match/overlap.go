package match

// slotsOverlap applies the half-open interval test: two slots overlap iff they
// fall on the same day and each starts before the other ends. Touching
// endpoints (one ends exactly when the other starts) do not overlap.
func slotsOverlap(a, b Slot) bool {
	return a.DayOfWeek == b.DayOfWeek && a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute
}

// OverlapScore counts the overlapping slot pairs between two weekly schedules.
//
// The score is a pair count, not a duration sum: a candidate with many short
// shared windows outranks one with a single long window. That is the intended
// heuristic, rewarding schedules that line up often rather than long.
// Duplicate slots on either side are not deduplicated and each contributes
// its own pairs.
func OverlapScore(requester, candidate []Slot) int {
	if len(requester) == 0 || len(candidate) == 0 {
		return 0
	}

	// Bucket the candidate's slots by day so each requester slot only scans
	// the matching day.
	byDay := make(map[int][]Slot, 7)
	for _, s := range candidate {
		byDay[s.DayOfWeek] = append(byDay[s.DayOfWeek], s)
	}

	score := 0
	for _, r := range requester {
		for _, c := range byDay[r.DayOfWeek] {
			if slotsOverlap(r, c) {
				score++
			}
		}
	}
	return score
}
