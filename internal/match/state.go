package match

// stateByCandidate folds the requester's live connections into a per-candidate
// tri-state map. An accepted connection wins over a pending one for the same
// counterpart; candidates absent from the map are StateNone.
//
// Connection state is informational only. It never removes a candidate from
// results; it tells the caller which action to offer (e.g., hide "connect"
// when a request is already pending).
func stateByCandidate(requesterID uint, records []ConnectionRecord) map[uint]ConnectionState {
	states := make(map[uint]ConnectionState, len(records))
	for _, rec := range records {
		other := rec.Other(requesterID)
		switch rec.Status {
		case StatusAccepted:
			states[other] = StateConnected
		case StatusPending:
			if states[other] != StateConnected {
				states[other] = StatePending
			}
		}
	}
	return states
}

// resolveState maps a candidate through the folded state map.
func resolveState(states map[uint]ConnectionState, candidateID uint) ConnectionState {
	if s, ok := states[candidateID]; ok {
		return s
	}
	return StateNone
}
