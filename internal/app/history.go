package app

import "github.com/cocomastoras/automated-lottery/internal/state"

// Query-side pagination over the history store. All of these return empty
// results for out-of-range arguments, never errors.

// getHistory returns up to length closed rounds in descending round-id order,
// starting at fromRoundID (clamped to the newest closed round) and stopping at
// round 1. Covers resolved and cancelled rounds in true chronological order.
func getHistory(l *state.LottoState, fromRoundID, length uint64) []state.HistoryEntry {
	last := l.LastClosedRoundID()
	if last == 0 || length == 0 || fromRoundID == 0 {
		return []state.HistoryEntry{}
	}
	if fromRoundID > last {
		fromRoundID = last
	}
	out := make([]state.HistoryEntry, 0, length)
	for id := fromRoundID; id >= 1 && uint64(len(out)) < length; id-- {
		out = append(out, l.History[id-1])
	}
	return out
}

// getByIndex paginates a completed/cancelled index array: 0-based offset,
// ascending order of the log's own positions.
func getByIndex(l *state.LottoState, index []uint64, offset, length uint64) []state.HistoryEntry {
	if offset >= uint64(len(index)) || length == 0 {
		return []state.HistoryEntry{}
	}
	end := offset + length
	if end > uint64(len(index)) {
		end = uint64(len(index))
	}
	out := make([]state.HistoryEntry, 0, end-offset)
	for _, id := range index[offset:end] {
		out = append(out, l.History[id-1])
	}
	return out
}

// getUserRounds splits the user's last `length` entered rounds into completed
// and cancelled snapshot lists, each most-recent-first. Rounds that are not yet
// terminal (the in-flight round) are dropped.
func getUserRounds(l *state.LottoState, participant string, length uint64) (completed, cancelled []state.HistoryEntry) {
	completed = []state.HistoryEntry{}
	cancelled = []state.HistoryEntry{}
	entered := l.UserRounds[participant]
	last := l.LastClosedRoundID()
	for i := len(entered) - 1; i >= 0 && uint64(len(entered)-1-i) < length; i-- {
		id := entered[i]
		if id > last {
			continue
		}
		snap := l.History[id-1]
		if snap.Cancelled {
			cancelled = append(cancelled, snap)
		} else {
			completed = append(completed, snap)
		}
	}
	return completed, cancelled
}

// PendingEntry is one row of the pending-claims scan: a round the caller has
// not yet redeemed, with the raw amount. The fee applies only to "win" rows and
// is left to the caller to subtract when previewing claimable value.
type PendingEntry struct {
	RoundID uint64 `json:"roundId"`
	Status  string `json:"status"` // "win" | "refund"
	Amount  uint64 `json:"amount"`
}

// getPendingEntries scans a window of the caller's entered-rounds index,
// most-recent-first, offset/length addressing positions in that index.
func getPendingEntries(l *state.LottoState, participant string, offset, length uint64) []PendingEntry {
	out := []PendingEntry{}
	entered := l.UserRounds[participant]
	n := uint64(len(entered))
	if offset >= n || length == 0 {
		return out
	}
	for pos := offset; pos < n && pos < offset+length; pos++ {
		id := entered[n-1-pos]
		r := l.RoundByID(id)
		if r == nil {
			continue
		}
		switch r.State {
		case state.RoundResolved:
			if r.Winner == participant && !r.Claimed {
				out = append(out, PendingEntry{RoundID: id, Status: "win", Amount: r.TotalStake})
			}
		case state.RoundCancelled:
			if !r.HasRefunded(participant) {
				if amt := r.EntryTotalFor(participant); amt > 0 {
					out = append(out, PendingEntry{RoundID: id, Status: "refund", Amount: amt})
				}
			}
		}
	}
	return out
}
