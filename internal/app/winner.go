package app

import (
	"fmt"
	"math/big"

	"github.com/cocomastoras/automated-lottery/internal/state"
)

// pickWinner draws one entry with probability proportional to its amount.
//
// target = r mod totalStake; walking entries in insertion order, the first
// entry whose cumulative amount exceeds target wins. The draw is bit-exact for
// a given entry sequence and random value, and depends on insertion order, not
// amount order.
func pickWinner(entries []state.Entry, totalStake uint64, r *big.Int) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("no entries")
	}
	if totalStake == 0 {
		return 0, fmt.Errorf("zero total stake")
	}
	if r == nil || r.Sign() < 0 {
		return 0, fmt.Errorf("invalid random value")
	}

	target := new(big.Int).Mod(r, new(big.Int).SetUint64(totalStake)).Uint64()

	var cum uint64
	for i, e := range entries {
		cum += e.Amount // cannot overflow: sum of entries == totalStake
		if cum > target {
			return i, nil
		}
	}
	// Unreachable while the totalStake invariant holds.
	return 0, fmt.Errorf("cumulative walk exhausted: total=%d target=%d", totalStake, target)
}
