package app

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cocomastoras/automated-lottery/internal/state"
)

func TestPickWinner_BoundaryTargets(t *testing.T) {
	entries := []state.Entry{
		{Participant: "alice", Amount: 7},
		{Participant: "bob", Amount: 3},
	}

	// Alice covers targets [0,7), bob [7,10).
	for _, tc := range []struct {
		r    int64
		want int
	}{
		{r: 0, want: 0},
		{r: 6, want: 0},
		{r: 7, want: 1},
		{r: 9, want: 1},
		{r: 10, want: 0}, // wraps: 10 mod 10 = 0
		{r: 17, want: 1},
	} {
		idx, err := pickWinner(entries, 10, big.NewInt(tc.r))
		require.NoError(t, err, "r=%d", tc.r)
		require.Equal(t, tc.want, idx, "r=%d", tc.r)
	}
}

func TestPickWinner_OracleScaleValues(t *testing.T) {
	entries := []state.Entry{
		{Participant: "alice", Amount: 600},
		{Participant: "bob", Amount: 400},
	}

	// 256-bit values reduce mod totalStake without precision loss.
	r, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)
	idx, err := pickWinner(entries, 1000, r)
	require.NoError(t, err)
	// max(uint256) mod 1000 = 935, inside bob's range [600,1000).
	require.Equal(t, 1, idx)
}

func TestPickWinner_SingleEntryAlwaysWins(t *testing.T) {
	entries := []state.Entry{{Participant: "alice", Amount: 5}}
	for _, r := range []int64{0, 1, 4, 5, 1 << 40} {
		idx, err := pickWinner(entries, 5, big.NewInt(r))
		require.NoError(t, err)
		require.Equal(t, 0, idx)
	}
}

func TestPickWinner_InsertionOrderMatters(t *testing.T) {
	forward := []state.Entry{
		{Participant: "alice", Amount: 5},
		{Participant: "bob", Amount: 5},
	}
	reversed := []state.Entry{
		{Participant: "bob", Amount: 5},
		{Participant: "alice", Amount: 5},
	}

	idx, err := pickWinner(forward, 10, big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, "alice", forward[idx].Participant)

	idx, err = pickWinner(reversed, 10, big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, "bob", reversed[idx].Participant)
}

func TestPickWinner_FrequencyMatchesWeights(t *testing.T) {
	entries := []state.Entry{
		{Participant: "alice", Amount: 7},
		{Participant: "bob", Amount: 3},
	}

	// Sweeping a full residue range is an exact frequency check: every residue
	// class mod 10 appears the same number of times.
	wins := map[string]int{}
	for r := int64(0); r < 1000; r++ {
		idx, err := pickWinner(entries, 10, big.NewInt(r))
		require.NoError(t, err)
		wins[entries[idx].Participant]++
	}
	require.Equal(t, 700, wins["alice"])
	require.Equal(t, 300, wins["bob"])
}

func TestPickWinner_Rejections(t *testing.T) {
	entries := []state.Entry{{Participant: "alice", Amount: 5}}

	_, err := pickWinner(nil, 5, big.NewInt(1))
	require.Error(t, err)

	_, err = pickWinner(entries, 0, big.NewInt(1))
	require.Error(t, err)

	_, err = pickWinner(entries, 5, nil)
	require.Error(t, err)

	_, err = pickWinner(entries, 5, big.NewInt(-1))
	require.Error(t, err)
}

func TestMulDivU64_FeeFloor(t *testing.T) {
	// floor semantics at the bps denominator.
	require.Equal(t, uint64(1), mulDivU64(19, 1000, 10_000))
	require.Equal(t, uint64(66), mulDivU64(667, 1000, 10_000))
	require.Equal(t, uint64(0), mulDivU64(9, 1000, 10_000))

	// No intermediate overflow near the top of the range.
	max := ^uint64(0)
	require.Equal(t, max/10, mulDivU64(max, 1000, 10_000))
}
