package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MinEntryValue:     1,
		MaxEntries:        50,
		RoundDurationSecs: 300,
		FeeBps:            1000,
		Admin:             "admin",
		Oracle:            "oracle",
		FeeSink:           "sink",
	}
}

func populated() *State {
	st := NewState(testConfig())
	st.Height = 7
	st.Accounts["alice"] = 100
	st.Accounts["bob"] = 50
	st.NonceMax["alice"] = 3

	l := st.Lotto
	r := l.OpenRound(1000)
	r.Entries = append(r.Entries, Entry{Participant: "alice", Amount: 40})
	r.TotalStake = 40
	l.UserRounds["alice"] = []uint64{1}
	l.Requests[1] = &RandomnessRequest{ID: 1, RoundID: 1}
	l.RoundRequest[1] = 1
	l.NextRequestID = 2
	l.Fees = 4
	return st
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	home := t.TempDir()
	st := populated()
	require.NoError(t, st.Save(home))

	loaded, err := Load(home, testConfig())
	require.NoError(t, err)
	require.Equal(t, st.AppHash(), loaded.AppHash())
	require.Equal(t, uint64(100), loaded.Balance("alice"))
	require.NotNil(t, loaded.Lotto.Current)
	require.Equal(t, uint64(1), loaded.Lotto.Current.ID)
}

func TestLoad_FreshHomeUsesConfig(t *testing.T) {
	st, err := Load(t.TempDir(), testConfig())
	require.NoError(t, err)
	require.Equal(t, "oracle", st.Lotto.Config.Oracle)
	require.Nil(t, st.Lotto.Current)
	require.Equal(t, uint64(1), st.Lotto.NextRoundID)
}

func TestClone_IsolatesMutations(t *testing.T) {
	st := populated()
	before := st.AppHash()

	clone, err := st.Clone()
	require.NoError(t, err)
	require.Equal(t, before, clone.AppHash())

	clone.Accounts["alice"] = 1
	clone.Lotto.Current.TotalStake = 999
	clone.Lotto.Current.Entries[0].Amount = 999
	clone.Lotto.UserRounds["alice"] = append(clone.Lotto.UserRounds["alice"], 2)
	clone.Lotto.Requests[1].Fulfilled = true

	require.Equal(t, before, st.AppHash(), "clone mutations must not leak back")
	require.Equal(t, uint64(100), st.Balance("alice"))
	require.Equal(t, uint64(40), st.Lotto.Current.TotalStake)
	require.False(t, st.Lotto.Requests[1].Fulfilled)
}

func TestAppHash_SensitiveToState(t *testing.T) {
	a := populated()
	b := populated()
	require.Equal(t, a.AppHash(), b.AppHash())

	b.Lotto.Fees++
	require.False(t, bytes.Equal(a.AppHash(), b.AppHash()))

	c := populated()
	c.Accounts["carol"] = 1
	require.False(t, bytes.Equal(a.AppHash(), c.AppHash()))
}

func TestBank_CreditDebit(t *testing.T) {
	st := NewState(testConfig())
	require.NoError(t, st.Credit("alice", 10))
	require.Error(t, st.Debit("alice", 11))
	require.NoError(t, st.Debit("alice", 10))
	require.Equal(t, uint64(0), st.Balance("alice"))

	require.NoError(t, st.Credit("alice", ^uint64(0)))
	require.Error(t, st.Credit("alice", 1))
}

func TestRound_RefundBookkeeping(t *testing.T) {
	r := &Round{
		ID:    1,
		State: RoundCancelled,
		Entries: []Entry{
			{Participant: "bob", Amount: 5},
			{Participant: "alice", Amount: 10},
			{Participant: "bob", Amount: 7},
		},
		TotalStake: 22,
	}

	require.Equal(t, uint64(12), r.EntryTotalFor("bob"))
	require.Equal(t, uint64(10), r.EntryTotalFor("alice"))
	require.Equal(t, uint64(0), r.EntryTotalFor("carol"))

	require.False(t, r.HasRefunded("bob"))
	r.MarkRefunded("bob")
	r.MarkRefunded("alice")
	r.MarkRefunded("bob")
	require.True(t, r.HasRefunded("bob"))
	require.True(t, r.HasRefunded("alice"))
	// Sorted, deduplicated.
	require.Equal(t, []string{"alice", "bob"}, r.Refunded)
}

func TestSnapshot_CapturesWinnerStake(t *testing.T) {
	r := &Round{
		ID:    3,
		State: RoundResolved,
		Entries: []Entry{
			{Participant: "alice", Amount: 10},
			{Participant: "bob", Amount: 30},
		},
		TotalStake: 40,
		Winner:     "bob",
		Expiration: 5000,
	}
	snap := Snapshot(r)
	require.Equal(t, uint64(3), snap.RoundID)
	require.Equal(t, uint64(30), snap.WinnerStake)
	require.Equal(t, uint32(2), snap.Participants)
	require.False(t, snap.Cancelled)

	r.State = RoundCancelled
	r.Winner = ""
	snap = Snapshot(r)
	require.True(t, snap.Cancelled)
	require.Equal(t, uint64(0), snap.WinnerStake)
}

func TestNewLottoState_Defaults(t *testing.T) {
	l := NewLottoState(Config{})
	require.Equal(t, DefaultMinEntryValue, l.Config.MinEntryValue)
	require.Equal(t, DefaultMaxEntries, l.Config.MaxEntries)
	require.Equal(t, DefaultRoundDurationSecs, l.Config.RoundDurationSecs)
	require.Equal(t, DefaultFeeBps, l.Config.FeeBps)
}
