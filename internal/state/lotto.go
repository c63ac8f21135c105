package state

import "sort"

// Config is the engine's global mutable configuration. It is only changed by
// admin-gated txs; FeeBps and RoundDurationSecs are fixed at genesis.
type Config struct {
	MinEntryValue     uint64 `json:"minEntryValue"`
	MaxEntries        uint32 `json:"maxEntries"`
	RoundDurationSecs uint64 `json:"roundDurationSecs"`
	FeeBps            uint32 `json:"feeBps"`
	Admin             string `json:"admin"`
	Oracle            string `json:"oracle"`
	FeeSink           string `json:"feeSink"`
	Frozen            bool   `json:"frozen,omitempty"`
}

const (
	DefaultMinEntryValue     uint64 = 10_000_000
	DefaultMaxEntries        uint32 = 50
	DefaultRoundDurationSecs uint64 = 300
	DefaultFeeBps            uint32 = 1000
)

type RoundState string

const (
	RoundOpen               RoundState = "open"
	RoundAwaitingRandomness RoundState = "awaiting_randomness"
	RoundResolved           RoundState = "resolved"
	RoundCancelled          RoundState = "cancelled"
)

type Entry struct {
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount"`
}

type Round struct {
	ID         uint64     `json:"id"`
	State      RoundState `json:"state"`
	Entries    []Entry    `json:"entries"`
	TotalStake uint64     `json:"totalStake"`
	Expiration int64      `json:"expiration"` // unix seconds; entries close at/after this time
	Winner     string     `json:"winner,omitempty"`
	RequestID  uint64     `json:"requestId,omitempty"`

	// Settlement bookkeeping (the only fields mutated after the round is terminal).
	Claimed        bool     `json:"claimed,omitempty"`
	Refunded       []string `json:"refunded,omitempty"` // participants fully refunded, sorted
	RefundedAmount uint64   `json:"refundedAmount,omitempty"`
}

// EntryTotalFor sums all of a participant's entries in the round. A participant
// may enter the same round more than once.
func (r *Round) EntryTotalFor(participant string) uint64 {
	var total uint64
	for _, e := range r.Entries {
		if e.Participant == participant {
			total += e.Amount
		}
	}
	return total
}

// WinnerStake is the winner's own contribution, recorded in history snapshots
// for prize-multiplier display.
func (r *Round) WinnerStake() uint64 {
	if r.Winner == "" {
		return 0
	}
	return r.EntryTotalFor(r.Winner)
}

func (r *Round) HasRefunded(participant string) bool {
	i := sort.SearchStrings(r.Refunded, participant)
	return i < len(r.Refunded) && r.Refunded[i] == participant
}

func (r *Round) MarkRefunded(participant string) {
	i := sort.SearchStrings(r.Refunded, participant)
	if i < len(r.Refunded) && r.Refunded[i] == participant {
		return
	}
	r.Refunded = append(r.Refunded, "")
	copy(r.Refunded[i+1:], r.Refunded[i:])
	r.Refunded[i] = participant
}

type RandomnessRequest struct {
	ID        uint64 `json:"id"`
	RoundID   uint64 `json:"roundId"`
	Fulfilled bool   `json:"fulfilled,omitempty"`
	// Response is the delivered random value as a base-10 string (256-bit
	// values do not fit native integers).
	Response string `json:"response,omitempty"`
}

// HistoryEntry is the immutable snapshot of a round taken at closure. It is
// sufficient to render prize/multiplier displays without replaying entries.
type HistoryEntry struct {
	RoundID      uint64 `json:"roundId"`
	TotalStake   uint64 `json:"totalStake"`
	Winner       string `json:"winner,omitempty"` // empty if cancelled
	Expiration   int64  `json:"expiration"`
	WinnerStake  uint64 `json:"winnerStake,omitempty"`
	Cancelled    bool   `json:"cancelled,omitempty"`
	Participants uint32 `json:"participants"`
}

func Snapshot(r *Round) HistoryEntry {
	return HistoryEntry{
		RoundID:      r.ID,
		TotalStake:   r.TotalStake,
		Winner:       r.Winner,
		Expiration:   r.Expiration,
		WinnerStake:  r.WinnerStake(),
		Cancelled:    r.State == RoundCancelled,
		Participants: uint32(len(r.Entries)),
	}
}

type LottoState struct {
	Config Config `json:"config"`

	// Current is the single round in state open or awaiting_randomness. It is
	// nil only before the first block of a fresh chain.
	Current     *Round `json:"current,omitempty"`
	NextRoundID uint64 `json:"nextRoundId"`

	// Terminal rounds by id.
	Rounds map[uint64]*Round `json:"rounds"`

	// Randomness correlator.
	NextRequestID uint64                        `json:"nextRequestId"`
	Requests      map[uint64]*RandomnessRequest `json:"requests"`
	RoundRequest  map[uint64]uint64             `json:"roundRequest"` // roundId -> requestId

	// History store: index arrays built at round closure so pagination is
	// O(length), not O(history).
	History    []HistoryEntry      `json:"history"`              // index = roundId-1, chronological
	Completed  []uint64            `json:"completed,omitempty"`  // resolved round ids, own 1-based positions
	Cancelled  []uint64            `json:"cancelled,omitempty"`  // cancelled round ids, own 1-based positions
	UserRounds map[string][]uint64 `json:"userRounds,omitempty"` // participant -> entered round ids, append-only

	// Accumulated, unclaimed platform fee.
	Fees uint64 `json:"fees"`
}

func NewLottoState(cfg Config) *LottoState {
	if cfg.MinEntryValue == 0 {
		cfg.MinEntryValue = DefaultMinEntryValue
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.RoundDurationSecs == 0 {
		cfg.RoundDurationSecs = DefaultRoundDurationSecs
	}
	if cfg.FeeBps == 0 {
		cfg.FeeBps = DefaultFeeBps
	}
	return &LottoState{
		Config:        cfg,
		NextRoundID:   1,
		Rounds:        map[uint64]*Round{},
		NextRequestID: 1,
		Requests:      map[uint64]*RandomnessRequest{},
		RoundRequest:  map[uint64]uint64{},
		UserRounds:    map[string][]uint64{},
	}
}

func (l *LottoState) normalize() {
	if l.Rounds == nil {
		l.Rounds = map[uint64]*Round{}
	}
	if l.Requests == nil {
		l.Requests = map[uint64]*RandomnessRequest{}
	}
	if l.RoundRequest == nil {
		l.RoundRequest = map[uint64]uint64{}
	}
	if l.UserRounds == nil {
		l.UserRounds = map[string][]uint64{}
	}
	if l.NextRoundID == 0 {
		l.NextRoundID = 1
	}
	if l.NextRequestID == 0 {
		l.NextRequestID = 1
	}
}

// OpenRound creates the next open round. Callers must only invoke it when no
// round is open or awaiting randomness.
func (l *LottoState) OpenRound(nowUnix int64) *Round {
	r := &Round{
		ID:         l.NextRoundID,
		State:      RoundOpen,
		Entries:    []Entry{},
		Expiration: nowUnix + int64(l.Config.RoundDurationSecs),
	}
	l.NextRoundID++
	l.Current = r
	return r
}

// RoundByID returns the round with the given id, terminal or current.
func (l *LottoState) RoundByID(id uint64) *Round {
	if r, ok := l.Rounds[id]; ok {
		return r
	}
	if l.Current != nil && l.Current.ID == id {
		return l.Current
	}
	return nil
}

// LastClosedRoundID is the newest round id with a history snapshot, 0 if none.
func (l *LottoState) LastClosedRoundID() uint64 {
	return uint64(len(l.History))
}

func (l *LottoState) hashView() any {
	type roundKV struct {
		ID    uint64 `json:"id"`
		Round *Round `json:"round"`
	}
	type requestKV struct {
		ID      uint64             `json:"id"`
		Request *RandomnessRequest `json:"request"`
	}
	type roundRequestKV struct {
		RoundID   uint64 `json:"roundId"`
		RequestID uint64 `json:"requestId"`
	}
	type userRoundsKV struct {
		Participant string   `json:"participant"`
		RoundIDs    []uint64 `json:"roundIds"`
	}

	rounds := make([]roundKV, 0, len(l.Rounds))
	for id, r := range l.Rounds {
		rounds = append(rounds, roundKV{ID: id, Round: r})
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].ID < rounds[j].ID })

	requests := make([]requestKV, 0, len(l.Requests))
	for id, rq := range l.Requests {
		requests = append(requests, requestKV{ID: id, Request: rq})
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })

	roundRequests := make([]roundRequestKV, 0, len(l.RoundRequest))
	for rid, qid := range l.RoundRequest {
		roundRequests = append(roundRequests, roundRequestKV{RoundID: rid, RequestID: qid})
	}
	sort.Slice(roundRequests, func(i, j int) bool { return roundRequests[i].RoundID < roundRequests[j].RoundID })

	userRounds := make([]userRoundsKV, 0, len(l.UserRounds))
	for p, ids := range l.UserRounds {
		userRounds = append(userRounds, userRoundsKV{Participant: p, RoundIDs: ids})
	}
	sort.Slice(userRounds, func(i, j int) bool { return userRounds[i].Participant < userRounds[j].Participant })

	return struct {
		Config        Config           `json:"config"`
		Current       *Round           `json:"current,omitempty"`
		NextRoundID   uint64           `json:"nextRoundId"`
		Rounds        []roundKV        `json:"rounds"`
		NextRequestID uint64           `json:"nextRequestId"`
		Requests      []requestKV      `json:"requests"`
		RoundRequest  []roundRequestKV `json:"roundRequest"`
		History       []HistoryEntry   `json:"history"`
		Completed     []uint64         `json:"completed,omitempty"`
		Cancelled     []uint64         `json:"cancelled,omitempty"`
		UserRounds    []userRoundsKV   `json:"userRounds,omitempty"`
		Fees          uint64           `json:"fees"`
	}{
		Config:        l.Config,
		Current:       l.Current,
		NextRoundID:   l.NextRoundID,
		Rounds:        rounds,
		NextRequestID: l.NextRequestID,
		Requests:      requests,
		RoundRequest:  roundRequests,
		History:       l.History,
		Completed:     l.Completed,
		Cancelled:     l.Cancelled,
		UserRounds:    userRounds,
		Fees:          l.Fees,
	}
}
