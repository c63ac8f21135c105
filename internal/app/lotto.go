package app

import (
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/cocomastoras/automated-lottery/internal/codec"
	"github.com/cocomastoras/automated-lottery/internal/state"
)

// lottoEnter appends an entry to the current open round.
func lottoEnter(st *state.State, msg codec.LottoEnterTx, nowUnix int64) (*abci.ExecTxResult, error) {
	l := st.Lotto
	if msg.Participant == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "missing participant")
	}
	if l.Config.Frozen {
		return nil, ErrFrozen
	}
	cur := l.Current
	if cur == nil || cur.State != state.RoundOpen {
		return nil, errorsmod.Wrap(ErrWindowClosed, "no open round")
	}
	if nowUnix >= cur.Expiration {
		return nil, errorsmod.Wrapf(ErrWindowClosed, "round %d expired at %d", cur.ID, cur.Expiration)
	}
	if msg.Amount < l.Config.MinEntryValue {
		return nil, errorsmod.Wrapf(ErrBelowMinimum, "entry %d < minimum %d", msg.Amount, l.Config.MinEntryValue)
	}
	if uint32(len(cur.Entries)) >= l.Config.MaxEntries {
		return nil, errorsmod.Wrapf(ErrRoundFull, "round %d holds %d entries", cur.ID, len(cur.Entries))
	}

	total, err := addU64Checked(cur.TotalStake, msg.Amount, "total stake")
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	if err := st.Debit(msg.Participant, msg.Amount); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}

	cur.Entries = append(cur.Entries, state.Entry{Participant: msg.Participant, Amount: msg.Amount})
	cur.TotalStake = total

	// One index entry per round, even when the participant enters it repeatedly.
	entered := l.UserRounds[msg.Participant]
	if len(entered) == 0 || entered[len(entered)-1] != cur.ID {
		l.UserRounds[msg.Participant] = append(entered, cur.ID)
	}

	return okEvent("EntryAccepted", map[string]string{
		"roundId":     fmt.Sprintf("%d", cur.ID),
		"participant": msg.Participant,
		"amount":      fmt.Sprintf("%d", msg.Amount),
	}), nil
}

// lottoCloseRound is the maintenance trigger. It is a silent no-op unless the
// current round is open and past its expiration, so redundant callers racing to
// close the same round cannot fail each other.
func lottoCloseRound(st *state.State, nowUnix int64) (*abci.ExecTxResult, error) {
	l := st.Lotto
	cur := l.Current
	if cur == nil || cur.State != state.RoundOpen || nowUnix < cur.Expiration {
		return &abci.ExecTxResult{Code: 0, Log: "not due"}, nil
	}

	if len(cur.Entries) < 2 {
		// Cancellation only releases refunds, so it stays permitted while frozen.
		closeTerminal(l, cur, state.RoundCancelled)
		l.OpenRound(nowUnix)
		return okEvent("RoundCancelled", map[string]string{
			"roundId": fmt.Sprintf("%d", cur.ID),
		}), nil
	}

	if l.Config.Frozen {
		return nil, ErrFrozen
	}

	req := &state.RandomnessRequest{ID: l.NextRequestID, RoundID: cur.ID}
	l.NextRequestID++
	l.Requests[req.ID] = req
	l.RoundRequest[cur.ID] = req.ID
	cur.RequestID = req.ID
	cur.State = state.RoundAwaitingRandomness

	return okEvent("RequestSent", map[string]string{
		"requestId": fmt.Sprintf("%d", req.ID),
		"roundId":   fmt.Sprintf("%d", cur.ID),
	}), nil
}

// lottoFulfillRandomness resolves the awaiting round with the oracle's value.
// Oracle authorization is enforced by the dispatcher.
func lottoFulfillRandomness(st *state.State, msg codec.LottoFulfillRandomnessTx, nowUnix int64) (*abci.ExecTxResult, error) {
	l := st.Lotto
	req, ok := l.Requests[msg.RequestID]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownRequest, "request %d", msg.RequestID)
	}
	if req.Fulfilled {
		return nil, errorsmod.Wrapf(ErrAlreadyFulfilled, "request %d", msg.RequestID)
	}
	cur := l.Current
	if cur == nil || cur.ID != req.RoundID || cur.State != state.RoundAwaitingRandomness {
		// Unfulfilled requests always correlate to the awaiting round.
		return nil, errorsmod.Wrapf(ErrUnknownRequest, "request %d targets round %d which is not awaiting randomness", msg.RequestID, req.RoundID)
	}

	r, ok := new(big.Int).SetString(msg.RandomValue, 10)
	if !ok || r.Sign() < 0 {
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "invalid randomValue %q", msg.RandomValue)
	}

	idx, err := pickWinner(cur.Entries, cur.TotalStake, r)
	if err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}

	req.Fulfilled = true
	req.Response = r.String()
	cur.Winner = cur.Entries[idx].Participant
	closeTerminal(l, cur, state.RoundResolved)
	l.OpenRound(nowUnix)

	res := okEvent("RequestFulfilled", map[string]string{
		"requestId": fmt.Sprintf("%d", req.ID),
		"roundId":   fmt.Sprintf("%d", cur.ID),
	})
	appendEvent(res, "RoundResolved", map[string]string{
		"roundId":    fmt.Sprintf("%d", cur.ID),
		"winner":     cur.Winner,
		"totalStake": fmt.Sprintf("%d", cur.TotalStake),
	})
	return res, nil
}

// closeTerminal moves the current round to its terminal state and records the
// closure snapshot in every history index. The next round is NOT opened here;
// callers open it in the same tx.
func closeTerminal(l *state.LottoState, r *state.Round, terminal state.RoundState) {
	r.State = terminal
	l.Rounds[r.ID] = r
	l.Current = nil
	l.History = append(l.History, state.Snapshot(r))
	if terminal == state.RoundCancelled {
		l.Cancelled = append(l.Cancelled, r.ID)
	} else {
		l.Completed = append(l.Completed, r.ID)
	}
}

// settleWinnings runs the winner-claim path for a resolved round. It assumes
// eligibility has been checked.
func settleWinnings(st *state.State, r *state.Round, caller string) (payout uint64, err error) {
	fee := mulDivU64(r.TotalStake, uint64(st.Lotto.Config.FeeBps), 10_000)
	payout = r.TotalStake - fee

	fees, err := addU64Checked(st.Lotto.Fees, fee, "fee accumulator")
	if err != nil {
		return 0, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	if err := st.Credit(caller, payout); err != nil {
		return 0, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	st.Lotto.Fees = fees
	r.Claimed = true
	return payout, nil
}

// settleRefund runs the cancelled-round refund path for one participant,
// returning the refunded amount (0 when nothing is owed).
func settleRefund(st *state.State, r *state.Round, caller string) (uint64, error) {
	if r.HasRefunded(caller) {
		return 0, nil
	}
	amount := r.EntryTotalFor(caller)
	if amount == 0 {
		return 0, nil
	}
	if r.RefundedAmount+amount > r.TotalStake {
		return 0, errorsmod.Wrapf(ErrInvalidRequest,
			"refund overflow: round %d refunded %d + %d > stake %d", r.ID, r.RefundedAmount, amount, r.TotalStake)
	}
	if err := st.Credit(caller, amount); err != nil {
		return 0, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	r.MarkRefunded(caller)
	r.RefundedAmount += amount
	return amount, nil
}

func lottoClaimWinnings(st *state.State, msg codec.LottoClaimWinningsTx) (*abci.ExecTxResult, error) {
	r := st.Lotto.RoundByID(msg.RoundID)
	if r == nil || r.State != state.RoundResolved || r.Winner != msg.Caller {
		return nil, errorsmod.Wrapf(ErrUnauthorized, "caller %q is not the winner of round %d", msg.Caller, msg.RoundID)
	}
	if r.Claimed {
		return nil, errorsmod.Wrapf(ErrAlreadyRedeemed, "round %d", msg.RoundID)
	}
	payout, err := settleWinnings(st, r, msg.Caller)
	if err != nil {
		return nil, err
	}
	return okEvent("ClaimedWinnings", map[string]string{
		"roundId":     fmt.Sprintf("%d", r.ID),
		"participant": msg.Caller,
		"amount":      fmt.Sprintf("%d", payout),
	}), nil
}

func lottoRedeemCancelled(st *state.State, msg codec.LottoRedeemCancelledTx) (*abci.ExecTxResult, error) {
	r := st.Lotto.RoundByID(msg.RoundID)
	if r == nil || r.State != state.RoundCancelled {
		return nil, errorsmod.Wrapf(ErrNotCancelled, "round %d", msg.RoundID)
	}
	amount, err := settleRefund(st, r, msg.Caller)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		// Repeat (or non-participant) redemption pays zero and emits nothing.
		return &abci.ExecTxResult{Code: 0}, nil
	}
	return okEvent("ClaimedCancelled", map[string]string{
		"roundId":     fmt.Sprintf("%d", r.ID),
		"participant": msg.Caller,
		"amount":      fmt.Sprintf("%d", amount),
	}), nil
}

// lottoRedeemAll settles every eligible round in the batch and silently skips
// the rest: one ineligible id never blocks the rounds the caller is owed.
func lottoRedeemAll(st *state.State, msg codec.LottoRedeemAllTx) (*abci.ExecTxResult, error) {
	res := &abci.ExecTxResult{Code: 0}
	for _, id := range msg.RoundIDs {
		r := st.Lotto.RoundByID(id)
		if r == nil {
			continue
		}
		switch r.State {
		case state.RoundResolved:
			if r.Winner != msg.Caller || r.Claimed {
				continue
			}
			payout, err := settleWinnings(st, r, msg.Caller)
			if err != nil {
				return nil, err
			}
			appendEvent(res, "ClaimedWinnings", map[string]string{
				"roundId":     fmt.Sprintf("%d", r.ID),
				"participant": msg.Caller,
				"amount":      fmt.Sprintf("%d", payout),
			})
		case state.RoundCancelled:
			amount, err := settleRefund(st, r, msg.Caller)
			if err != nil {
				return nil, err
			}
			if amount == 0 {
				continue
			}
			appendEvent(res, "ClaimedCancelled", map[string]string{
				"roundId":     fmt.Sprintf("%d", r.ID),
				"participant": msg.Caller,
				"amount":      fmt.Sprintf("%d", amount),
			})
		}
	}
	return res, nil
}

// ---- Admin ----

func requireAdmin(st *state.State, caller string) error {
	if caller == "" || caller != st.Lotto.Config.Admin {
		return errorsmod.Wrapf(ErrUnauthorized, "caller %q is not the admin", caller)
	}
	return nil
}

func adminClaimFees(st *state.State, msg codec.AdminClaimFeesTx) (*abci.ExecTxResult, error) {
	if err := requireAdmin(st, msg.Caller); err != nil {
		return nil, err
	}
	amount := st.Lotto.Fees
	if err := st.Credit(st.Lotto.Config.FeeSink, amount); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
	}
	st.Lotto.Fees = 0
	return okEvent("ClaimedFees", map[string]string{
		"participant": msg.Caller,
		"amount":      fmt.Sprintf("%d", amount),
	}), nil
}

func adminSetFrozen(st *state.State, msg codec.AdminSetFrozenTx, frozen bool) (*abci.ExecTxResult, error) {
	if err := requireAdmin(st, msg.Caller); err != nil {
		return nil, err
	}
	st.Lotto.Config.Frozen = frozen
	typ := "Unfrozen"
	if frozen {
		typ = "Frozen"
	}
	return okEvent(typ, map[string]string{"participant": msg.Caller}), nil
}

func adminChangeMinValue(st *state.State, msg codec.AdminChangeMinValueTx) (*abci.ExecTxResult, error) {
	if err := requireAdmin(st, msg.Caller); err != nil {
		return nil, err
	}
	if msg.MinEntryValue == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "minEntryValue must be > 0")
	}
	st.Lotto.Config.MinEntryValue = msg.MinEntryValue
	return okEvent("MinValueChanged", map[string]string{
		"minEntryValue": fmt.Sprintf("%d", msg.MinEntryValue),
	}), nil
}

func adminChangeMaxEntries(st *state.State, msg codec.AdminChangeMaxEntriesTx) (*abci.ExecTxResult, error) {
	if err := requireAdmin(st, msg.Caller); err != nil {
		return nil, err
	}
	if msg.MaxEntries == 0 {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "maxEntries must be > 0")
	}
	// Takes effect for entries from now on; already-appended entries stand.
	st.Lotto.Config.MaxEntries = msg.MaxEntries
	return okEvent("MaxEntriesChanged", map[string]string{
		"maxEntries": fmt.Sprintf("%d", msg.MaxEntries),
	}), nil
}

func adminUpdateFeeSink(st *state.State, msg codec.AdminUpdateFeeSinkTx) (*abci.ExecTxResult, error) {
	if err := requireAdmin(st, msg.Caller); err != nil {
		return nil, err
	}
	if msg.FeeSink == "" {
		return nil, errorsmod.Wrap(ErrInvalidRequest, "missing feeSink")
	}
	st.Lotto.Config.FeeSink = msg.FeeSink
	return okEvent("FeeSinkUpdated", map[string]string{
		"feeSink": msg.FeeSink,
	}), nil
}
