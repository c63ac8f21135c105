package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/cocomastoras/automated-lottery/internal/codec"
	"github.com/cocomastoras/automated-lottery/internal/state"
)

const (
	AppVersion uint64 = 1
)

// LottoApp is the round-settlement engine as an ABCI application. Every
// mutating operation arrives as a tx; every tx executes against a staged copy
// of state, so a failed tx leaves no partial state behind.
type LottoApp struct {
	*abci.BaseApplication

	home   string
	logger log.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, cfg state.Config, logger log.Logger) (*LottoApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome, cfg)
	if err != nil {
		return nil, err
	}
	a := &LottoApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		logger:          logger.With("module", "lotto"),
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func (a *LottoApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "automated-lottery",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *LottoApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	// Structural validation only; full auth and preconditions run at delivery.
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *LottoApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	return &abci.InitChainResponse{}, nil
}

func (a *LottoApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	nowUnix := req.Time.Unix()

	// Round 1 opens at the first block of a fresh chain; afterwards the next
	// round is always opened in the tx that terminalizes the previous one.
	if a.st.Lotto.Current == nil {
		r := a.st.Lotto.OpenRound(nowUnix)
		a.logger.Info("opened round", "roundId", r.ID, "expiration", r.Expiration)
	}

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *LottoApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	// Persist after each block for devnet durability. Returning the error makes
	// the node halt loudly instead of silently diverging.
	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// deliverTx stages execution on a deep copy of state and swaps it in only on
// success, so rejected operations leave nothing behind.
func (a *LottoApp) deliverTx(txBytes []byte, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	res, err := routeTx(staged, env, nowUnix)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "err", err)
		return errResult(err)
	}
	a.st = staged
	return res
}

func errResult(err error) *abci.ExecTxResult {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: log}
}

func routeTx(st *state.State, env codec.TxEnvelope, nowUnix int64) (*abci.ExecTxResult, error) {
	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad auth/register_account value")
		}
		if err := requireRegisterAccountAuth(env, msg); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		if existing := st.AccountKeys[msg.Account]; len(existing) != 0 && !bytes.Equal(existing, msg.PubKey) {
			return nil, errorsmod.Wrapf(ErrUnauthorized, "account %q already registered with a different key", msg.Account)
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return okEvent("AccountRegistered", map[string]string{"account": msg.Account}), nil

	case "bank/mint":
		// Devnet faucet, unauthenticated.
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad bank/mint value")
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "missing to/amount")
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
		}
		return okEvent("BankMinted", map[string]string{
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad bank/send value")
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "missing to/amount")
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		if err := st.Debit(msg.From, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, err.Error())
		}
		return okEvent("BankSent", map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": fmt.Sprintf("%d", msg.Amount),
		}), nil

	case "lotto/enter":
		var msg codec.LottoEnterTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad lotto/enter value")
		}
		if err := requireAccountAuth(st, env, msg.Participant); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return lottoEnter(st, msg, nowUnix)

	case "lotto/close_round":
		// The maintenance trigger is unauthenticated: closing is due or it isn't.
		return lottoCloseRound(st, nowUnix)

	case "lotto/fulfill_randomness":
		var msg codec.LottoFulfillRandomnessTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad lotto/fulfill_randomness value")
		}
		// Only the designated randomness source may resolve rounds.
		if err := requireAccountAuth(st, env, st.Lotto.Config.Oracle); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return lottoFulfillRandomness(st, msg, nowUnix)

	case "lotto/claim_winnings":
		var msg codec.LottoClaimWinningsTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad lotto/claim_winnings value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return lottoClaimWinnings(st, msg)

	case "lotto/redeem_cancelled":
		var msg codec.LottoRedeemCancelledTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad lotto/redeem_cancelled value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return lottoRedeemCancelled(st, msg)

	case "lotto/redeem_all":
		var msg codec.LottoRedeemAllTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad lotto/redeem_all value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return lottoRedeemAll(st, msg)

	case "admin/claim_fees":
		var msg codec.AdminClaimFeesTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad admin/claim_fees value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return adminClaimFees(st, msg)

	case "admin/freeze", "admin/unfreeze":
		var msg codec.AdminSetFrozenTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidRequest, "bad %s value", env.Type)
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return adminSetFrozen(st, msg, env.Type == "admin/freeze")

	case "admin/change_min_value":
		var msg codec.AdminChangeMinValueTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad admin/change_min_value value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return adminChangeMinValue(st, msg)

	case "admin/change_max_entries":
		var msg codec.AdminChangeMaxEntriesTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad admin/change_max_entries value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return adminChangeMaxEntries(st, msg)

	case "admin/update_fee_sink":
		var msg codec.AdminUpdateFeeSinkTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, errorsmod.Wrap(ErrInvalidRequest, "bad admin/update_fee_sink value")
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		if err := bumpNonce(st, env); err != nil {
			return nil, err
		}
		return adminUpdateFeeSink(st, msg)

	default:
		return nil, errorsmod.Wrapf(ErrInvalidRequest, "unknown tx type: %s", env.Type)
	}
}

// ---- Queries ----

func (a *LottoApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	l := a.st.Lotto
	path := strings.TrimSpace(req.Path)
	parts := strings.Split(strings.Trim(path, "/"), "/")

	ok := func(v any) (*abci.QueryResponse, error) {
		b, _ := json.Marshal(v)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	}
	bad := func(log string) (*abci.QueryResponse, error) {
		return &abci.QueryResponse{Code: 1, Log: log, Height: a.st.Height}, nil
	}

	switch {
	case path == "/round":
		return ok(currentRoundInfo(l))

	case path == "/fees":
		return ok(map[string]uint64{"fees": l.Fees})

	case path == "/config":
		return ok(l.Config)

	case len(parts) == 2 && parts[0] == "account":
		addr := parts[1]
		return ok(map[string]any{"addr": addr, "balance": a.st.Balance(addr)})

	case len(parts) == 3 && parts[0] == "round":
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return bad("invalid round id")
		}
		r := l.RoundByID(id)
		if r == nil {
			return bad("round not found")
		}
		switch parts[2] {
		case "participants":
			names := make([]string, 0, len(r.Entries))
			for _, e := range r.Entries {
				names = append(names, e.Participant)
			}
			return ok(names)
		case "winner":
			return ok(map[string]any{"roundId": r.ID, "winner": r.Winner})
		case "request":
			return ok(map[string]uint64{"roundId": r.ID, "requestId": l.RoundRequest[r.ID]})
		default:
			return bad("unknown round query")
		}

	case len(parts) == 3 && parts[0] == "history":
		from, err1 := strconv.ParseUint(parts[1], 10, 64)
		length, err2 := strconv.ParseUint(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			return bad("invalid history arguments")
		}
		return ok(getHistory(l, from, length))

	case len(parts) == 3 && (parts[0] == "completed" || parts[0] == "cancelled"):
		offset, err1 := strconv.ParseUint(parts[1], 10, 64)
		length, err2 := strconv.ParseUint(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			return bad("invalid pagination arguments")
		}
		index := l.Completed
		if parts[0] == "cancelled" {
			index = l.Cancelled
		}
		return ok(getByIndex(l, index, offset, length))

	case len(parts) == 4 && parts[0] == "user" && parts[2] == "rounds":
		length, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return bad("invalid length")
		}
		completed, cancelled := getUserRounds(l, parts[1], length)
		return ok(map[string]any{"completed": completed, "cancelled": cancelled})

	case len(parts) == 5 && parts[0] == "user" && parts[2] == "pending":
		offset, err1 := strconv.ParseUint(parts[3], 10, 64)
		length, err2 := strconv.ParseUint(parts[4], 10, 64)
		if err1 != nil || err2 != nil {
			return bad("invalid pagination arguments")
		}
		return ok(getPendingEntries(l, parts[1], offset, length))

	default:
		return bad("unknown query path")
	}
}

type roundInfo struct {
	RoundID      uint64   `json:"roundId"`
	State        string   `json:"state"`
	TotalStake   uint64   `json:"totalStake"`
	Expiration   int64    `json:"expiration"`
	Participants []string `json:"participants"`
	Amounts      []uint64 `json:"amounts"`
}

func currentRoundInfo(l *state.LottoState) roundInfo {
	cur := l.Current
	if cur == nil {
		return roundInfo{Participants: []string{}, Amounts: []uint64{}}
	}
	info := roundInfo{
		RoundID:      cur.ID,
		State:        string(cur.State),
		TotalStake:   cur.TotalStake,
		Expiration:   cur.Expiration,
		Participants: make([]string, 0, len(cur.Entries)),
		Amounts:      make([]uint64, 0, len(cur.Entries)),
	}
	for _, e := range cur.Entries {
		info.Participants = append(info.Participants, e.Participant)
		info.Amounts = append(info.Amounts, e.Amount)
	}
	return info
}
