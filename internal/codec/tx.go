package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; the devnet protocol uses JSON-encoded
// txs routed by Type.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id (account id, the oracle id for fulfillments).
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth ----

// Account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Lotto ----

type LottoEnterTx struct {
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount"`
}

// LottoCloseRoundTx is the maintenance trigger. Anyone may submit it; it is a
// no-op unless the current round is open and past its expiration.
type LottoCloseRoundTx struct {
	Caller string `json:"caller,omitempty"`
}

type LottoFulfillRandomnessTx struct {
	RequestID uint64 `json:"requestId"`
	// RandomValue is a base-10 unsigned integer of arbitrary size (oracle
	// values are typically 256-bit).
	RandomValue string `json:"randomValue"`
}

type LottoClaimWinningsTx struct {
	RoundID uint64 `json:"roundId"`
	Caller  string `json:"caller"`
}

type LottoRedeemCancelledTx struct {
	RoundID uint64 `json:"roundId"`
	Caller  string `json:"caller"`
}

type LottoRedeemAllTx struct {
	RoundIDs []uint64 `json:"roundIds"`
	Caller   string   `json:"caller"`
}

// ---- Admin ----

type AdminClaimFeesTx struct {
	Caller string `json:"caller"`
}

type AdminSetFrozenTx struct {
	Caller string `json:"caller"`
}

type AdminChangeMinValueTx struct {
	Caller        string `json:"caller"`
	MinEntryValue uint64 `json:"minEntryValue"`
}

type AdminChangeMaxEntriesTx struct {
	Caller     string `json:"caller"`
	MaxEntries uint32 `json:"maxEntries"`
}

type AdminUpdateFeeSinkTx struct {
	Caller  string `json:"caller"`
	FeeSink string `json:"feeSink"`
}
