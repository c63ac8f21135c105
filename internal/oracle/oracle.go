// Package oracle provides a deterministic devnet randomness source. It stands
// in for a real VRF provider: the node operator runs it against the chain and
// it submits lotto/fulfill_randomness txs for every pending request.
package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

const domain = "lotto/oracle/v1"

// RandomValue derives a 256-bit value for a request from the fulfiller's seed.
// The same (seed, requestId) pair always yields the same value, which keeps
// devnet runs reproducible.
func RandomValue(seed []byte, requestID uint64) *big.Int {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(seed)
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], requestID)
	h.Write(idBytes[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}
