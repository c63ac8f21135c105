package app

import errorsmod "cosmossdk.io/errors"

const errCodespace = "lotto"

// Engine sentinel errors. The registered codes double as ABCI tx result codes.
var (
	ErrInvalidRequest   = errorsmod.Register(errCodespace, 2, "invalid request")
	ErrFrozen           = errorsmod.Register(errCodespace, 3, "engine frozen")
	ErrWindowClosed     = errorsmod.Register(errCodespace, 4, "entry window closed")
	ErrBelowMinimum     = errorsmod.Register(errCodespace, 5, "below minimum entry value")
	ErrRoundFull        = errorsmod.Register(errCodespace, 6, "round is full")
	ErrUnknownRequest   = errorsmod.Register(errCodespace, 7, "unknown randomness request")
	ErrAlreadyFulfilled = errorsmod.Register(errCodespace, 8, "randomness request already fulfilled")
	ErrUnauthorized     = errorsmod.Register(errCodespace, 9, "unauthorized")
	ErrAlreadyRedeemed  = errorsmod.Register(errCodespace, 10, "already redeemed")
	ErrNotCancelled     = errorsmod.Register(errCodespace, 11, "round not cancelled")
)
