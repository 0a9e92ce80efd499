package domain

import "errors"

var (
	ErrChainDisabled     = errors.New("chain is not enabled for execution")
	ErrChainUnknown      = errors.New("chain is not in the registry")
	ErrLocalEndpoint     = errors.New("localhost rpc endpoint rejected")
	ErrNoLiquidity       = errors.New("insufficient pool liquidity")
	ErrQuoteReverted     = errors.New("quoter call reverted")
	ErrBusUnavailable    = errors.New("signal bus unavailable")
	ErrPlaceholderKey    = errors.New("private key is a placeholder value")
	ErrPlaceholderTarget = errors.New("executor address is a placeholder value")
	ErrTooManyInFlight   = errors.New("in-flight transaction limit reached")
	ErrBelowMinProfit    = errors.New("expected profit below minimum threshold")
	ErrSlippageTooHigh   = errors.New("estimated slippage above maximum")
	ErrSignalIncomplete  = errors.New("trade signal missing required fields")
	ErrNotConnected      = errors.New("execution service not connected")
)
