package engine

import "errors"

var (
	ErrAlreadyInitialized  = errors.New("vault controller already initialized")
	ErrNotInitialized      = errors.New("vault controller not initialized")
	ErrNotOwner            = errors.New("caller is not the owner")
	ErrInvalidLimits       = errors.New("invalid limits")
	ErrExceedsParentLimits = errors.New("limits exceed parent limits")
	ErrCanceled            = errors.New("vault controller canceled")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrOutsideWindow       = errors.New("outside of the allowed time window")
	ErrRecipientNotReady   = errors.New("recipient whitelist timelock not elapsed")
	ErrLimitExceeded       = errors.New("limit exceeded")
	ErrTooManyChildren     = errors.New("too many child vaults")
	ErrTooDeep             = errors.New("vault tree too deep")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotFound            = errors.New("not found")
	ErrUnknownVault        = errors.New("unknown vault controller")
	ErrNoEscapeHatch       = errors.New("escape hatch destination is required")
	ErrBalanceOverflow     = errors.New("balance overflow")
)
