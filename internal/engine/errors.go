package engine

import "errors"

// Sentinel errors for every recoverable failure of a public simulation
// operation. Callers compare with errors.Is; none of these is fatal and no
// operation leaves the game state partially mutated when returning one.
var (
	ErrBrandNotFound     = errors.New("brand not found")
	ErrMachineNotFound   = errors.New("machine not found")
	ErrAlreadyOwned      = errors.New("brand already owned")
	ErrNotOwned          = errors.New("brand not owned")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrUnknownChoice     = errors.New("unknown or expired choice")
	ErrBrandCap          = errors.New("owned brand limit reached")
)
