package blockchain

import (
	"errors"
	"fmt"
)

// Failures returned by transaction construction, signing and
// submission. Validity predicates (IsValid, HashValid, Validate)
// return booleans, never errors.
var (
	ErrInvalidAmount     = errors.New("transaction amount must be positive")
	ErrInvalidSignature  = errors.New("transaction signature is missing or invalid")
	ErrAlreadySigned     = errors.New("transaction is already signed")
	ErrSystemTransaction = errors.New("system transactions cannot be signed")
	ErrKeyMismatch       = errors.New("private key does not match transaction sender")
	ErrRewardSubmission  = errors.New("reward transactions are created by mining, not submitted")
	ErrInvalidDifficulty = fmt.Errorf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)
)

// InsufficientBalanceError reports a submission whose sender cannot
// cover the amount from confirmed funds.
type InsufficientBalanceError struct {
	Identity string
	Balance  int64
	Amount   uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: have %d, need %d", e.Identity, e.Balance, e.Amount)
}
