// Package contract implements condition-checked payouts riding the
// ledger. Creating a contract locks the creator's funds under a
// CONTRACT:<id> identity with a real signed transaction; when the
// contract's conditions hold, the payout is released as a system
// transaction balance-checked against those locked funds. Contracts
// never mint value.
package contract

import (
	"maps"
	"slices"

	"github.com/caravelchain/caravel/blockchain"
)

// Kind selects the condition model of a contract.
type Kind string

const (
	KindEscrow      Kind = "ESCROW"
	KindTimeLock    Kind = "TIME_LOCK"
	KindConditional Kind = "CONDITIONAL"
	KindRecurring   Kind = "RECURRING"
)

// Status is the contract lifecycle state. PENDING means the lock
// transaction is not confirmed yet; ACTIVE means funds are locked and
// conditions are being polled; the remaining states are terminal.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusExecuted Status = "EXECUTED"
	StatusFailed   Status = "FAILED"
	StatusExpired  Status = "EXPIRED"
)

// Conditions parameterizes a contract by kind. Fields outside the
// contract's kind stay zero.
type Conditions struct {
	// TIME_LOCK: payout releases at or after this unix time.
	ReleaseTime int64 `json:"release_time,omitempty"`

	// ESCROW: either a bare approval count or a named approver list.
	// When both are set the named list wins.
	RequiredApprovals int      `json:"required_approvals,omitempty"`
	RequiredApprovers []string `json:"required_approvers,omitempty"`

	// CONDITIONAL: balance and/or height gates; all set gates must
	// hold.
	WatchAddress     string `json:"watch_address,omitempty"`
	BalanceThreshold int64  `json:"balance_threshold,omitempty"`
	BlockHeight      uint64 `json:"block_height,omitempty"`

	// RECURRING: one payout per interval until MaxPayments. The lock
	// covers Amount * MaxPayments, so MaxPayments must be finite.
	IntervalSeconds int64 `json:"interval_seconds,omitempty"`
	MaxPayments     int   `json:"max_payments,omitempty"`
}

// Contract is one condition-checked obligation.
type Contract struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	Creator      string          `json:"creator"`
	Recipient    string          `json:"recipient"`
	Amount       uint64          `json:"amount"`
	Participants []string        `json:"participants,omitempty"`
	Conditions   Conditions      `json:"conditions"`
	Status       Status          `json:"status"`
	Approvals    map[string]bool `json:"approvals,omitempty"`
	CreatedAt    int64           `json:"created_at"`
	ExpiresAt    int64           `json:"expires_at,omitempty"`
	ExecutedAt   int64           `json:"executed_at,omitempty"`
	PaymentsMade int             `json:"payments_made"`
	LastPayment  int64           `json:"last_payment,omitempty"`
	LockTxID     string          `json:"lock_tx_id"`
}

// Account is the ledger identity holding the contract's locked funds.
func (c *Contract) Account() string {
	return blockchain.ContractSenderPrefix + c.ID
}

// Terminal reports whether the contract can never change state again.
func (c *Contract) Terminal() bool {
	switch c.Status {
	case StatusExecuted, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// obligation is the total the lock transaction must cover.
func (c *Contract) obligation() uint64 {
	if c.Kind == KindRecurring {
		return c.Amount * uint64(c.Conditions.MaxPayments)
	}
	return c.Amount
}

func (c *Contract) clone() *Contract {
	out := *c
	out.Participants = slices.Clone(c.Participants)
	out.Approvals = maps.Clone(c.Approvals)
	out.Conditions.RequiredApprovers = slices.Clone(c.Conditions.RequiredApprovers)
	return &out
}
