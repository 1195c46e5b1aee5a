package contract

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caravelchain/caravel/blockchain"
)

var (
	ErrUnknownContract = errors.New("no contract with that id")
	ErrNotEscrow       = errors.New("approvals apply to escrow contracts only")
	ErrTerminalStatus  = errors.New("contract is in a terminal state")
	ErrNotApprover     = errors.New("address is not a named approver")
)

// Ledger is the chain surface contracts ride: submitting lock and
// payout transactions and reading confirmed state.
type Ledger interface {
	SubmitTransaction(tx *blockchain.Transaction) error
	BalanceOf(identity string) int64
	Height() uint64
}

// Signer funds a contract lock from a wallet.
type Signer interface {
	PublicKeyHex() string
	SignTransaction(tx *blockchain.Transaction) error
}

// CreateRequest carries everything creation needs. Signer pays the
// lock; for RECURRING contracts the lock is Amount * MaxPayments.
type CreateRequest struct {
	Kind         Kind
	Signer       Signer
	Recipient    string
	Amount       uint64
	Participants []string
	Conditions   Conditions
	ExpiresAt    int64
}

// Execution records one state change made by a sweep.
type Execution struct {
	ContractID string `json:"contract_id"`
	Status     Status `json:"status"`
	TxID       string `json:"tx_id,omitempty"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Participant string
	Status      Status
}

// Manager owns the contract registry and runs the condition sweeps.
type Manager struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
	chain     Ledger
	log       *zap.Logger
}

// NewManager builds an empty registry over chain. A nil logger
// disables logging.
func NewManager(chain Ledger, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		contracts: make(map[string]*Contract),
		chain:     chain,
		log:       log,
	}
}

// Create validates the request, submits the lock transaction and
// stores the contract as PENDING. It activates once the lock confirms.
func (m *Manager) Create(req CreateRequest) (*Contract, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	c := &Contract{
		ID:           id,
		Kind:         req.Kind,
		Recipient:    req.Recipient,
		Amount:       req.Amount,
		Participants: req.Participants,
		Conditions:   req.Conditions,
		Status:       StatusPending,
		Approvals:    make(map[string]bool),
		CreatedAt:    time.Now().Unix(),
		ExpiresAt:    req.ExpiresAt,
	}

	lock, err := blockchain.NewTransaction(req.Signer.PublicKeyHex(), c.Account(), c.obligation())
	if err != nil {
		return nil, err
	}
	lock.Note = "contract lock " + id
	if err := req.Signer.SignTransaction(lock); err != nil {
		return nil, err
	}
	creator, err := blockchain.DeriveAddress(lock.Sender)
	if err != nil {
		return nil, err
	}
	c.Creator = creator

	if err := m.chain.SubmitTransaction(lock); err != nil {
		return nil, fmt.Errorf("lock contract funds: %w", err)
	}
	c.LockTxID = lock.Hash()

	m.mu.Lock()
	m.contracts[id] = c
	m.mu.Unlock()

	m.log.Info("contract created",
		zap.String("id", id),
		zap.String("kind", string(req.Kind)),
		zap.String("creator", creator),
		zap.String("recipient", req.Recipient),
		zap.Uint64("amount", req.Amount),
		zap.Uint64("locked", c.obligation()))
	return c.clone(), nil
}

func validateRequest(req CreateRequest) error {
	if req.Signer == nil {
		return errors.New("contract creation requires a signing wallet")
	}
	if req.Recipient == "" {
		return errors.New("contract recipient required")
	}
	if req.Amount == 0 {
		return blockchain.ErrInvalidAmount
	}

	switch req.Kind {
	case KindTimeLock:
		if req.Conditions.ReleaseTime <= 0 {
			return errors.New("time lock requires release_time")
		}
	case KindEscrow:
		if req.Conditions.RequiredApprovals <= 0 && len(req.Conditions.RequiredApprovers) == 0 {
			return errors.New("escrow requires required_approvals or required_approvers")
		}
	case KindConditional:
		if req.Conditions.BalanceThreshold <= 0 && req.Conditions.BlockHeight == 0 {
			return errors.New("conditional requires a balance or height gate")
		}
		if req.Conditions.BalanceThreshold > 0 && req.Conditions.WatchAddress == "" {
			return errors.New("balance gate requires watch_address")
		}
	case KindRecurring:
		if req.Conditions.IntervalSeconds <= 0 {
			return errors.New("recurring requires interval_seconds")
		}
		if req.Conditions.MaxPayments <= 0 {
			return errors.New("recurring requires finite max_payments")
		}
	default:
		return fmt.Errorf("unknown contract kind %q", req.Kind)
	}
	return nil
}

// Approve records an escrow approval by address.
func (m *Manager) Approve(id, approver string) (*Contract, error) {
	if approver == "" {
		return nil, errors.New("approver address required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, ErrUnknownContract
	}
	if c.Kind != KindEscrow {
		return nil, ErrNotEscrow
	}
	if c.Terminal() {
		return nil, ErrTerminalStatus
	}
	if named := c.Conditions.RequiredApprovers; len(named) > 0 {
		found := false
		for _, a := range named {
			if a == approver {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotApprover
		}
	}

	c.Approvals[approver] = true
	m.log.Info("escrow approval recorded",
		zap.String("id", id),
		zap.String("approver", approver),
		zap.Int("approvals", len(c.Approvals)))
	return c.clone(), nil
}

// Get returns a copy of one contract.
func (m *Manager) Get(id string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, ErrUnknownContract
	}
	return c.clone(), nil
}

// List returns copies of matching contracts, oldest first.
func (m *Manager) List(f Filter) []*Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Contract
	for _, c := range m.contracts {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Participant != "" && !c.involves(f.Participant) {
			continue
		}
		out = append(out, c.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Contract) involves(address string) bool {
	if c.Creator == address || c.Recipient == address {
		return true
	}
	for _, p := range c.Participants {
		if p == address {
			return true
		}
	}
	return false
}

// CheckAll sweeps every non-terminal contract once: expires the
// overdue, activates those whose lock has confirmed and executes those
// whose conditions hold. It is idempotent between state changes and
// safe to run from both the block event and the timer.
func (m *Manager) CheckAll() []Execution {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.contracts))
	for id := range m.contracts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var events []Execution
	for _, id := range ids {
		c := m.contracts[id]
		if c.Terminal() {
			continue
		}

		if c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt {
			c.Status = StatusExpired
			m.log.Info("contract expired", zap.String("id", c.ID))
			events = append(events, Execution{ContractID: c.ID, Status: StatusExpired})
			continue
		}

		if c.Status == StatusPending {
			if m.chain.BalanceOf(c.Account()) < int64(c.Amount) {
				continue
			}
			c.Status = StatusActive
			m.log.Info("contract activated", zap.String("id", c.ID))
			events = append(events, Execution{ContractID: c.ID, Status: StatusActive})
		}

		if !m.conditionsMet(c, now) {
			continue
		}
		events = append(events, m.execute(c, now))
	}
	return events
}

func (m *Manager) conditionsMet(c *Contract, now time.Time) bool {
	switch c.Kind {
	case KindTimeLock:
		return now.Unix() >= c.Conditions.ReleaseTime
	case KindEscrow:
		if named := c.Conditions.RequiredApprovers; len(named) > 0 {
			for _, a := range named {
				if !c.Approvals[a] {
					return false
				}
			}
			return true
		}
		return len(c.Approvals) >= c.Conditions.RequiredApprovals
	case KindConditional:
		if h := c.Conditions.BlockHeight; h > 0 && m.chain.Height() < h {
			return false
		}
		if t := c.Conditions.BalanceThreshold; t > 0 && m.chain.BalanceOf(c.Conditions.WatchAddress) < t {
			return false
		}
		return true
	case KindRecurring:
		last := c.LastPayment
		if last == 0 {
			last = c.CreatedAt
		}
		return now.Unix()-last >= c.Conditions.IntervalSeconds
	}
	return false
}

// execute releases one payout from the contract account.
func (m *Manager) execute(c *Contract, now time.Time) Execution {
	tx, err := blockchain.NewSystemTransaction(c.Account(), c.Recipient, c.Amount, "contract payout "+c.ID)
	if err == nil {
		err = m.chain.SubmitTransaction(tx)
	}
	if err != nil {
		c.Status = StatusFailed
		m.log.Warn("contract payout rejected", zap.String("id", c.ID), zap.Error(err))
		return Execution{ContractID: c.ID, Status: StatusFailed}
	}

	c.PaymentsMade++
	c.LastPayment = now.Unix()
	if c.Kind != KindRecurring || c.PaymentsMade >= c.Conditions.MaxPayments {
		c.Status = StatusExecuted
		c.ExecutedAt = now.Unix()
	}
	m.log.Info("contract payout submitted",
		zap.String("id", c.ID),
		zap.String("recipient", c.Recipient),
		zap.Uint64("amount", c.Amount),
		zap.Int("payments_made", c.PaymentsMade),
		zap.String("tx", tx.Hash()))
	return Execution{ContractID: c.ID, Status: c.Status, TxID: tx.Hash()}
}
