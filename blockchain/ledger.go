package blockchain

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMiningReward is the per-block payout when Config leaves it
// unset.
const DefaultMiningReward = 50

// Config tunes a new ledger. Zero values fall back to defaults and a
// nil Logger means no logging.
type Config struct {
	Difficulty   int
	MiningReward uint64
	Logger       *zap.Logger
}

// Ledger owns the confirmed chain and the pending transaction pool
// exclusively. A single RWMutex serializes every mutating operation;
// mining holds the write lock for its full duration, so no submission
// can slip into the pool mid-block and be lost by the clear. Reads
// take the read lock and always see a consistent chain.
//
// The core accepts duplicate submissions of the same signed
// transaction; there is no replay protection at this layer.
type Ledger struct {
	mu           sync.RWMutex
	chain        []*Block
	pending      []*Transaction
	difficulty   int
	miningReward uint64
	log          *zap.Logger
}

// NewLedger mines the genesis block at the configured difficulty and
// returns a ready chain.
func NewLedger(cfg Config) *Ledger {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Difficulty == 0 {
		cfg.Difficulty = DefaultDifficulty
	}
	if cfg.Difficulty < MinDifficulty || cfg.Difficulty > MaxDifficulty {
		cfg.Logger.Warn("difficulty out of bounds, using default",
			zap.Int("requested", cfg.Difficulty),
			zap.Int("difficulty", DefaultDifficulty))
		cfg.Difficulty = DefaultDifficulty
	}
	if cfg.MiningReward == 0 {
		cfg.MiningReward = DefaultMiningReward
	}

	l := &Ledger{
		difficulty:   cfg.Difficulty,
		miningReward: cfg.MiningReward,
		log:          cfg.Logger,
	}
	genesis := newGenesisBlock(cfg.Difficulty)
	l.chain = append(l.chain, genesis)
	l.log.Info("ledger initialized",
		zap.Int("difficulty", cfg.Difficulty),
		zap.Uint64("mining_reward", cfg.MiningReward),
		zap.String("genesis_hash", genesis.Hash))
	return l
}

// SubmitTransaction validates tx against the confirmed chain and adds
// it to the pending pool. Pending debits are deliberately not charged
// here; the cumulative check runs when a block is assembled.
func (l *Ledger) SubmitTransaction(tx *Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.Sender == RewardSender {
		return ErrRewardSubmission
	}
	if tx.Amount == 0 && !IsSystemIdentity(tx.Sender) {
		return ErrInvalidAmount
	}
	if !tx.IsValid() {
		return ErrInvalidSignature
	}
	if tx.Amount > 0 {
		identity := tx.SenderIdentity()
		balance := l.balanceOfUnsafe(identity)
		if balance < 0 || uint64(balance) < tx.Amount {
			return &InsufficientBalanceError{Identity: identity, Balance: balance, Amount: tx.Amount}
		}
	}

	l.pending = append(l.pending, tx)
	l.log.Debug("transaction accepted",
		zap.String("id", tx.Hash()),
		zap.String("sender", tx.SenderIdentity()),
		zap.String("recipient", tx.Recipient),
		zap.Uint64("amount", tx.Amount),
		zap.Int("pool_size", len(l.pending)))
	return nil
}

// Mine packages the pending pool plus the miner's reward into the next
// block, mines it at the current difficulty and appends it to the
// chain, clearing the pool atomically. Pool order is preserved and the
// reward transaction comes last. Transactions whose sender would
// cumulatively overdraw confirmed funds are dropped here, closing the
// window left open by per-submission balance checks.
func (l *Ledger) Mine(miner string) (*Block, error) {
	if miner == "" {
		return nil, errors.New("miner address required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	included := make([]*Transaction, 0, len(l.pending)+1)
	debits := make(map[string]uint64)
	for _, tx := range l.pending {
		if tx.Amount > 0 {
			identity := tx.SenderIdentity()
			available := l.balanceOfUnsafe(identity) - int64(debits[identity])
			if available < 0 || uint64(available) < tx.Amount {
				l.log.Warn("dropping transaction that overdraws pending debits",
					zap.String("id", tx.Hash()),
					zap.String("sender", identity),
					zap.Int64("available", available),
					zap.Uint64("amount", tx.Amount))
				continue
			}
			debits[identity] += tx.Amount
		}
		included = append(included, tx)
	}
	included = append(included, NewRewardTransaction(miner, l.miningReward))

	tip := l.chain[len(l.chain)-1]
	block := NewBlock(uint64(len(l.chain)), included, tip.Hash)

	start := time.Now()
	block.Mine(l.difficulty)
	l.chain = append(l.chain, block)
	l.pending = nil

	l.log.Info("block mined",
		zap.Uint64("index", block.Index),
		zap.String("hash", block.Hash),
		zap.Uint64("nonce", block.Nonce),
		zap.Int("transactions", len(block.Transactions)),
		zap.String("miner", miner),
		zap.Duration("elapsed", time.Since(start)))
	return block, nil
}

// BalanceOf folds the confirmed chain for one identity: credits where
// it is the recipient, debits where it is the resolved sender. It is a
// pure function of the chain; pending transactions carry no weight and
// the result can be negative for system identities (issuance).
func (l *Ledger) BalanceOf(identity string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOfUnsafe(identity)
}

func (l *Ledger) balanceOfUnsafe(identity string) int64 {
	var balance int64
	for _, b := range l.chain {
		for _, tx := range b.Transactions {
			if tx.SenderIdentity() == identity {
				balance -= int64(tx.Amount)
			}
			if tx.Recipient == identity {
				balance += int64(tx.Amount)
			}
		}
	}
	return balance
}

// Balances folds the whole chain once and returns every identity that
// ever appeared. The values sum to the coins minted by mining rewards.
func (l *Ledger) Balances() map[string]int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := make(map[string]int64)
	for _, b := range l.chain {
		for _, tx := range b.Transactions {
			if tx.Sender != RewardSender {
				balances[tx.SenderIdentity()] -= int64(tx.Amount)
			}
			balances[tx.Recipient] += int64(tx.Amount)
		}
	}
	return balances
}

// TransactionRecord pairs a confirmed transaction with the block that
// holds it.
type TransactionRecord struct {
	BlockIndex  uint64       `json:"block_index"`
	Transaction *Transaction `json:"transaction"`
}

// TransactionsFor returns identity's confirmed history in chain order,
// covering both sides of each transfer.
func (l *Ledger) TransactionsFor(identity string) []TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var records []TransactionRecord
	for _, b := range l.chain {
		for _, tx := range b.Transactions {
			if tx.SenderIdentity() == identity || tx.Recipient == identity {
				records = append(records, TransactionRecord{BlockIndex: b.Index, Transaction: tx})
			}
		}
	}
	return records
}

// FindTransaction scans the chain for a transaction id and returns the
// transaction with its block index.
func (l *Ledger) FindTransaction(id string) (*Transaction, uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, b := range l.chain {
		for _, tx := range b.Transactions {
			if tx.Hash() == id {
				return tx, b.Index, true
			}
		}
	}
	return nil, 0, false
}

// Chain returns a snapshot copy of the block slice. Blocks themselves
// are shared; callers must not mutate them.
func (l *Ledger) Chain() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	chain := make([]*Block, len(l.chain))
	copy(chain, l.chain)
	return chain
}

// Pending returns a snapshot copy of the pool in submission order.
func (l *Ledger) Pending() []*Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pending := make([]*Transaction, len(l.pending))
	copy(pending, l.pending)
	return pending
}

// Height is the number of blocks on the chain, genesis included.
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.chain))
}

// Difficulty returns the target for the next mined block.
func (l *Ledger) Difficulty() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.difficulty
}

// MiningReward returns the per-block payout.
func (l *Ledger) MiningReward() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.miningReward
}

// SetDifficulty adjusts the mining target for future blocks within
// MinDifficulty..MaxDifficulty. Already mined blocks keep the
// difficulty they were mined at.
func (l *Ledger) SetDifficulty(difficulty int) error {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.difficulty = difficulty
	l.log.Info("difficulty changed", zap.Int("difficulty", difficulty))
	return nil
}
