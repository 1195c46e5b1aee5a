package blockchain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	sha256 "github.com/minio/sha256-simd"
)

// System identities. Transactions issued under these senders are valid
// by construction and never carry a signature.
const (
	// RewardSender mints the miner payout in every mined block.
	RewardSender = "SYSTEM"
	// ContractSenderPrefix namespaces contract payout identities.
	ContractSenderPrefix = "CONTRACT:"
	// RecordSenderPrefix namespaces supply chain record identities.
	RecordSenderPrefix = "SUPPLYCHAIN:"
)

// Transaction is a transfer between two identities. Sender holds hex
// public key material for user transactions, or a system identity.
// Recipient is an account address or a namespaced identity such as
// CONTRACT:<id>. Note is an optional memo covered by the signature.
type Transaction struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature,omitempty"`
	Note      string `json:"note,omitempty"`
}

// NewTransaction builds an unsigned user transaction. Zero amounts are
// rejected here; only system records may carry zero.
func NewTransaction(senderMaterial, recipient string, amount uint64) (*Transaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		Sender:    senderMaterial,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
	}, nil
}

// NewRewardTransaction builds the miner payout included last in every
// mined block. It exists only inside blocks, never in the pool.
func NewRewardTransaction(miner string, reward uint64) *Transaction {
	return &Transaction{
		Sender:    RewardSender,
		Recipient: miner,
		Amount:    reward,
		Timestamp: time.Now().Unix(),
	}
}

// NewSystemTransaction builds a transaction issued by a namespaced
// system identity: contract payouts (amount > 0) and supply chain
// records (amount 0, context in the note). The sender must carry a
// recognized prefix.
func NewSystemTransaction(sender, recipient string, amount uint64, note string) (*Transaction, error) {
	if !strings.HasPrefix(sender, ContractSenderPrefix) && !strings.HasPrefix(sender, RecordSenderPrefix) {
		return nil, fmt.Errorf("system transaction sender %q lacks a recognized prefix", sender)
	}
	return &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
		Note:      note,
	}, nil
}

// IsSystemIdentity reports whether sender is one of the ledger's own
// identities rather than public key material.
func IsSystemIdentity(sender string) bool {
	return sender == RewardSender ||
		strings.HasPrefix(sender, ContractSenderPrefix) ||
		strings.HasPrefix(sender, RecordSenderPrefix)
}

// SigningPayload is the canonical byte encoding covered by the
// signature: sender, recipient, amount, timestamp and note in fixed
// field order.
func (t *Transaction) SigningPayload() []byte {
	return []byte(fmt.Sprintf("%s|%s|%d|%d|%s", t.Sender, t.Recipient, t.Amount, t.Timestamp, t.Note))
}

// Sign attaches the sender's signature. Signing is one shot: a second
// call fails rather than silently replacing the signature.
func (t *Transaction) Sign(priv *PrivateKey) error {
	if IsSystemIdentity(t.Sender) {
		return ErrSystemTransaction
	}
	if t.Signature != "" {
		return ErrAlreadySigned
	}
	if priv.PublicKey().Hex() != t.Sender {
		return ErrKeyMismatch
	}
	t.Signature = hex.EncodeToString(priv.Sign(t.SigningPayload()))
	return nil
}

// IsValid reports whether the transaction may enter a block. System
// transactions are valid by construction; user transactions must carry
// a signature that verifies against the sender's key material.
func (t *Transaction) IsValid() bool {
	if IsSystemIdentity(t.Sender) {
		return true
	}
	if t.Signature == "" {
		return false
	}
	sig, err := hex.DecodeString(t.Signature)
	if err != nil {
		return false
	}
	return VerifySignature(t.Sender, t.SigningPayload(), sig)
}

// SenderIdentity resolves the account the transaction debits: the
// derived address for key senders, the sentinel itself for system
// senders. Unparseable key material folds as the raw string.
func (t *Transaction) SenderIdentity() string {
	if IsSystemIdentity(t.Sender) {
		return t.Sender
	}
	addr, err := DeriveAddress(t.Sender)
	if err != nil {
		return t.Sender
	}
	return addr
}

// Hash is the transaction id: the digest of the signing payload plus
// the signature, hex encoded. Mutating any signed field changes it.
func (t *Transaction) Hash() string {
	return t.digest().Hex()
}

func (t *Transaction) digest() Digest {
	h := sha256.New()
	h.Write(t.SigningPayload())
	h.Write([]byte(t.Signature))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
