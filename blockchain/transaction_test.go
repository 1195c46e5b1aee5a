package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *PrivateKey {
	t.Helper()
	key, err := GenerateKeyPair()
	require.NoError(t, err)
	return key
}

func signedTransfer(t *testing.T, from *PrivateKey, recipient string, amount uint64) *Transaction {
	t.Helper()
	tx, err := NewTransaction(from.PublicKey().Hex(), recipient, amount)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(from))
	return tx
}

func TestNewTransactionRejectsZeroAmount(t *testing.T) {
	key := testKey(t)
	_, err := NewTransaction(key.PublicKey().Hex(), "recipient", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSignLifecycle(t *testing.T) {
	key := testKey(t)
	tx, err := NewTransaction(key.PublicKey().Hex(), "recipient", 10)
	require.NoError(t, err)

	require.False(t, tx.IsValid(), "unsigned transaction must be invalid")

	require.NoError(t, tx.Sign(key))
	require.True(t, tx.IsValid())

	require.ErrorIs(t, tx.Sign(key), ErrAlreadySigned)
}

func TestSignWithWrongKey(t *testing.T) {
	key := testKey(t)
	tx, err := NewTransaction(key.PublicKey().Hex(), "recipient", 10)
	require.NoError(t, err)

	require.ErrorIs(t, tx.Sign(testKey(t)), ErrKeyMismatch)
}

func TestRewardTransactionIsNotSignable(t *testing.T) {
	tx := NewRewardTransaction("miner", 50)
	require.True(t, tx.IsValid(), "reward transactions are valid by construction")
	require.ErrorIs(t, tx.Sign(testKey(t)), ErrSystemTransaction)
}

func TestTamperingInvalidatesSignature(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
	}{
		{"amount", func(tx *Transaction) { tx.Amount++ }},
		{"recipient", func(tx *Transaction) { tx.Recipient = "someone else" }},
		{"timestamp", func(tx *Transaction) { tx.Timestamp++ }},
		{"note", func(tx *Transaction) { tx.Note = "edited" }},
		{"signature bytes", func(tx *Transaction) { tx.Signature = "ffff" + tx.Signature[4:] }},
		{"signature not hex", func(tx *Transaction) { tx.Signature = "zz" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := signedTransfer(t, key, "recipient", 25)
			require.True(t, tx.IsValid())
			tt.mutate(tx)
			require.False(t, tx.IsValid())
		})
	}
}

func TestNewSystemTransaction(t *testing.T) {
	tx, err := NewSystemTransaction(ContractSenderPrefix+"abc", "recipient", 40, "payout")
	require.NoError(t, err)
	require.True(t, tx.IsValid())

	record, err := NewSystemTransaction(RecordSenderPrefix+"shipped", "PRODUCT:1", 0, "event hash")
	require.NoError(t, err)
	require.True(t, record.IsValid())
	require.Zero(t, record.Amount)

	_, err = NewSystemTransaction("somebody", "recipient", 1, "")
	require.Error(t, err)
	_, err = NewSystemTransaction(RewardSender, "recipient", 1, "")
	require.Error(t, err, "reward transactions have their own constructor")
}

func TestSenderIdentity(t *testing.T) {
	key := testKey(t)
	tx := signedTransfer(t, key, "recipient", 5)
	require.Equal(t, key.PublicKey().Address(), tx.SenderIdentity())

	reward := NewRewardTransaction("miner", 50)
	require.Equal(t, RewardSender, reward.SenderIdentity())

	payout, err := NewSystemTransaction(ContractSenderPrefix+"abc", "recipient", 1, "")
	require.NoError(t, err)
	require.Equal(t, ContractSenderPrefix+"abc", payout.SenderIdentity())

	// Unparseable key material folds under the raw string.
	raw := &Transaction{Sender: "not-a-key", Recipient: "r", Amount: 1}
	require.Equal(t, "not-a-key", raw.SenderIdentity())
}

func TestTransactionHashChangesWithContent(t *testing.T) {
	key := testKey(t)
	tx := signedTransfer(t, key, "recipient", 5)
	id := tx.Hash()
	require.Len(t, id, 64)

	tx.Amount = 6
	require.NotEqual(t, id, tx.Hash())
}
