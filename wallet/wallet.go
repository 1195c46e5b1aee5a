// Package wallet manages the key pairs behind ledger accounts:
// mnemonic-backed generation, deterministic recovery, key transport
// encodings and a file-backed keystore.
package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"github.com/caravelchain/caravel/blockchain"
)

var (
	ErrInvalidMnemonic = errors.New("mnemonic is not a valid BIP-39 phrase")
	ErrUnknownWallet   = errors.New("no wallet for that address")
)

// Wallet holds one key pair and the address it controls. Mnemonic is
// empty for wallets imported from a raw key.
type Wallet struct {
	Address   string
	Mnemonic  string
	CreatedAt time.Time

	priv *blockchain.PrivateKey
}

// New generates a wallet backed by a fresh 128-bit entropy mnemonic.
func New() (*Wallet, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("derive mnemonic: %w", err)
	}
	return FromMnemonic(mnemonic)
}

// FromMnemonic rebuilds the wallet a mnemonic backs. The same phrase
// always yields the same key pair and address.
func FromMnemonic(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	priv := blockchain.PrivateKeyFromBytes(seed[:32])
	return &Wallet{
		Address:   priv.PublicKey().Address(),
		Mnemonic:  mnemonic,
		CreatedAt: time.Now(),
		priv:      priv,
	}, nil
}

// FromPrivateKeyHex imports a raw 32-byte hex key. Recovery for such
// wallets is the key itself.
func FromPrivateKeyHex(h string) (*Wallet, error) {
	priv, err := blockchain.PrivateKeyFromHex(h)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		Address:   priv.PublicKey().Address(),
		CreatedAt: time.Now(),
		priv:      priv,
	}, nil
}

// ImportPrivateKeyBase58 imports an operator-exported key.
func ImportPrivateKeyBase58(s string) (*Wallet, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58 key: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	priv := blockchain.PrivateKeyFromBytes(b)
	return &Wallet{
		Address:   priv.PublicKey().Address(),
		CreatedAt: time.Now(),
		priv:      priv,
	}, nil
}

// ExportPrivateKeyBase58 renders the key for operator transport.
func (w *Wallet) ExportPrivateKeyBase58() string {
	return base58.Encode(w.priv.Bytes())
}

// PublicKeyHex returns the wallet's key material as used in
// transaction sender fields.
func (w *Wallet) PublicKeyHex() string {
	return w.priv.PublicKey().Hex()
}

// PrivateKeyHex returns the raw key scalar encoding.
func (w *Wallet) PrivateKeyHex() string {
	return w.priv.Hex()
}

// SignTransaction signs tx with the wallet key.
func (w *Wallet) SignTransaction(tx *blockchain.Transaction) error {
	return tx.Sign(w.priv)
}

// NewTransfer builds and signs a transfer from this wallet.
func (w *Wallet) NewTransfer(recipient string, amount uint64, note string) (*blockchain.Transaction, error) {
	tx, err := blockchain.NewTransaction(w.PublicKeyHex(), recipient, amount)
	if err != nil {
		return nil, err
	}
	tx.Note = note
	if err := tx.Sign(w.priv); err != nil {
		return nil, err
	}
	return tx, nil
}
