package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/caravelchain/caravel/blockchain"
)

func TestNewWallet(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.Len(t, w.Address, 40)
	require.True(t, bip39.IsMnemonicValid(w.Mnemonic))
	require.False(t, w.CreatedAt.IsZero())

	derived, err := blockchain.DeriveAddress(w.PublicKeyHex())
	require.NoError(t, err)
	require.Equal(t, w.Address, derived)
}

func TestFromMnemonicIsDeterministic(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	recovered, err := FromMnemonic(w.Mnemonic)
	require.NoError(t, err)
	require.Equal(t, w.Address, recovered.Address)
	require.Equal(t, w.PublicKeyHex(), recovered.PublicKeyHex())

	_, err = FromMnemonic("definitely not twelve valid words")
	require.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestPrivateKeyImportExport(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	fromHex, err := FromPrivateKeyHex(w.PrivateKeyHex())
	require.NoError(t, err)
	require.Equal(t, w.Address, fromHex.Address)
	require.Empty(t, fromHex.Mnemonic)

	fromBase58, err := ImportPrivateKeyBase58(w.ExportPrivateKeyBase58())
	require.NoError(t, err)
	require.Equal(t, w.Address, fromBase58.Address)

	_, err = ImportPrivateKeyBase58("0OIl not base58")
	require.Error(t, err)
	_, err = FromPrivateKeyHex("abcd")
	require.Error(t, err)
}

func TestNewTransfer(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	tx, err := w.NewTransfer("recipient address", 25, "rent")
	require.NoError(t, err)
	require.True(t, tx.IsValid())
	require.Equal(t, w.Address, tx.SenderIdentity())
	require.Equal(t, "rent", tx.Note)

	_, err = w.NewTransfer("recipient address", 0, "")
	require.ErrorIs(t, err, blockchain.ErrInvalidAmount)
}

func TestStoreBasics(t *testing.T) {
	s := NewStore(nil)
	require.Zero(t, s.Len())

	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	s.Add(a)
	s.Add(b)

	require.Equal(t, 2, s.Len())
	got, ok := s.Get(a.Address)
	require.True(t, ok)
	require.Equal(t, a.PublicKeyHex(), got.PublicKeyHex())

	_, ok = s.Get("missing")
	require.False(t, ok)

	addrs := s.Addresses()
	require.Len(t, addrs, 2)
	require.Contains(t, addrs, a.Address)
	require.Contains(t, addrs, b.Address)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	s := NewStore(nil)
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	s.Add(a)
	s.Add(b)
	require.NoError(t, s.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := NewStore(nil)
	require.NoError(t, restored.LoadFile(path))
	require.Equal(t, 2, restored.Len())

	got, ok := restored.Get(a.Address)
	require.True(t, ok)
	require.Equal(t, a.Mnemonic, got.Mnemonic)
	require.Equal(t, a.PublicKeyHex(), got.PublicKeyHex())
	require.True(t, a.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.LoadFile(filepath.Join(t.TempDir(), "nope.json")))
	require.Zero(t, s.Len())
}

func TestStoreLoadSkipsCorruptEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	w, err := New()
	require.NoError(t, err)

	raw := `{"version":1,"wallets":[` +
		`{"address":"tampered-address","private_key":"` + w.PrivateKeyHex() + `"},` +
		`{"address":"x","private_key":"zz-not-hex"},` +
		`{"address":"` + w.Address + `","private_key":"` + w.PrivateKeyHex() + `"}]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	s := NewStore(nil)
	require.NoError(t, s.LoadFile(path))
	require.Equal(t, 1, s.Len(), "mismatched and unreadable entries are skipped")
	_, ok := s.Get(w.Address)
	require.True(t, ok)
}
