package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is an in-memory keystore indexed by address.
type Store struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	log     *zap.Logger
}

// NewStore builds an empty keystore. A nil logger disables logging.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		wallets: make(map[string]*Wallet),
		log:     log,
	}
}

// Add registers w, replacing any wallet already under its address.
func (s *Store) Add(w *Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.Address] = w
	s.log.Debug("wallet stored", zap.String("address", w.Address), zap.Int("count", len(s.wallets)))
}

// Get looks a wallet up by address.
func (s *Store) Get(address string) (*Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[address]
	return w, ok
}

// Addresses returns every stored address, sorted.
func (s *Store) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addressesUnsafe()
}

// Len is the number of stored wallets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wallets)
}

// keystoreFile is the on-disk form. It holds raw key material, so it
// is written 0600 and carries no passphrase encryption.
type keystoreFile struct {
	Version int             `json:"version"`
	Wallets []keystoreEntry `json:"wallets"`
}

type keystoreEntry struct {
	Address    string    `json:"address"`
	PrivateKey string    `json:"private_key"`
	Mnemonic   string    `json:"mnemonic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveFile writes the whole keystore to path.
func (s *Store) SaveFile(path string) error {
	s.mu.RLock()
	file := keystoreFile{Version: 1}
	for _, a := range s.addressesUnsafe() {
		w := s.wallets[a]
		file.Wallets = append(file.Wallets, keystoreEntry{
			Address:    w.Address,
			PrivateKey: w.PrivateKeyHex(),
			Mnemonic:   w.Mnemonic,
			CreatedAt:  w.CreatedAt,
		})
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode keystore: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	s.log.Info("keystore saved", zap.String("path", path), zap.Int("wallets", len(file.Wallets)))
	return nil
}

// LoadFile merges wallets from path into the store. A missing file is
// not an error: a fresh node starts empty. Entries whose stored
// address does not match the key are skipped.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}

	var file keystoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode keystore: %w", err)
	}

	loaded := 0
	for _, entry := range file.Wallets {
		w, err := FromPrivateKeyHex(entry.PrivateKey)
		if err != nil {
			s.log.Warn("skipping unreadable keystore entry",
				zap.String("address", entry.Address), zap.Error(err))
			continue
		}
		if entry.Address != "" && entry.Address != w.Address {
			s.log.Warn("skipping keystore entry with mismatched address",
				zap.String("stored", entry.Address), zap.String("derived", w.Address))
			continue
		}
		w.Mnemonic = entry.Mnemonic
		if !entry.CreatedAt.IsZero() {
			w.CreatedAt = entry.CreatedAt
		}
		s.Add(w)
		loaded++
	}
	s.log.Info("keystore loaded", zap.String("path", path), zap.Int("wallets", loaded))
	return nil
}

func (s *Store) addressesUnsafe() []string {
	addrs := make([]string, 0, len(s.wallets))
	for a := range s.wallets {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}
