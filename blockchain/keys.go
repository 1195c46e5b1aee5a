package blockchain

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// addressLength is the number of hex characters kept from a public
// key's digest when deriving an account address.
const addressLength = 40

// PrivateKey wraps a secp256k1 signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 verification key. Its canonical wire
// form is the hex encoding of the 33-byte compressed point, referred
// to as the sender's key material.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// GenerateKeyPair creates a fresh random private key.
func GenerateKeyPair() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// PrivateKeyFromBytes interprets b as a key scalar. Deterministic, so
// seed-derived wallets always rebuild the same key.
func PrivateKeyFromBytes(b []byte) *PrivateKey {
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}
}

// PrivateKeyFromHex decodes a 32-byte hex private key.
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return PrivateKeyFromBytes(b), nil
}

// PublicKey returns the verification key for k.
func (k *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: k.key.PubKey()}
}

// Bytes returns the 32-byte key scalar.
func (k *PrivateKey) Bytes() []byte {
	return k.key.Serialize()
}

// Hex returns the hex encoding of the key scalar.
func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(k.key.Serialize())
}

// Sign produces a DER-encoded ECDSA signature over the SHA-256 digest
// of payload.
func (k *PrivateKey) Sign(payload []byte) []byte {
	digest := Sum(payload)
	return ecdsa.Sign(k.key, digest[:]).Serialize()
}

// Hex returns the key material: hex of the compressed point.
func (p *PublicKey) Hex() string {
	return hex.EncodeToString(p.key.SerializeCompressed())
}

// Address derives the account address: the first 40 hex characters of
// the SHA-256 digest of the compressed public key.
func (p *PublicKey) Address() string {
	return Sum(p.key.SerializeCompressed()).Hex()[:addressLength]
}

// ParsePublicKey decodes hex key material back into a key.
func ParsePublicKey(material string) (*PublicKey, error) {
	b, err := hex.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &PublicKey{key: k}, nil
}

// DeriveAddress derives the account address for hex key material.
func DeriveAddress(material string) (string, error) {
	pub, err := ParsePublicKey(material)
	if err != nil {
		return "", err
	}
	return pub.Address(), nil
}

// VerifySignature checks a DER signature over payload against hex key
// material. It never returns an error: malformed keys or signature
// bytes simply fail verification.
func VerifySignature(material string, payload, sig []byte) bool {
	pub, err := ParsePublicKey(material)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := Sum(payload)
	return parsed.Verify(digest[:], pub.key)
}
