package blockchain

import (
	"encoding/binary"
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
)

// Digest is a raw SHA-256 output.
type Digest [32]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// Sum hashes data with SHA-256.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// MerkleTransactions folds the ordered transaction ids into a single
// root digest, duplicating the last leaf on odd levels. An empty list
// yields the zero digest.
func MerkleTransactions(transactions []*Transaction) Digest {
	if len(transactions) == 0 {
		return Digest{}
	}

	hashes := make([][]byte, len(transactions))
	for i, tx := range transactions {
		d := tx.digest()
		hashes[i] = d[:]
	}

	for len(hashes) > 1 {
		if len(hashes)%2 == 1 {
			hashes = append(hashes, hashes[len(hashes)-1])
		}

		parents := make([][]byte, 0, len(hashes)/2)
		for i := 0; i < len(hashes); i += 2 {
			h := sha256.New()
			h.Write(hashes[i])
			h.Write(hashes[i+1])
			parents = append(parents, h.Sum(nil))
		}
		hashes = parents
	}

	var root Digest
	copy(root[:], hashes[0])
	return root
}
