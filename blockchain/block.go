package blockchain

import (
	"time"

	sha256 "github.com/minio/sha256-simd"
)

// GenesisPreviousHash anchors the first block of every chain.
const GenesisPreviousHash = "0"

// Block is one link of the chain. Nonce, Difficulty and Hash are set
// by mining; PreviousHash is "0" for the genesis block.
type Block struct {
	Index        uint64         `json:"index"`
	Timestamp    int64          `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	PreviousHash string         `json:"previous_hash"`
	Nonce        uint64         `json:"nonce"`
	Difficulty   int            `json:"difficulty"`
	Hash         string         `json:"hash"`
}

// NewBlock assembles an unmined block over the given transactions.
func NewBlock(index uint64, transactions []*Transaction, previousHash string) *Block {
	return &Block{
		Index:        index,
		Timestamp:    time.Now().Unix(),
		Transactions: transactions,
		PreviousHash: previousHash,
	}
}

// ComputeHash hashes the block contents in fixed field order. The
// stored Hash field is not an input, so a recompute can be compared
// against it.
func (b *Block) ComputeHash() string {
	return b.digest(MerkleTransactions(b.Transactions)).Hex()
}

func (b *Block) digest(txRoot Digest) Digest {
	h := sha256.New()
	h.Write(uint64ToBytes(b.Index))
	h.Write(uint64ToBytes(uint64(b.Timestamp)))
	h.Write([]byte(b.PreviousHash))
	h.Write(txRoot[:])
	h.Write(uint64ToBytes(uint64(b.Difficulty)))
	h.Write(uint64ToBytes(b.Nonce))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
