package blockchain

// newGenesisBlock mines the block that anchors a fresh chain: index 0,
// no transactions, previous hash "0". It is mined at the configured
// difficulty like any other block.
func newGenesisBlock(difficulty int) *Block {
	b := NewBlock(0, nil, GenesisPreviousHash)
	b.Mine(difficulty)
	return b
}
