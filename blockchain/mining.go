package blockchain

// Mine searches nonces from zero until the block digest carries the
// required number of leading zero hex characters, then stores the
// winning nonce, the difficulty and the hash. It is CPU bound and
// blocking with no cancellation; callers needing responsiveness run it
// on a worker and may only discard the result. Difficulty 0 accepts
// the first attempt.
func (b *Block) Mine(difficulty int) {
	b.Difficulty = difficulty
	txRoot := MerkleTransactions(b.Transactions)
	for b.Nonce = 0; ; b.Nonce++ {
		d := b.digest(txRoot)
		if MeetsDifficulty(d, difficulty) {
			b.Hash = d.Hex()
			return
		}
	}
}

// HashValid reports whether the stored hash matches a fresh recompute
// and meets the difficulty prefix. Never errors; malformed blocks are
// simply invalid.
func (b *Block) HashValid(difficulty int) bool {
	if b.Hash == "" {
		return false
	}
	d := b.digest(MerkleTransactions(b.Transactions))
	return d.Hex() == b.Hash && MeetsDifficulty(d, difficulty)
}
