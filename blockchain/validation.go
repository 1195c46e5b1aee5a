package blockchain

// Validate rescans the full chain. The genesis block must match its
// own recompute; every later block must link its parent, re-hash to
// its stored hash at its recorded difficulty and carry only valid
// transactions. Bool only: a tampered chain is reported, not repaired.
func (l *Ledger) Validate() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return false
	}
	genesis := l.chain[0]
	if genesis.ComputeHash() != genesis.Hash {
		return false
	}
	for i := 1; i < len(l.chain); i++ {
		if !validateLink(l.chain[i], l.chain[i-1]) {
			return false
		}
	}
	return true
}

// validateLink checks one parent/child pair: linkage, height
// continuity, proof of work and transaction validity.
func validateLink(current, previous *Block) bool {
	if current.PreviousHash != previous.Hash {
		return false
	}
	if current.Index != previous.Index+1 {
		return false
	}
	if !current.HashValid(current.Difficulty) {
		return false
	}
	for _, tx := range current.Transactions {
		if !tx.IsValid() {
			return false
		}
	}
	return true
}
