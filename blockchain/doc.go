// Package blockchain implements a single-node proof-of-work ledger:
// signed transactions, mined blocks and the append-only chain they
// form. Difficulty counts leading zero hex characters of a block's
// SHA-256 digest. Balances are pure folds over the confirmed chain;
// there is no persistence and no networking.
package blockchain
