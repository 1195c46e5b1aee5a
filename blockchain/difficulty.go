package blockchain

// Difficulty bounds for the admin setter. History keeps the difficulty
// each block was mined at, so changing the target never rewrites the
// past.
const (
	MinDifficulty     = 1
	MaxDifficulty     = 10
	DefaultDifficulty = 4
)

// MeetsDifficulty reports whether the digest starts with difficulty
// zero hex characters. Each hex character covers one nibble, so every
// difficulty step multiplies the expected mining work by 16.
func MeetsDifficulty(d Digest, difficulty int) bool {
	if difficulty > len(d)*2 {
		difficulty = len(d) * 2
	}
	for i := 0; i < difficulty; i++ {
		nibble := d[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble != 0 {
			return false
		}
	}
	return true
}
