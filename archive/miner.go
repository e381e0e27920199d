/*
File Name:  miner.go
Copyright:  2024 Peerchat Project

The proof-of-work miner. Every archive entry is sealed by a 16-byte nonce
chosen so that MD5(prefix || nonce) has a two-byte zero prefix. Difficulty is
fixed at 16 bits of leading zero, giving roughly 65,536 MD5 evaluations per
entry on average. The search is purely local and purely CPU-bound; it is not
cancellable, matching the source, which has no abort path and assumes mining
always succeeds quickly.
*/
package archive

import "crypto/md5"

// digestZeroBytes is the number of leading zero bytes a digest must carry to
// be accepted. Two bytes = 16 bits of difficulty.
const digestZeroBytes = 2

// mine searches for a 16-byte nonce such that MD5(prefix || nonce) has a
// digestZeroBytes-byte zero prefix. It returns the nonce and the resulting
// digest.
//
// The nonce is treated as a 128-bit little-endian counter, starting at zero
// and incremented lowest-byte-first. This mirrors the original C
// implementation's "unsigned __int128" counter layout: since the counter's
// byte representation is itself part of the hash input, any enumeration
// order that produced a different byte sequence for the same logical count
// would mine different (still valid, but non-reproducible) digests. We match
// the original layout so the bytes mined here are indistinguishable from
// those any other peer implementation would produce.
func mine(prefix []byte) (nonce, digest [16]byte) {
	buf := make([]byte, len(prefix)+16)
	copy(buf, prefix)

	for {
		copy(buf[len(prefix):], nonce[:])
		sum := md5.Sum(buf)

		zero := true
		for i := 0; i < digestZeroBytes; i++ {
			if sum[i] != 0 {
				zero = false
				break
			}
		}
		if zero {
			digest = sum
			return nonce, digest
		}

		incrementNonce(&nonce)
	}
}

// incrementNonce increments a 16-byte little-endian counter in place,
// carrying from the lowest byte upward.
func incrementNonce(nonce *[16]byte) {
	for i := range nonce {
		nonce[i]++
		if nonce[i] != 0 {
			return
		}
	}
}
