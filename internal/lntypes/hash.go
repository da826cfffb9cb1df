package lntypes

import "encoding/hex"

// HashSize is the number of bytes in a Hash.
const HashSize = 32

// Hash is a SHA-256 payment hash: the value an HTLC commits to, checked
// against the preimage a fulfill eventually reveals.
type Hash [HashSize]byte

// String returns the Hash as a hexadecimal string.
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}
