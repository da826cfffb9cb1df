package lntypes

import (
	"crypto/sha256"
	"encoding/hex"
)

// PreimageSize is the number of bytes in a Preimage.
const PreimageSize = 32

// Preimage is the 32-byte secret that settles an HTLC: revealing it proves
// the payment hash committed to when the HTLC was offered has been
// resolved.
type Preimage [PreimageSize]byte

// String returns the Preimage as a hexadecimal string.
func (p Preimage) String() string {
	return hex.EncodeToString(p[:])
}

// Hash returns the sha256 hash of the preimage.
func (p Preimage) Hash() Hash {
	return Hash(sha256.Sum256(p[:]))
}

// Matches reports whether p is the preimage of h — the check
// send_fulfill/receive_fulfill each perform before accepting a fulfill for
// an HTLC.
func (p Preimage) Matches(h Hash) bool {
	return h == p.Hash()
}
