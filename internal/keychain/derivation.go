package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// KeyLocator is a two-tuple that can be used to derive *any* key that has
// ever been used under the key derivation mechanisms lnd describes. This
// module never derives a key from a locator itself — every key it signs
// with arrives already resolved to a concrete point (a channel's base
// points, a per-commitment point) — but a SignDescriptor still carries one,
// since a caller backed by a real wallet needs it to find the matching
// private key.
type KeyLocator struct {
	// Family is the family of key being identified.
	Family uint32

	// Index is the precise index of the key being identified.
	Index uint32
}

// IsEmpty returns true if a KeyLocator is "empty": neither a family nor an
// index has been set, which is the case whenever a KeyDescriptor carries a
// resolved PubKey instead.
func (k KeyLocator) IsEmpty() bool {
	return k.Family == 0 && k.Index == 0
}

// KeyDescriptor wraps a KeyLocator and optionally a resolved public key.
// Either the KeyLocator must be non-empty, or PubKey must be non-nil.
// input.SignDescriptor carries one of these to identify precisely which
// key a Signer should sign with; every descriptor this module builds
// populates PubKey directly rather than a locator, since the keys involved
// in recovering or signing a commitment are already known points (channel
// base points tweaked against a commitment point), never ones that need
// deriving from an account/index pair.
type KeyDescriptor struct {
	// KeyLocator is the internal KeyLocator of the descriptor.
	KeyLocator

	// PubKey is an optional public key that fully describes a target
	// key. If this is nil, the KeyLocator MUST NOT be empty.
	PubKey *btcec.PublicKey
}
