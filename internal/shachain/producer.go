package shachain

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Producer is the dual of Store: rather than being handed secrets to store
// and later derive backwards from, it derives any secret in the chain
// forwards, directly from a single root.
type Producer interface {
	// AtIndex derives the secret that would be revealed at the given
	// index.
	AtIndex(uint64) (*chainhash.Hash, error)
}

// RevocationProducer generates the secrets a RevocationStore expects,
// deriving each one directly from a single 32-byte root via the same
// bit-flip-and-hash construction commitmentSecret.derive uses to walk
// between two already-known secrets.
type RevocationProducer struct {
	root commitmentSecret
}

// A compile time check to ensure RevocationProducer implements the Producer
// interface.
var _ Producer = (*RevocationProducer)(nil)

// NewRevocationProducer creates a producer rooted at the given seed.
func NewRevocationProducer(root chainhash.Hash) *RevocationProducer {
	return &RevocationProducer{
		root: commitmentSecret{index: rootIndex, hash: root},
	}
}

// AtIndex derives the secret that would be revealed for commitment number v.
func (p *RevocationProducer) AtIndex(v uint64) (*chainhash.Hash, error) {
	e, err := p.root.derive(newIndex(v))
	if err != nil {
		return nil, err
	}

	return &e.hash, nil
}
