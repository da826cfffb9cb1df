package shachain

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// commitmentSecret is one revealed per-commitment secret, tagged with the
// shachain index it was produced at. Comparing two indexes tells us exactly
// which bits to flip-and-hash to walk from one secret to another — that's
// what makes O(log N) storage of N secrets possible instead of storing
// every one.
type commitmentSecret struct {
	index index
	hash  chainhash.Hash
}

// derive walks from e, a secret already known at e.index, to the secret
// that would have been revealed at toIndex — not by rehashing from the
// chain's root, but by applying exactly the bit flips toIndex's index
// prescribes on top of e's own hash. BOLT 3 requires toIndex to be a
// descendant of e.index in the derivation tree; deriveBitTransformations
// reports an error otherwise.
func (e *commitmentSecret) derive(toIndex index) (*commitmentSecret, error) {
	fromIndex := e.index

	positions, err := fromIndex.deriveBitTransformations(toIndex)
	if err != nil {
		return nil, err
	}

	buf := e.hash.CloneBytes()
	for _, position := range positions {
		byteNumber := position / 8
		bitNumber := position % 8

		buf[byteNumber] ^= 1 << bitNumber

		h := sha256.Sum256(buf)
		buf = h[:]
	}

	hash, err := chainhash.NewHash(buf)
	if err != nil {
		return nil, err
	}

	return &commitmentSecret{index: toIndex, hash: *hash}, nil
}

// isEqual reports whether two commitmentSecrets carry the same index and
// the same revealed hash.
func (e *commitmentSecret) isEqual(e2 *commitmentSecret) bool {
	return e.index == e2.index && (&e.hash).IsEqual(&e2.hash)
}

const (
	// maxHeight bounds the shachain derivation tree: it's both the
	// number of buckets a RevocationStore ever needs and the number of
	// bits in an index.
	maxHeight uint8 = 48

	// rootIndex names the index of the chain's root secret.
	rootIndex index = 0
)

// startIndex is the index assigned to the first secret a RevocationProducer
// derives from its root. Successive commitment heights consume
// monotonically decreasing indexes from here down toward rootIndex.
var startIndex index = (1 << maxHeight) - 1

// index identifies one position in the shachain derivation tree. A
// RevocationProducer counts commitment heights upward from zero;
// newIndex maps a height onto the downward-counting index the derivation
// bit math actually operates on.
type index uint64

// newIndex converts a commitment height into the index space
// deriveBitTransformations works in: heights count up from zero, but the
// underlying shachain PRF counts indexes down from startIndex.
func newIndex(v uint64) index {
	return startIndex - index(v)
}

// deriveBitTransformations reports which bit positions must be flipped (and
// rehashed, in descending order) to walk from index from to index to, or an
// error if to isn't actually a descendant of from in the derivation tree —
// equivalently, if from's bits aren't a strict prefix of to's once from's
// trailing zeros are stripped. For example, from 4 (0b100) every of
// 4,5,6,7 is reachable, but 0,1,2,3 are not.
func (from index) deriveBitTransformations(to index) ([]uint8, error) {
	var positions []uint8

	if from == to {
		return positions, nil
	}

	zeros := countTrailingZeros(from)
	if uint64(from) != getPrefix(to, zeros) {
		return nil, errors.New("shachain: index not derivable: " +
			"prefixes differ")
	}

	for position := zeros - 1; ; position-- {
		if getBit(to, position) == 1 {
			positions = append(positions, position)
		}

		if position == 0 {
			break
		}
	}

	return positions, nil
}
