package shachain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Store abstracts over a channel's record of the counterparty's revealed
// per-commitment secrets — the revoke_and_ack payloads accumulated as old
// commitments are retired. A channel could in principle just keep every
// secret it's ever been handed, but BOLT 3 specifies a shachain derivation
// precisely so a node doesn't have to: storing O(log N) of them is enough
// to re-derive any of the N secrets seen so far on demand.
type Store interface {
	// LookUp derives the previously stored secret for the given
	// commitment height, if it's derivable from what's on file.
	LookUp(uint64) (*chainhash.Hash, error)

	// AddNextEntry records a newly revealed secret. Secrets MUST be
	// added in the order a channel's counterparty actually reveals
	// them — each one only verifies against buckets consistent with
	// everything already stored.
	AddNextEntry(*chainhash.Hash) error

	// Encode serializes the store's current bucket state to w, for
	// persisting channel state to disk between restarts.
	Encode(io.Writer) error
}

// RevocationStore is the shachain-backed Store every channel in this module
// uses to track the remote party's revealed per-commitment secrets. Adding
// the Nth secret costs at most O(log N) derivations against what's already
// stored, and the whole store never holds more than maxHeight secrets
// regardless of how long the channel lives.
type RevocationStore struct {
	// lenBuckets is the number of buckets currently populated.
	lenBuckets uint8

	// buckets holds one commitmentSecret per distinct trailing-zero
	// count seen so far; every other secret the store has been handed
	// is derivable from one of these.
	buckets [maxHeight]commitmentSecret

	// index is the index the next AddNextEntry call is expected to
	// carry.
	index index
}

var _ Store = (*RevocationStore)(nil)

// NewRevocationStore creates an empty store, ready to accept the first
// revealed secret of a freshly opened channel.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		lenBuckets: 0,
		index:      startIndex,
	}
}

// NewRevocationStoreFromBytes reconstructs a store from the binary
// representation a prior Encode call produced.
func NewRevocationStoreFromBytes(r io.Reader) (*RevocationStore, error) {
	store := &RevocationStore{}

	if err := binary.Read(r, binary.BigEndian, &store.lenBuckets); err != nil {
		return nil, err
	}

	for i := uint8(0); i < store.lenBuckets; i++ {
		var hashIndex index
		if err := binary.Read(r, binary.BigEndian, &hashIndex); err != nil {
			return nil, err
		}

		var nextHash chainhash.Hash
		if _, err := io.ReadFull(r, nextHash[:]); err != nil {
			return nil, err
		}

		store.buckets[i] = commitmentSecret{
			index: hashIndex,
			hash:  nextHash,
		}
	}

	if err := binary.Read(r, binary.BigEndian, &store.index); err != nil {
		return nil, err
	}

	return store, nil
}

// LookUp derives the secret revealed at commitment height v from whichever
// stored bucket it descends from, failing if none of them derive it.
//
// NOTE: This function is part of the Store interface.
func (store *RevocationStore) LookUp(v uint64) (*chainhash.Hash, error) {
	target := newIndex(v)

	for i := uint8(0); i < store.lenBuckets; i++ {
		secret, err := store.buckets[i].derive(target)
		if err != nil {
			continue
		}

		return &secret.hash, nil
	}

	return nil, fmt.Errorf("unable to derive hash #%v", target)
}

// AddNextEntry records the next secret the counterparty revealed, checking
// it against every bucket it should be derivable from before accepting it —
// a counterparty that reveals a secret inconsistent with its own earlier
// revelations is violating the protocol, not just racing us.
//
// NOTE: This function is part of the Store interface.
func (store *RevocationStore) AddNextEntry(hash *chainhash.Hash) error {
	next := &commitmentSecret{index: store.index, hash: *hash}

	bucket := countTrailingZeros(next.index)

	for i := uint8(0); i < bucket; i++ {
		derived, err := next.derive(store.buckets[i].index)
		if err != nil {
			return err
		}

		if !derived.isEqual(&store.buckets[i]) {
			return errors.New("shachain: revealed secret is not " +
				"derivable from a previously stored one")
		}
	}

	store.buckets[bucket] = *next
	if bucket+1 > store.lenBuckets {
		store.lenBuckets = bucket + 1
	}

	store.index--
	return nil
}

// Encode serializes every populated bucket, in order, followed by the index
// the next AddNextEntry call must carry.
//
// NOTE: This function is part of the Store interface.
func (store *RevocationStore) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, store.lenBuckets); err != nil {
		return err
	}

	for i := uint8(0); i < store.lenBuckets; i++ {
		secret := store.buckets[i]

		if err := binary.Write(w, binary.BigEndian, secret.index); err != nil {
			return err
		}
		if _, err := w.Write(secret.hash[:]); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.BigEndian, store.index)
}
