package input

import (
	"github.com/btcsuite/btcd/wire"
)

// Script is the witness (and, for nested p2sh, the sigScript) required to
// spend a particular output.
type Script struct {
	// Witness is the full witness stack required to unlock this output.
	Witness wire.TxWitness

	// SigScript will only be populated if this is an input script sweeping
	// a nested p2sh output.
	SigScript []byte
}

// Signer represents an abstract object capable of generating raw signatures
// as well as full witnesses given a valid SignDescriptor and the transaction
// to be signed.
type Signer interface {
	// SignOutputRaw generates a DER-encoded ECDSA signature, without the
	// trailing sighash-type byte, for the passed transaction according to
	// the data within the passed SignDescriptor.
	SignOutputRaw(tx *wire.MsgTx,
		signDesc *SignDescriptor) ([]byte, error)

	// ComputeInputScript generates a complete InputScript for the passed
	// transaction with the signature as defined within the passed
	// SignDescriptor. This method is only capable of generating scripts
	// for the regular singly keyed inputs, for multi-sig and other
	// contract scripts use SignOutputRaw and the witness generator
	// functions.
	ComputeInputScript(tx *wire.MsgTx,
		signDesc *SignDescriptor) (*Script, error)
}
