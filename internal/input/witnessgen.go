package input

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// WitnessGenerator produces the final witness for a particular input of a
// sweep transaction, given the transaction it's being added to, the
// transaction's cached sighash midstate, and the input's own index.
// forceclose.SpendableOutput binds one of these to whichever
// CommitSpend*/*HtlcSpend* function actually matches the output being
// recovered, rather than dispatching on a witness-type tag: each recovery
// path already knows exactly which spend path applies.
type WitnessGenerator func(tx *wire.MsgTx, hc *txscript.TxSigHashes,
	inputIndex int) (wire.TxWitness, error)
