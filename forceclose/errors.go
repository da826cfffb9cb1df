package forceclose

import "fmt"

// InvalidCommitmentTxReason tags why a purported commitment transaction
// failed validate_commitment_tx's shape check.
type InvalidCommitmentTxReason uint8

const (
	// WrongTxVersion means the transaction's version field didn't match
	// TxVersionNumberOfCommitmentTxs.
	WrongTxVersion InvalidCommitmentTxReason = iota

	// NoInputs means the transaction has no inputs at all.
	NoInputs

	// MultipleInputs means the transaction has more than the single
	// input every commitment transaction is constructed with.
	MultipleInputs

	// WrongPrevOut means the transaction's lone input doesn't reference
	// the channel's funding outpoint.
	WrongPrevOut

	// BadLocktimeSequence means the transaction's locktime and sequence
	// fields aren't tagged the way SetStateNumHint embeds an obscured
	// commitment number.
	BadLocktimeSequence
)

func (r InvalidCommitmentTxReason) String() string {
	switch r {
	case WrongTxVersion:
		return "wrong tx version"
	case NoInputs:
		return "no inputs"
	case MultipleInputs:
		return "multiple inputs"
	case WrongPrevOut:
		return "wrong prevout"
	case BadLocktimeSequence:
		return "bad locktime/sequence tagging"
	default:
		return "unknown"
	}
}

// InvalidCommitmentTx is returned by ValidateCommitmentTx when the
// candidate transaction doesn't have the shape every commitment
// transaction is required to have.
type InvalidCommitmentTx struct {
	Reason InvalidCommitmentTxReason

	// Got carries the malformed value at fault, when Reason names one
	// (the tx version for WrongTxVersion, the input count for
	// NoInputs/MultipleInputs).
	Got int
}

func (e *InvalidCommitmentTx) Error() string {
	return fmt.Sprintf("invalid commitment tx: %s (got %d)",
		e.Reason, e.Got)
}

// CommitmentNumberFromTheFuture is returned when a broadcast commitment
// transaction's obscured number doesn't match any commitment number this
// party knows the per-commitment point or secret for.
type CommitmentNumberFromTheFuture struct {
	CommitHeight CommitmentNumber
}

func (e *CommitmentNumberFromTheFuture) Error() string {
	return fmt.Sprintf("commitment tx at height %d is from the future, "+
		"no matching per-commitment point or secret is known",
		e.CommitHeight)
}

// BalanceBelowDustLimit is returned when the output this party is entitled
// to sweep from a broadcast commitment transaction can't be found, because
// it was never created (its value fell below the dust limit).
type BalanceBelowDustLimit struct {
	DustLimit uint64
}

func (e *BalanceBelowDustLimit) Error() string {
	return fmt.Sprintf("no recoverable output above dust limit %d",
		e.DustLimit)
}
