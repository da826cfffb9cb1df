package lnwallet

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
)

const (
	// StateHintSize is the total number of bytes used between the
	// sequence number and locktime of the commitment transaction to
	// encode a hint to the state number of a particular commitment
	// transaction.
	StateHintSize = 6

	// maxStateHint is the maximum state number encodable using
	// StateHintSize bytes split across the sequence and locktime fields.
	maxStateHint uint64 = (1 << 48) - 1

	// TimelockShift tags the locktime field of a commitment transaction
	// so that it's interpreted as an absolute Unix timestamp (it's always
	// above 500,000,000) rather than a block height, while remaining
	// comfortably below any current wall-clock time, preventing the
	// commitment transaction from ever being rejected by that rule. This
	// leaves the locktime's lower 24 bits free to carry obscured state.
	TimelockShift = uint32(1 << 29)
)

// CommitmentNumber is a 48-bit monotonically increasing counter identifying
// one of a channel's successive commitment transactions.
type CommitmentNumber uint64

// ObscuredCommitmentNumber is a CommitmentNumber with the 48-bit obscurer
// XOR'd in, ready to be split across a commitment transaction's locktime
// and sequence fields.
type ObscuredCommitmentNumber uint64

// CommitmentObscurer derives the 48-bit value both parties XOR into their
// commitment numbers before embedding them on-chain, computed from the
// lower 48 bits of sha256(payment_basepoint_initiator ||
// payment_basepoint_responder).
func CommitmentObscurer(initiatorPayment,
	responderPayment *btcec.PublicKey) [StateHintSize]byte {

	hasher := sha256.New()
	hasher.Write(initiatorPayment.SerializeCompressed())
	hasher.Write(responderPayment.SerializeCompressed())
	h := hasher.Sum(nil)

	var obfuscator [StateHintSize]byte
	copy(obfuscator[:], h[len(h)-StateHintSize:])

	return obfuscator
}

// ObscureCommitNumber XORs a commitment number with the channel's
// obfuscator, producing the value that's embedded into the on-chain
// transaction's locktime/sequence fields.
func ObscureCommitNumber(number CommitmentNumber,
	obfuscator [StateHintSize]byte) ObscuredCommitmentNumber {

	return ObscuredCommitmentNumber(uint64(number) ^ obfuscatorUint64(obfuscator))
}

// UnobscureCommitNumber reverses ObscureCommitNumber.
func UnobscureCommitNumber(obscured ObscuredCommitmentNumber,
	obfuscator [StateHintSize]byte) CommitmentNumber {

	return CommitmentNumber(uint64(obscured) ^ obfuscatorUint64(obfuscator))
}

func obfuscatorUint64(obfuscator [StateHintSize]byte) uint64 {
	var padded [8]byte
	copy(padded[2:], obfuscator[:])
	return binary.BigEndian.Uint64(padded[:])
}

// SetStateNumHint encodes number within commitTx's locktime and sequence
// fields after XOR'ing it against obfuscator, per the normative embedding in
// §6: the sequence's low 24 bits hold the high half tagged with
// wire.SequenceLockTimeDisabled, the locktime's low 24 bits hold the low
// half tagged with TimelockShift.
func SetStateNumHint(commitTx *wire.MsgTx, number CommitmentNumber,
	obfuscator [StateHintSize]byte) error {

	if uint64(number) > maxStateHint {
		return fmt.Errorf("commitment number %d exceeds max of %d",
			number, maxStateHint)
	}
	if len(commitTx.TxIn) != 1 {
		return fmt.Errorf("commitment tx must have exactly one "+
			"input, has %d", len(commitTx.TxIn))
	}

	obscured := ObscureCommitNumber(number, obfuscator)

	commitTx.TxIn[0].Sequence = uint32(obscured>>24) |
		wire.SequenceLockTimeDisabled
	commitTx.LockTime = uint32(obscured&0xFFFFFF) | TimelockShift

	return nil
}

// GetStateNumHint recovers the commitment number previously embedded by
// SetStateNumHint.
func GetStateNumHint(commitTx *wire.MsgTx,
	obfuscator [StateHintSize]byte) CommitmentNumber {

	obscured := ObscuredCommitmentNumber(
		uint64(commitTx.TxIn[0].Sequence&0xFFFFFF)<<24 |
			uint64(commitTx.LockTime&0xFFFFFF),
	)

	return UnobscureCommitNumber(obscured, obfuscator)
}
