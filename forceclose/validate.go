package forceclose

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchain/chancore/lnwallet"
)

// CommitmentNumber re-exports lnwallet's commitment-number type so callers
// of this package never need to import lnwallet just to read one back from
// ValidateCommitmentTx.
type CommitmentNumber = lnwallet.CommitmentNumber

// TxVersionNumberOfCommitmentTxs is the transaction version every
// commitment transaction is constructed with; a broadcast transaction
// carrying any other version cannot be one.
const TxVersionNumberOfCommitmentTxs = 2

// ValidateCommitmentTx checks that tx has the shape required of any
// commitment transaction descending from fundingOutpoint, and recovers the
// obscured commitment number embedded in its locktime and sequence fields.
// It does not unobscure the number — the caller supplies the obfuscator,
// derived from both parties' payment basepoints, once it knows which
// channel this transaction belongs to.
func ValidateCommitmentTx(fundingOutpoint wire.OutPoint,
	tx *wire.MsgTx) (lnwallet.ObscuredCommitmentNumber, error) {

	if tx.Version != TxVersionNumberOfCommitmentTxs {
		return 0, &InvalidCommitmentTx{
			Reason: WrongTxVersion,
			Got:    int(tx.Version),
		}
	}

	switch len(tx.TxIn) {
	case 0:
		return 0, &InvalidCommitmentTx{Reason: NoInputs, Got: 0}
	case 1:
	default:
		return 0, &InvalidCommitmentTx{
			Reason: MultipleInputs,
			Got:    len(tx.TxIn),
		}
	}

	if tx.TxIn[0].PreviousOutPoint != fundingOutpoint {
		return 0, &InvalidCommitmentTx{Reason: WrongPrevOut}
	}

	sequence := tx.TxIn[0].Sequence
	locktime := tx.LockTime

	if sequence>>24 != wire.SequenceLockTimeDisabled>>24 {
		return 0, &InvalidCommitmentTx{Reason: BadLocktimeSequence}
	}
	if locktime>>24 != lnwallet.TimelockShift>>24 {
		return 0, &InvalidCommitmentTx{Reason: BadLocktimeSequence}
	}

	obscured := lnwallet.ObscuredCommitmentNumber(
		uint64(sequence&0xFFFFFF)<<24 | uint64(locktime&0xFFFFFF),
	)

	return obscured, nil
}
