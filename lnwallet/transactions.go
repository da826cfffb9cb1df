package lnwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchain/chancore/internal/input"
)

// htlcSecondLevelInputSequence is the relative-locktime sequence value used
// on the single input of every second-level HTLC transaction. These
// transactions spend directly off an as-yet-unconfirmed commitment output,
// so no relative lock applies at this level; the delay is enforced by the
// second-level output's script instead.
const htlcSecondLevelInputSequence = 0

// NewHtlcSuccessTx creates the second-level transaction that spends the
// output on the commitment transaction of the peer that receives an HTLC.
// This transaction acts as an off-chain covenant: it's only permitted to
// spend the designated HTLC output, and can only be used to create another
// output that itself allows redemption (with the preimage) or revocation of
// the HTLC.
//
// In order to spend the HTLC output, the witness for the passed transaction
// should be:
//   * <0> <sender sig> <recvr sig> <preimage>
func NewHtlcSuccessTx(htlcOutput wire.OutPoint, htlcAmt int64, csvDelay uint32,
	revocationKey, delayKey *btcec.PublicKey) (*wire.MsgTx, error) {

	successTx := wire.NewMsgTx(2)

	successTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: htlcOutput,
		Sequence:         htlcSecondLevelInputSequence,
	})

	witnessScript, err := input.SecondLevelHtlcScript(
		revocationKey, delayKey, csvDelay,
	)
	if err != nil {
		return nil, err
	}
	pkScript, err := input.WitnessScriptHash(witnessScript)
	if err != nil {
		return nil, err
	}

	successTx.AddTxOut(&wire.TxOut{
		Value:    htlcAmt,
		PkScript: pkScript,
	})

	return successTx, nil
}

// NewHtlcTimeoutTx creates the second-level transaction that spends the
// HTLC output on the commitment transaction of the peer that offered the
// HTLC. This is a 2-of-2 multisig output requiring a signature from both
// parties; the timeout transaction is locked with an absolute locktime so
// the offering party can only claim it on-chain once the expiry has passed.
//
// In order to spend the HTLC output, the witness for the passed transaction
// should be:
// * <0> <sender sig> <receiver sig> <0>
func NewHtlcTimeoutTx(htlcOutput wire.OutPoint, htlcAmt int64,
	cltvExpiry, csvDelay uint32,
	revocationKey, delayKey *btcec.PublicKey) (*wire.MsgTx, error) {

	timeoutTx := wire.NewMsgTx(2)
	timeoutTx.LockTime = cltvExpiry

	timeoutTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: htlcOutput,
		Sequence:         htlcSecondLevelInputSequence,
	})

	witnessScript, err := input.SecondLevelHtlcScript(
		revocationKey, delayKey, csvDelay,
	)
	if err != nil {
		return nil, err
	}
	pkScript, err := input.WitnessScriptHash(witnessScript)
	if err != nil {
		return nil, err
	}

	timeoutTx.AddTxOut(&wire.TxOut{
		Value:    htlcAmt,
		PkScript: pkScript,
	})

	return timeoutTx, nil
}
