package forceclose

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchain/chancore/lnwallet"
)

func newTestPub(seed byte) *btcec.PublicKey {
	var b [32]byte
	b[31] = seed
	_, pub := btcec.PrivKeyFromBytes(b[:])
	return pub
}

func newValidCommitmentTx(fundingOutpoint wire.OutPoint,
	height lnwallet.CommitmentNumber,
	obfuscator [lnwallet.StateHintSize]byte) *wire.MsgTx {

	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 1_000_000, PkScript: []byte{0x00}})

	if err := lnwallet.SetStateNumHint(tx, height, obfuscator); err != nil {
		panic(err)
	}

	return tx
}

// TestValidateCommitmentTxRoundTrip checks that a commitment transaction's
// obscured state number, once validated, unobscures back to the height it
// was embedded with.
func TestValidateCommitmentTxRoundTrip(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	obfuscator := lnwallet.CommitmentObscurer(newTestPub(1), newTestPub(2))

	const height = lnwallet.CommitmentNumber(42)
	tx := newValidCommitmentTx(fundingOutpoint, height, obfuscator)

	obscured, err := ValidateCommitmentTx(fundingOutpoint, tx)
	require.NoError(t, err)

	got := lnwallet.UnobscureCommitNumber(obscured, obfuscator)
	require.Equal(t, height, got)
}

// TestValidateCommitmentTxWrongVersion checks that a transaction with any
// version other than 2 is rejected outright, before its inputs or locktime
// fields are even inspected.
func TestValidateCommitmentTxWrongVersion(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	obfuscator := lnwallet.CommitmentObscurer(newTestPub(1), newTestPub(2))

	tx := newValidCommitmentTx(fundingOutpoint, 0, obfuscator)
	tx.Version = 1

	_, err := ValidateCommitmentTx(fundingOutpoint, tx)
	require.Error(t, err)

	var invalid *InvalidCommitmentTx
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, WrongTxVersion, invalid.Reason)
	require.Equal(t, 1, invalid.Got)
}

// TestValidateCommitmentTxWrongPrevOut checks that a transaction whose
// single input doesn't spend the expected funding outpoint is rejected.
func TestValidateCommitmentTxWrongPrevOut(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	otherOutpoint := wire.OutPoint{Index: 1}
	obfuscator := lnwallet.CommitmentObscurer(newTestPub(1), newTestPub(2))

	tx := newValidCommitmentTx(otherOutpoint, 0, obfuscator)

	_, err := ValidateCommitmentTx(fundingOutpoint, tx)
	require.Error(t, err)

	var invalid *InvalidCommitmentTx
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, WrongPrevOut, invalid.Reason)
}

// TestValidateCommitmentTxMultipleInputs checks that a transaction with more
// than one input can never be mistaken for a commitment transaction.
func TestValidateCommitmentTxMultipleInputs(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	obfuscator := lnwallet.CommitmentObscurer(newTestPub(1), newTestPub(2))

	tx := newValidCommitmentTx(fundingOutpoint, 0, obfuscator)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 2}})

	_, err := ValidateCommitmentTx(fundingOutpoint, tx)
	require.Error(t, err)

	var invalid *InvalidCommitmentTx
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, MultipleInputs, invalid.Reason)
	require.Equal(t, 2, invalid.Got)
}
