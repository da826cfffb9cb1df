package forceclose

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchain/chancore/internal/input"
	"github.com/lnchain/chancore/internal/shachain"
	"github.com/lnchain/chancore/lnwallet"
)

// stubSigner satisfies input.Signer with a fixed, unverified signature. The
// recovery paths under test only care that a witness gets assembled in the
// right shape, not that it verifies against a real script interpreter.
type stubSigner struct{}

func (stubSigner) SignOutputRaw(tx *wire.MsgTx,
	signDesc *input.SignDescriptor) ([]byte, error) {

	return []byte{0x01, 0x02, 0x03}, nil
}

func (stubSigner) ComputeInputScript(tx *wire.MsgTx,
	signDesc *input.SignDescriptor) (*input.Script, error) {

	return &input.Script{}, nil
}

// newRevealedSecret derives the per-commitment secret a RevocationProducer
// rooted at root would reveal at height 0, and seeds a store that can look
// it back up, mirroring how a received revoke_and_ack populates
// RemotePerCommitmentSecrets.
func newRevealedSecret(t *testing.T, root chainhash.Hash) (*btcec.PublicKey, shachain.Store) {
	producer := shachain.NewRevocationProducer(root)

	secret, err := producer.AtIndex(0)
	require.NoError(t, err)

	store := shachain.NewRevocationStore()
	require.NoError(t, store.AddNextEntry(secret))

	_, point := btcec.PrivKeyFromBytes(secret[:])
	return point, store
}

func TestTryGetFundsFromRemoteCommitmentTxLatestPoint(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	localBase := newTestPub(1)
	remoteBase := newTestPub(2)

	commitPoint := newTestPub(3)
	obfuscator := lnwallet.CommitmentObscurer(localBase, remoteBase)

	localPaymentKey := input.TweakPubKey(localBase, commitPoint)
	toRemoteScript, err := input.CommitScriptUnencumbered(localPaymentKey)
	require.NoError(t, err)

	const height = lnwallet.CommitmentNumber(7)
	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 500_000, PkScript: toRemoteScript})
	require.NoError(t, lnwallet.SetStateNumHint(tx, height, obfuscator))

	params := RemoteCommitmentRecoveryParams{
		IsLocalFunder:            true,
		FundingOutpoint:          fundingOutpoint,
		LocalPaymentBasePoint:    localBase,
		RemotePaymentBasePoint:   remoteBase,
		Signer:                   stubSigner{},
		LatestRemoteCommitHeight: height,
		LatestRemoteCommitPoint:  commitPoint,
		DustLimit:                546,
	}

	builder, err := TryGetFundsFromRemoteCommitmentTx(params, tx)
	require.NoError(t, err)
	require.Len(t, builder.inputs, 1)
	require.Equal(t, int64(500_000), builder.inputs[0].Amount)

	builder.AddOutput(&wire.TxOut{Value: 499_000, PkScript: []byte{0x00}})
	sweep, err := builder.Finalize()
	require.NoError(t, err)
	require.Len(t, sweep.TxIn[0].Witness, 2)
}

func TestTryGetFundsFromRemoteCommitmentTxRevokedPoint(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	localBase := newTestPub(1)
	remoteBase := newTestPub(2)

	var root chainhash.Hash
	root[0] = 0x42
	commitPoint, store := newRevealedSecret(t, root)

	obfuscator := lnwallet.CommitmentObscurer(localBase, remoteBase)

	localPaymentKey := input.TweakPubKey(localBase, commitPoint)
	toRemoteScript, err := input.CommitScriptUnencumbered(localPaymentKey)
	require.NoError(t, err)

	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 250_000, PkScript: toRemoteScript})
	require.NoError(t, lnwallet.SetStateNumHint(tx, 0, obfuscator))

	params := RemoteCommitmentRecoveryParams{
		IsLocalFunder:              true,
		FundingOutpoint:            fundingOutpoint,
		LocalPaymentBasePoint:      localBase,
		RemotePaymentBasePoint:     remoteBase,
		Signer:                     stubSigner{},
		RemotePerCommitmentSecrets: store,
		LatestRemoteCommitHeight:   99,
		LatestRemoteCommitPoint:    newTestPub(9),
		DustLimit:                  546,
	}

	builder, err := TryGetFundsFromRemoteCommitmentTx(params, tx)
	require.NoError(t, err)
	require.Len(t, builder.inputs, 1)
}

func TestTryGetFundsFromRemoteCommitmentTxBelowDustLimit(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	localBase := newTestPub(1)
	remoteBase := newTestPub(2)
	commitPoint := newTestPub(3)

	obfuscator := lnwallet.CommitmentObscurer(localBase, remoteBase)

	const height = lnwallet.CommitmentNumber(1)
	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 1_000, PkScript: []byte{0xAB}})
	require.NoError(t, lnwallet.SetStateNumHint(tx, height, obfuscator))

	params := RemoteCommitmentRecoveryParams{
		IsLocalFunder:            true,
		FundingOutpoint:          fundingOutpoint,
		LocalPaymentBasePoint:    localBase,
		RemotePaymentBasePoint:   remoteBase,
		Signer:                   stubSigner{},
		LatestRemoteCommitHeight: height,
		LatestRemoteCommitPoint:  commitPoint,
		DustLimit:                546,
	}

	_, err := TryGetFundsFromRemoteCommitmentTx(params, tx)
	require.Error(t, err)

	var dust *BalanceBelowDustLimit
	require.ErrorAs(t, err, &dust)
}

func TestTryGetFundsFromLocalCommitmentTxSetsSequence(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	delayBase := newTestPub(4)
	revocationBase := newTestPub(5)
	commitPoint := newTestPub(6)

	delayKey := input.TweakPubKey(delayBase, commitPoint)
	revocationKey := input.DeriveRevocationPubkey(revocationBase, commitPoint)

	const toSelfDelay = uint16(144)
	toLocalScript, err := input.CommitScriptToSelf(
		uint32(toSelfDelay), delayKey, revocationKey,
	)
	require.NoError(t, err)
	pkScript, err := input.WitnessScriptHash(toLocalScript)
	require.NoError(t, err)

	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 900_000, PkScript: pkScript})
	require.NoError(t, lnwallet.SetStateNumHint(
		tx, 0, lnwallet.CommitmentObscurer(newTestPub(1), newTestPub(2)),
	))

	params := LocalCommitmentRecoveryParams{
		FundingOutpoint:           fundingOutpoint,
		LocalDelayBasePoint:       delayBase,
		RemoteRevocationBasePoint: revocationBase,
		Signer:                    stubSigner{},
		LocalCommitPoint:          commitPoint,
		ToSelfDelay:               toSelfDelay,
	}

	builder, err := TryGetFundsFromLocalCommitmentTx(params, tx)
	require.NoError(t, err)

	builder.AddOutput(&wire.TxOut{Value: 899_000, PkScript: []byte{0x00}})
	sweep, err := builder.Finalize()
	require.NoError(t, err)
	require.Equal(t, uint32(toSelfDelay), sweep.TxIn[0].Sequence)
}

func TestCreatePenaltyTxSweepsBothOutputs(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	localPaymentBase := newTestPub(1)
	remotePaymentBase := newTestPub(2)
	remoteDelayBase := newTestPub(3)
	localRevocationBase := newTestPub(4)

	localRevocationPriv, _ := btcec.PrivKeyFromBytes(
		[]byte{
			1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
			1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		},
	)

	var root chainhash.Hash
	root[0] = 0x99
	commitPoint, store := newRevealedSecret(t, root)

	localPaymentKey := input.TweakPubKey(localPaymentBase, commitPoint)
	toRemoteScript, err := input.CommitScriptUnencumbered(localPaymentKey)
	require.NoError(t, err)

	remoteDelayKey := input.TweakPubKey(remoteDelayBase, commitPoint)
	revocationKey := input.DeriveRevocationPubkey(localRevocationBase, commitPoint)
	const remoteToSelfDelay = uint16(144)
	toLocalScript, err := input.CommitScriptToSelf(
		uint32(remoteToSelfDelay), remoteDelayKey, revocationKey,
	)
	require.NoError(t, err)
	toLocalPkScript, err := input.WitnessScriptHash(toLocalScript)
	require.NoError(t, err)

	obfuscator := lnwallet.CommitmentObscurer(localPaymentBase, remotePaymentBase)
	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 300_000, PkScript: toRemoteScript})
	tx.AddTxOut(&wire.TxOut{Value: 700_000, PkScript: toLocalPkScript})
	require.NoError(t, lnwallet.SetStateNumHint(tx, 0, obfuscator))

	params := PenaltyRecoveryParams{
		RemoteCommitmentRecoveryParams: RemoteCommitmentRecoveryParams{
			IsLocalFunder:              true,
			FundingOutpoint:            fundingOutpoint,
			LocalPaymentBasePoint:      localPaymentBase,
			RemotePaymentBasePoint:     remotePaymentBase,
			Signer:                     stubSigner{},
			RemotePerCommitmentSecrets: store,
			DustLimit:                  546,
		},
		RemoteDelayBasePoint:      remoteDelayBase,
		LocalRevocationBasePoint:  localRevocationBase,
		LocalRevocationBaseSecret: localRevocationPriv,
		RemoteToSelfDelay:         remoteToSelfDelay,
	}

	builder, err := CreatePenaltyTx(params, tx, 0)
	require.NoError(t, err)
	require.Len(t, builder.inputs, 2)

	builder.AddOutput(&wire.TxOut{Value: 999_000, PkScript: []byte{0x00}})
	sweep, err := builder.Finalize()
	require.NoError(t, err)
	require.Len(t, sweep.TxIn, 2)
}

// TestCreatePenaltyTxCandidateOrderIsValueThenScript checks that
// bip69OutputOrder ranks outputs by value first, not by script bytes
// alone: a lexically later script paired with a smaller value must still
// sort ahead of a lexically earlier script carrying a larger value.
func TestCreatePenaltyTxCandidateOrderIsValueThenScript(t *testing.T) {
	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})

	// Index 0 carries the lexically smaller script but the larger value;
	// a script-only sort would rank it first, but BIP 69 ranks it second.
	tx.AddTxOut(&wire.TxOut{Value: 700_000, PkScript: []byte{0x01}})
	tx.AddTxOut(&wire.TxOut{Value: 300_000, PkScript: []byte{0x02}})

	order := bip69OutputOrder(tx)
	require.Equal(t, []int{1, 0}, order)
}

func TestCreatePenaltyTxNoSpendableOutputs(t *testing.T) {
	fundingOutpoint := wire.OutPoint{Index: 0}
	localPaymentBase := newTestPub(1)
	remotePaymentBase := newTestPub(2)

	var root chainhash.Hash
	root[0] = 0x77
	_, store := newRevealedSecret(t, root)

	obfuscator := lnwallet.CommitmentObscurer(localPaymentBase, remotePaymentBase)
	tx := wire.NewMsgTx(TxVersionNumberOfCommitmentTxs)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})
	tx.AddTxOut(&wire.TxOut{Value: 100, PkScript: []byte{0xEE}})
	require.NoError(t, lnwallet.SetStateNumHint(tx, 0, obfuscator))

	_, err := CreatePenaltyTx(PenaltyRecoveryParams{
		RemoteCommitmentRecoveryParams: RemoteCommitmentRecoveryParams{
			IsLocalFunder:              true,
			FundingOutpoint:            fundingOutpoint,
			LocalPaymentBasePoint:      localPaymentBase,
			RemotePaymentBasePoint:     remotePaymentBase,
			Signer:                     stubSigner{},
			RemotePerCommitmentSecrets: store,
			DustLimit:                  546,
		},
		RemoteDelayBasePoint:     newTestPub(3),
		LocalRevocationBasePoint: newTestPub(4),
		RemoteToSelfDelay:        144,
	}, tx, 0)
	require.Error(t, err)

	var dust *BalanceBelowDustLimit
	require.ErrorAs(t, err, &dust)
}
