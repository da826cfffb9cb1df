package lnwallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchain/chancore/internal/input"
	"github.com/lnchain/chancore/lnwire"
)

// fundingWitnessScript and fundingOutput recreate, from the two funding
// keys and the channel capacity, the 2-of-2 witness script and p2wsh output
// that both commitment transactions' single input spends.
func fundingWitnessScript(localFundingKey, remoteFundingKey *btcec.PublicKey,
	capacity int64) ([]byte, *wire.TxOut, error) {

	return input.GenFundingPkScript(
		localFundingKey.SerializeCompressed(),
		remoteFundingKey.SerializeCompressed(),
		capacity,
	)
}

// signCommitTx produces this party's signature over commitTx's single
// funding input, authorizing the counterparty to broadcast it.
func signCommitTx(signer input.Signer, localFundingKey *btcec.PublicKey,
	witnessScript []byte, fundingOutput *wire.TxOut,
	commitTx *wire.MsgTx) (lnwire.Sig, error) {

	signDesc := &input.SignDescriptor{
		KeyDesc:       keyDescFor(localFundingKey),
		WitnessScript: witnessScript,
		Output:        fundingOutput,
		HashType:      txscript.SigHashAll,
		SigHashes: txscript.NewTxSigHashes(
			commitTx, txscript.NewCannedPrevOutputFetcher(
				fundingOutput.PkScript, fundingOutput.Value,
			),
		),
		InputIndex: 0,
	}

	der, err := signer.SignOutputRaw(commitTx, signDesc)
	if err != nil {
		return lnwire.Sig{}, err
	}

	return toWireSig(der)
}

// verifyCommitSig checks the counterparty's signature over commitTx's
// funding input against their raw (untweaked) funding key.
func verifyCommitSig(remoteFundingKey *btcec.PublicKey, witnessScript []byte,
	fundingOutput *wire.TxOut, commitTx *wire.MsgTx, sig lnwire.Sig) error {

	hash, err := txscript.CalcWitnessSigHash(
		witnessScript, txscript.NewTxSigHashes(
			commitTx, txscript.NewCannedPrevOutputFetcher(
				fundingOutput.PkScript, fundingOutput.Value,
			),
		),
		txscript.SigHashAll, commitTx, 0, fundingOutput.Value,
	)
	if err != nil {
		return err
	}

	parsed, err := ecdsa.ParseDERSignature(toDERSignature(sig))
	if err != nil {
		return err
	}

	if !parsed.Verify(hash, remoteFundingKey) {
		return ErrInvalidCommitSig
	}

	return nil
}

// signHtlcTxs signs every second-level HTLC transaction in htlcs with this
// party's HTLC base point, tweaked against commitPoint — the key role
// commitment_signed.htlc_signatures always carries on the non-owner side of
// a commitment, regardless of any one HTLC's offered/received role.
func signHtlcTxs(signer input.Signer, localHtlcBasePoint, commitPoint *btcec.PublicKey,
	commitTx *wire.MsgTx, htlcs []*wire.MsgTx,
	witnessScripts [][]byte) ([]lnwire.Sig, error) {

	tweak := input.SingleTweakBytes(commitPoint, localHtlcBasePoint)

	sigs := make([]lnwire.Sig, len(htlcs))
	for i, htlcTx := range htlcs {
		outputIndex := htlcTx.TxIn[0].PreviousOutPoint.Index

		signDesc := &input.SignDescriptor{
			KeyDesc:       keyDescFor(localHtlcBasePoint),
			SingleTweak:   tweak,
			WitnessScript: witnessScripts[i],
			Output:        commitTx.TxOut[outputIndex],
			HashType:      txscript.SigHashAll,
			SigHashes: txscript.NewTxSigHashes(
				htlcTx, txscript.NewCannedPrevOutputFetcher(
					commitTx.TxOut[outputIndex].PkScript,
					commitTx.TxOut[outputIndex].Value,
				),
			),
			InputIndex: 0,
		}

		der, err := signer.SignOutputRaw(htlcTx, signDesc)
		if err != nil {
			return nil, err
		}

		sig, err := toWireSig(der)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}

	return sigs, nil
}

// verifyHtlcSigs checks the counterparty's per-HTLC signatures against their
// HTLC base point tweaked at commitPoint, collecting every failure rather
// than stopping at the first so the caller can report them all at once.
func verifyHtlcSigs(remoteHtlcBasePoint, commitPoint *btcec.PublicKey,
	commitTx *wire.MsgTx, htlcs []*wire.MsgTx, witnessScripts [][]byte,
	sigs []lnwire.Sig) map[int]error {

	key := input.TweakPubKey(remoteHtlcBasePoint, commitPoint)

	failures := make(map[int]error)
	for i, htlcTx := range htlcs {
		outputIndex := htlcTx.TxIn[0].PreviousOutPoint.Index
		amt := commitTx.TxOut[outputIndex].Value

		hash, err := txscript.CalcWitnessSigHash(
			witnessScripts[i], txscript.NewTxSigHashes(
				htlcTx, txscript.NewCannedPrevOutputFetcher(
					commitTx.TxOut[outputIndex].PkScript, amt,
				),
			),
			txscript.SigHashAll, htlcTx, 0, amt,
		)
		if err != nil {
			failures[i] = err
			continue
		}

		parsed, err := ecdsa.ParseDERSignature(toDERSignature(sigs[i]))
		if err != nil {
			failures[i] = err
			continue
		}

		if !parsed.Verify(hash, key) {
			failures[i] = ErrInvalidHtlcSig
		}
	}

	return failures
}
