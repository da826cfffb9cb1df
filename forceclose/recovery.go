package forceclose

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/txsort"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchain/chancore/internal/input"
	"github.com/lnchain/chancore/internal/keychain"
	"github.com/lnchain/chancore/internal/shachain"
	"github.com/lnchain/chancore/lnwallet"
)

// SpendableOutput bundles everything needed to add one recovered output as
// an input to a sweep transaction: its value, its coordinates on the
// broadcast commitment transaction, and a witness generation closure
// already bound to the keys that satisfy it.
type SpendableOutput struct {
	Amount      int64
	Outpoint    wire.OutPoint
	WitnessFunc input.WitnessGenerator
}

// RecoveryTxBuilder assembles a transaction that sweeps one or more
// SpendableOutputs recovered from a broadcast commitment transaction into
// outputs the caller controls. Mirroring the one-sided construction a
// force-close sweep needs, it does not sign anything itself — each
// SpendableOutput carries its own witness generator, invoked by Finalize
// once every input and output is in place.
type RecoveryTxBuilder struct {
	version  int32
	inputs   []SpendableOutput
	outputs  []*wire.TxOut
}

// NewRecoveryTxBuilder starts a builder for a transaction of the given
// version, pre-seeded with coin, the output this party is immediately
// entitled to recover.
func NewRecoveryTxBuilder(version int32, coin SpendableOutput) *RecoveryTxBuilder {
	return &RecoveryTxBuilder{
		version: version,
		inputs:  []SpendableOutput{coin},
	}
}

// AddInput adds another recovered output to be swept by the same
// transaction, e.g. the revoked to_local output alongside to_remote in a
// penalty sweep.
func (b *RecoveryTxBuilder) AddInput(coin SpendableOutput) {
	b.inputs = append(b.inputs, coin)
}

// AddOutput appends a destination output; the caller is responsible for
// sizing it (total input value minus fee).
func (b *RecoveryTxBuilder) AddOutput(out *wire.TxOut) {
	b.outputs = append(b.outputs, out)
}

// Finalize assembles the transaction, invoking each input's witness
// generator in turn, and returns the fully signed sweep transaction.
func (b *RecoveryTxBuilder) Finalize() (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(b.version)

	for _, in := range b.inputs {
		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: in.Outpoint})
	}
	for _, out := range b.outputs {
		tx.AddTxOut(out)
	}

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(b.inputs))
	for _, in := range b.inputs {
		prevOuts[in.Outpoint] = &wire.TxOut{Value: in.Amount}
	}
	hashCache := txscript.NewTxSigHashes(
		tx, txscript.NewMultiPrevOutFetcher(prevOuts),
	)

	for i, in := range b.inputs {
		witness, err := in.WitnessFunc(tx, hashCache, i)
		if err != nil {
			return nil, err
		}
		tx.TxIn[i].Witness = witness
	}

	return tx, nil
}

// RemoteCommitmentRecoveryParams collects the keys and chain state needed
// to recover funds from a commitment transaction the remote party
// broadcast.
type RemoteCommitmentRecoveryParams struct {
	IsLocalFunder bool

	FundingOutpoint wire.OutPoint

	LocalPaymentBasePoint  *btcec.PublicKey
	RemotePaymentBasePoint *btcec.PublicKey

	// Signer produces the actual signatures over the recovered outputs;
	// it owns the private keys matching LocalPaymentBasePoint and
	// friends, indexed via the KeyDescriptor each SignDescriptor names.
	Signer input.Signer

	// RemotePerCommitmentSecrets is the shachain store of every
	// per-commitment secret the remote party has revealed so far.
	RemotePerCommitmentSecrets shachain.Store

	// LatestRemoteCommitHeight and LatestRemoteCommitPoint describe the
	// newest remote commitment this party has a per-commitment point
	// for, even though no secret has been revealed for it yet (it may
	// not be revoked).
	LatestRemoteCommitHeight lnwallet.CommitmentNumber
	LatestRemoteCommitPoint  *btcec.PublicKey

	DustLimit uint64
}

// TryGetFundsFromRemoteCommitmentTx recovers this party's to_remote output
// from a commitment transaction the remote party broadcast, deriving the
// payment key at whichever per-commitment point produced it — either a
// revealed (and therefore revoked) secret, or the latest known point if the
// broadcast is simply the remote party's newest valid commitment.
func TryGetFundsFromRemoteCommitmentTx(p RemoteCommitmentRecoveryParams,
	tx *wire.MsgTx) (*RecoveryTxBuilder, error) {

	obscured, err := ValidateCommitmentTx(p.FundingOutpoint, tx)
	if err != nil {
		return nil, err
	}

	obfuscator := lnwallet.CommitmentObscurer(
		funderFirst(p.IsLocalFunder, p.LocalPaymentBasePoint,
			p.RemotePaymentBasePoint),
		funderSecond(p.IsLocalFunder, p.LocalPaymentBasePoint,
			p.RemotePaymentBasePoint),
	)
	height := lnwallet.UnobscureCommitNumber(obscured, obfuscator)

	commitPoint, err := resolveRemoteCommitPoint(p, height)
	if err != nil {
		return nil, err
	}

	localPaymentKey := input.TweakPubKey(
		p.LocalPaymentBasePoint, commitPoint,
	)
	toRemoteScript, err := input.CommitScriptUnencumbered(localPaymentKey)
	if err != nil {
		return nil, err
	}

	found, index := input.FindScriptOutputIndex(tx, toRemoteScript)
	if !found {
		return nil, &BalanceBelowDustLimit{DustLimit: p.DustLimit}
	}

	outpoint := wire.OutPoint{Hash: tx.TxHash(), Index: index}

	tweak := input.SingleTweakBytes(commitPoint, p.LocalPaymentBasePoint)
	signDesc := &input.SignDescriptor{
		KeyDesc: keyDescFor(p.LocalPaymentBasePoint),
		SingleTweak:  tweak,
		Output:       tx.TxOut[index],
		HashType:     txscript.SigHashAll,
	}

	coin := SpendableOutput{
		Amount:   tx.TxOut[index].Value,
		Outpoint: outpoint,
		WitnessFunc: func(sweepTx *wire.MsgTx, hc *txscript.TxSigHashes,
			inputIndex int) (wire.TxWitness, error) {

			desc := *signDesc
			desc.SigHashes = hc
			desc.InputIndex = inputIndex
			return input.CommitSpendNoDelay(p.Signer, &desc, sweepTx)
		},
	}

	return NewRecoveryTxBuilder(TxVersionNumberOfCommitmentTxs, coin), nil
}

// resolveRemoteCommitPoint returns the per-commitment point at height,
// either by rederiving it from a revealed (revoked) secret, or, if height
// is the latest known remote commitment, the point already on file for it.
func resolveRemoteCommitPoint(p RemoteCommitmentRecoveryParams,
	height lnwallet.CommitmentNumber) (*btcec.PublicKey, error) {

	if height == p.LatestRemoteCommitHeight {
		return p.LatestRemoteCommitPoint, nil
	}

	secret, err := p.RemotePerCommitmentSecrets.LookUp(uint64(height))
	if err != nil || secret == nil {
		return nil, &CommitmentNumberFromTheFuture{CommitHeight: height}
	}

	_, pub := btcec.PrivKeyFromBytes(secret[:])
	return pub, nil
}

// LocalCommitmentRecoveryParams collects the keys needed to recover funds
// from this party's own broadcast commitment transaction, once its
// to_self_delay has matured.
type LocalCommitmentRecoveryParams struct {
	FundingOutpoint wire.OutPoint

	LocalDelayBasePoint       *btcec.PublicKey
	RemoteRevocationBasePoint *btcec.PublicKey

	Signer input.Signer

	LocalCommitPoint *btcec.PublicKey

	ToSelfDelay uint16
}

// TryGetFundsFromLocalCommitmentTx recovers the to_local_delayed output
// from this party's own broadcast commitment transaction. The returned
// output's witness generator sets the sweep input's TxIn.Sequence to
// ToSelfDelay: the output is encumbered by a relative timelock that only
// matures after that many blocks have passed since the commitment
// transaction confirmed.
func TryGetFundsFromLocalCommitmentTx(p LocalCommitmentRecoveryParams,
	tx *wire.MsgTx) (*RecoveryTxBuilder, error) {

	if _, err := ValidateCommitmentTx(p.FundingOutpoint, tx); err != nil {
		return nil, err
	}

	delayKey := input.TweakPubKey(p.LocalDelayBasePoint, p.LocalCommitPoint)
	revocationKey := input.DeriveRevocationPubkey(
		p.RemoteRevocationBasePoint, p.LocalCommitPoint,
	)

	toLocalScript, err := input.CommitScriptToSelf(
		uint32(p.ToSelfDelay), delayKey, revocationKey,
	)
	if err != nil {
		return nil, err
	}
	pkScript, err := input.WitnessScriptHash(toLocalScript)
	if err != nil {
		return nil, err
	}

	found, index := input.FindScriptOutputIndex(tx, pkScript)
	if !found {
		return nil, &BalanceBelowDustLimit{}
	}

	tweak := input.SingleTweakBytes(p.LocalCommitPoint, p.LocalDelayBasePoint)
	signDesc := &input.SignDescriptor{
		KeyDesc:       keyDescFor(p.LocalDelayBasePoint),
		SingleTweak:   tweak,
		WitnessScript: toLocalScript,
		Output:        tx.TxOut[index],
		HashType:      txscript.SigHashAll,
	}

	coin := SpendableOutput{
		Amount:   tx.TxOut[index].Value,
		Outpoint: wire.OutPoint{Hash: tx.TxHash(), Index: index},
		WitnessFunc: func(sweepTx *wire.MsgTx, hc *txscript.TxSigHashes,
			inputIndex int) (wire.TxWitness, error) {

			if sweepTx.TxIn[inputIndex].Sequence != uint32(p.ToSelfDelay) {
				sweepTx.TxIn[inputIndex].Sequence = uint32(p.ToSelfDelay)
			}

			desc := *signDesc
			desc.SigHashes = hc
			desc.InputIndex = inputIndex
			return input.CommitSpendTimeout(p.Signer, &desc, sweepTx)
		},
	}

	return NewRecoveryTxBuilder(TxVersionNumberOfCommitmentTxs, coin), nil
}

// PenaltyRecoveryParams collects the keys needed to sweep both outputs of a
// revoked remote commitment transaction once its per-commitment secret has
// been revealed.
type PenaltyRecoveryParams struct {
	RemoteCommitmentRecoveryParams

	RemoteDelayBasePoint     *btcec.PublicKey
	LocalRevocationBasePoint *btcec.PublicKey
	LocalRevocationBaseSecret *btcec.PrivateKey

	RemoteToSelfDelay uint16
}

// CreatePenaltyTx assembles a builder that sweeps every output above the
// remote party's dust limit from a revoked remote commitment transaction:
// the to_remote output (regular payment key, as in
// TryGetFundsFromRemoteCommitmentTx) and, when present, the to_local output
// (swept with the revocation private key derived from the revealed
// per-commitment secret). Outputs are discovered in canonical BIP 69 order
// (value, then script) over the transaction's outputs.
func CreatePenaltyTx(p PenaltyRecoveryParams, tx *wire.MsgTx,
	revokedHeight lnwallet.CommitmentNumber) (*RecoveryTxBuilder, error) {

	secret, err := p.RemotePerCommitmentSecrets.LookUp(uint64(revokedHeight))
	if err != nil || secret == nil {
		return nil, &CommitmentNumberFromTheFuture{CommitHeight: revokedHeight}
	}
	commitPrivKey, point := btcec.PrivKeyFromBytes(secret[:])

	candidates := bip69OutputOrder(tx)

	localPaymentKey := input.TweakPubKey(p.LocalPaymentBasePoint, point)
	toRemoteScript, err := input.CommitScriptUnencumbered(localPaymentKey)
	if err != nil {
		return nil, err
	}

	remoteDelayKey := input.TweakPubKey(p.RemoteDelayBasePoint, point)
	revocationKey := input.DeriveRevocationPubkey(
		p.LocalRevocationBasePoint, point,
	)
	toLocalScript, err := input.CommitScriptToSelf(
		uint32(p.RemoteToSelfDelay), remoteDelayKey, revocationKey,
	)
	if err != nil {
		return nil, err
	}
	toLocalPkScript, err := input.WitnessScriptHash(toLocalScript)
	if err != nil {
		return nil, err
	}

	var builder *RecoveryTxBuilder

	for _, idx := range candidates {
		out := tx.TxOut[idx]
		if out.Value <= 0 || uint64(out.Value) < p.DustLimit {
			continue
		}

		switch {
		case bytes.Equal(out.PkScript, toRemoteScript):
			tweak := input.SingleTweakBytes(point, p.LocalPaymentBasePoint)
			signDesc := &input.SignDescriptor{
				KeyDesc:      keyDescFor(p.LocalPaymentBasePoint),
				SingleTweak:  tweak,
				Output:       out,
				HashType:     txscript.SigHashAll,
			}
			coin := SpendableOutput{
				Amount:   out.Value,
				Outpoint: wire.OutPoint{Hash: tx.TxHash(), Index: uint32(idx)},
				WitnessFunc: func(sweepTx *wire.MsgTx,
					hc *txscript.TxSigHashes, inputIndex int) (wire.TxWitness, error) {

					desc := *signDesc
					desc.SigHashes = hc
					desc.InputIndex = inputIndex
					return input.CommitSpendNoDelay(p.Signer, &desc, sweepTx)
				},
			}
			builder = appendCoin(builder, coin)

		case bytes.Equal(out.PkScript, toLocalPkScript):
			revocationPriv := input.DeriveRevocationPrivKey(
				p.LocalRevocationBaseSecret, commitPrivKey,
			)
			signDesc := &input.SignDescriptor{
				KeyDesc:       keyDescFor(p.LocalRevocationBasePoint),
				DoubleTweak:   revocationPriv,
				WitnessScript: toLocalScript,
				Output:        out,
				HashType:      txscript.SigHashAll,
			}
			coin := SpendableOutput{
				Amount:   out.Value,
				Outpoint: wire.OutPoint{Hash: tx.TxHash(), Index: uint32(idx)},
				WitnessFunc: func(sweepTx *wire.MsgTx,
					hc *txscript.TxSigHashes, inputIndex int) (wire.TxWitness, error) {

					desc := *signDesc
					desc.SigHashes = hc
					desc.InputIndex = inputIndex
					return input.CommitSpendRevoke(p.Signer, &desc, sweepTx)
				},
			}
			builder = appendCoin(builder, coin)
		}
	}

	if builder == nil {
		return nil, &BalanceBelowDustLimit{DustLimit: p.DustLimit}
	}

	return builder, nil
}

// bip69OutputOrder returns the indices of tx.TxOut in canonical BIP 69
// order, without disturbing tx itself: the broadcast commitment
// transaction's own output indices (used to build each SpendableOutput's
// Outpoint) have to stay exactly as they appear on-chain. It sorts a
// detached copy with txsort.InPlaceSort, then maps each sorted output back
// to an original index carrying the same value and script, queueing
// duplicates in their original relative order.
func bip69OutputOrder(tx *wire.MsgTx) []int {
	type outKey struct {
		value    int64
		pkScript string
	}

	byKey := make(map[outKey][]int, len(tx.TxOut))
	for i, out := range tx.TxOut {
		k := outKey{out.Value, string(out.PkScript)}
		byKey[k] = append(byKey[k], i)
	}

	sorted := tx.Copy()
	txsort.InPlaceSort(sorted)

	order := make([]int, 0, len(sorted.TxOut))
	for _, out := range sorted.TxOut {
		k := outKey{out.Value, string(out.PkScript)}
		queue := byKey[k]
		order = append(order, queue[0])
		byKey[k] = queue[1:]
	}

	return order
}

func appendCoin(b *RecoveryTxBuilder, coin SpendableOutput) *RecoveryTxBuilder {
	if b == nil {
		return NewRecoveryTxBuilder(TxVersionNumberOfCommitmentTxs, coin)
	}
	b.AddInput(coin)
	return b
}

// keyDescFor wraps a raw public key as a KeyDescriptor carrying no
// KeyLocator, the form input.Signer implementations accept when the
// caller already knows the exact key rather than needing it derived by
// family/index.
func keyDescFor(pub *btcec.PublicKey) keychain.KeyDescriptor {
	return keychain.KeyDescriptor{PubKey: pub}
}

func funderFirst(isLocalFunder bool, local, remote *btcec.PublicKey) *btcec.PublicKey {
	if isLocalFunder {
		return local
	}
	return remote
}

func funderSecond(isLocalFunder bool, local, remote *btcec.PublicKey) *btcec.PublicKey {
	if isLocalFunder {
		return remote
	}
	return local
}
