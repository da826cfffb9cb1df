package lnwallet

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/lnchain/chancore/internal/input"
	"github.com/lnchain/chancore/lnwire"
	"github.com/lnchain/chancore/sphinx"
)

// testSigner is a minimal input.Signer backed by a fixed set of private
// keys, keyed by their compressed public key, so fixtures can exercise real
// signature production and verification without a wallet.
type testSigner struct {
	keys map[[33]byte]*btcec.PrivateKey
}

// newTestSigner builds a signer holding the private keys for the given
// newTestKey seeds.
func newTestSigner(seeds ...byte) *testSigner {
	s := &testSigner{keys: make(map[[33]byte]*btcec.PrivateKey)}
	for _, seed := range seeds {
		var b [32]byte
		b[31] = seed
		priv, pub := btcec.PrivKeyFromBytes(b[:])

		var k [33]byte
		copy(k[:], pub.SerializeCompressed())
		s.keys[k] = priv
	}
	return s
}

func (s *testSigner) SignOutputRaw(tx *wire.MsgTx,
	signDesc *input.SignDescriptor) ([]byte, error) {

	var k [33]byte
	copy(k[:], signDesc.KeyDesc.PubKey.SerializeCompressed())
	priv, ok := s.keys[k]
	if !ok {
		return nil, fmt.Errorf("test signer: unknown key")
	}

	if signDesc.SingleTweak != nil {
		priv = input.TweakPrivKey(priv, signDesc.SingleTweak)
	}

	hash, err := txscript.CalcWitnessSigHash(
		signDesc.WitnessScript, signDesc.SigHashes, signDesc.HashType,
		tx, signDesc.InputIndex, signDesc.Output.Value,
	)
	if err != nil {
		return nil, err
	}

	sig := ecdsa.Sign(priv, hash)
	return sig.Serialize(), nil
}

func (s *testSigner) ComputeInputScript(tx *wire.MsgTx,
	signDesc *input.SignDescriptor) (*input.Script, error) {

	return nil, fmt.Errorf("test signer: ComputeInputScript not implemented")
}

// newTestKey derives a deterministic public key from a single seed byte, so
// fixtures don't depend on randomness this package can't control in tests.
func newTestKey(seed byte) *btcec.PublicKey {
	var b [32]byte
	b[31] = seed
	_, pub := btcec.PrivKeyFromBytes(b[:])
	return pub
}

func newTestCommitments() *Commitments {
	localParams := &ChannelParams{
		DustLimit:      500,
		ChannelReserve: 10_000,
		ToSelfDelay:    144,
	}
	remoteParams := &ChannelParams{
		DustLimit:      500,
		ChannelReserve: 10_000,
		ToSelfDelay:    144,
	}
	localKeys := &ChannelKeys{
		FundingKey:          newTestKey(1),
		RevocationBasePoint: newTestKey(2),
		PaymentBasePoint:    newTestKey(3),
		DelayBasePoint:      newTestKey(4),
		HtlcBasePoint:       newTestKey(5),
	}
	remoteKeys := &ChannelKeys{
		FundingKey:          newTestKey(6),
		RevocationBasePoint: newTestKey(7),
		PaymentBasePoint:    newTestKey(8),
		DelayBasePoint:      newTestKey(9),
		HtlcBasePoint:       newTestKey(10),
	}

	return &Commitments{
		IsFunder:                 true,
		LocalParams:              localParams,
		RemoteParams:             remoteParams,
		LocalChannelPubkeys:      localKeys,
		RemoteChannelPubkeys:     remoteKeys,
		FundingOutpoint:          wire.OutPoint{Index: 0},
		FundingAmount:            10_000_000_000,
		LocalCommit:              commitment{Spec: baseSpec()},
		RemoteCommit:             commitment{Spec: baseSpec()},
		RemoteNextCommitInfo:     RemoteNextCommitInfo{State: RemoteCommitRevoked},
		OriginChannels:           make(map[uint64]Origin),
		Signer:                   newTestSigner(1, 5),
		LocalCommitSecretSeed:    chainhash.Hash{0xaa},
		RemoteNextPerCommitPoint: newTestKey(99),
		SphinxProc:               sphinx.MockProcessor{},
	}
}

// TestEngineSendFulfillPure checks that applying the same operation to the
// same Commitments twice yields equal results, and that the receiver itself
// is left untouched by either call.
func TestEngineSendFulfillPure(t *testing.T) {
	cm := newTestCommitments()

	var preimage [32]byte
	preimage[0] = 0x07
	hash := testHash(preimage)

	htlcID := uint64(1)
	cm.LocalCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Incoming,
		Amount:      100_000_000,
		PaymentHash: hash,
	}

	beforeProposed := len(cm.LocalChanges.proposed)

	next1, events1, err := SendFulfill(cm, htlcID, preimage)
	require.NoError(t, err)

	next2, events2, err := SendFulfill(cm, htlcID, preimage)
	require.NoError(t, err)

	require.Equal(t, next1, next2)
	require.Equal(t, events1, events2)

	// The receiver itself must be untouched by either call.
	require.Len(t, cm.LocalChanges.proposed, beforeProposed)
	require.Len(t, next1.LocalChanges.proposed, beforeProposed+1)
}

// TestEngineSendFulfillAlreadySentTakesPriorityOverBadPreimage checks that
// when an HTLC is both already resolved and given a wrong preimage
// argument, SendFulfill reports ErrHtlcAlreadySent rather than
// ErrInvalidPaymentPreimage, matching send_fulfill's mandated check order
// of unknown-id, then already-sent, then preimage validity.
func TestEngineSendFulfillAlreadySentTakesPriorityOverBadPreimage(t *testing.T) {
	cm := newTestCommitments()

	var preimage [32]byte
	preimage[0] = 0x07
	hash := testHash(preimage)

	htlcID := uint64(5)
	cm.LocalCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Incoming,
		Amount:      100_000_000,
		PaymentHash: hash,
	}
	cm.LocalChanges.proposed = []update{{
		Kind:     FulfillHTLC,
		ParentID: htlcID,
		Preimage: preimage,
	}}

	var wrongPreimage [32]byte
	wrongPreimage[0] = 0xff

	_, _, err := SendFulfill(cm, htlcID, wrongPreimage)
	require.ErrorIs(t, err, ErrHtlcAlreadySent)
}

// TestEngineSendFulfillThenReceiveFulfillRoundTrip checks that the fulfill
// one party stages with SendFulfill lands in the counterparty's
// RemoteChanges once they apply it via ReceiveFulfill against their mirrored
// view of the same HTLC.
func TestEngineSendFulfillThenReceiveFulfillRoundTrip(t *testing.T) {
	localCm := newTestCommitments()
	remoteCm := newTestCommitments()

	var preimage [32]byte
	preimage[0] = 0x08
	hash := testHash(preimage)

	htlcID := uint64(2)
	localCm.LocalCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Incoming,
		Amount:      100_000_000,
		PaymentHash: hash,
	}
	remoteCm.RemoteCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Outgoing,
		Amount:      100_000_000,
		PaymentHash: hash,
	}

	next, events, err := SendFulfill(localCm, htlcID, preimage)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, next.LocalChanges.proposed, 1)
	require.Empty(t, next.RemoteChanges.proposed)

	_, ok := events[0].(HtlcFulfilled)
	require.True(t, ok)

	remoteNext, _, err := ReceiveFulfill(remoteCm, htlcID, preimage)
	require.NoError(t, err)
	require.Len(t, remoteNext.RemoteChanges.proposed, 1)
	require.Empty(t, remoteNext.LocalChanges.proposed)
	require.Equal(t, preimage, remoteNext.RemoteChanges.proposed[0].Preimage)
}

// TestEngineReceiveCommitSignatureCountMismatch checks that receive_commit
// rejects a commitment_signed whose HtlcSigs count doesn't match the number
// of HTLC outputs the freshly reduced commitment actually carries, and
// leaves the Commitments it was given unchanged. The staged HTLC is well
// above both sides' dust limit, so the correct expected count is 1; the
// peer supplies none.
func TestEngineReceiveCommitSignatureCountMismatch(t *testing.T) {
	cm := newTestCommitments()
	cm.RemoteChanges.proposed = []update{{
		Kind: AddHTLC,
		Htlc: HTLC{
			ID:          1,
			Direction:   Incoming,
			Amount:      50_000_000,
			PaymentHash: testHash([32]byte{0x09}),
		},
	}}

	sig := lnwire.CommitSig{
		ChanID:   cm.ChannelID,
		HtlcSigs: []lnwire.Sig{},
	}

	_, _, err := ReceiveCommit(cm, sig)
	require.Error(t, err)

	var mismatch *SignatureCountMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 1, mismatch.Expected)
	require.Equal(t, 0, mismatch.Got)

	// cm must remain untouched: LocalCommit height unchanged, no ack
	// recorded against RemoteChanges.
	require.Equal(t, CommitmentNumber(0), cm.LocalCommit.CommitHeight)
	require.Len(t, cm.RemoteChanges.acked, 0)
}

// TestEngineSendFeeRejectedByFundee checks that only the funder may
// originate a fee update: SendFee on the fundee's Commitments fails with
// ErrApiMisuse.
func TestEngineSendFeeRejectedByFundee(t *testing.T) {
	cm := newTestCommitments()
	cm.IsFunder = false

	_, _, err := SendFee(cm, 20_000)
	require.ErrorIs(t, err, ErrApiMisuse)
}

// TestEngineSendFeeThenReceiveFeeRoundTrip checks that a fee update the
// funder stages with SendFee lands in the fundee's RemoteChanges once
// applied via ReceiveFee, rather than in the wrong party's log.
func TestEngineSendFeeThenReceiveFeeRoundTrip(t *testing.T) {
	funderCm := newTestCommitments()
	fundeeCm := newTestCommitments()
	fundeeCm.IsFunder = false

	const feeRate = 15_000

	next, events, err := SendFee(funderCm, feeRate)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, next.LocalChanges.proposed, 1)
	require.Empty(t, next.RemoteChanges.proposed)

	_, ok := events[0].(FeeUpdated)
	require.True(t, ok)

	fundeeNext, _, err := ReceiveFee(fundeeCm, feeRate)
	require.NoError(t, err)
	require.Len(t, fundeeNext.RemoteChanges.proposed, 1)
	require.Empty(t, fundeeNext.LocalChanges.proposed)
	require.Equal(t, uint64(feeRate), fundeeNext.RemoteChanges.proposed[0].FeeRate)
}

// TestEngineSendCommitThenReceiveCommitRoundTrip checks that the
// commitment_signed one party's send_commit produces — both the
// commitment signature and every HTLC signature — verifies cleanly when
// fed into the other party's mirrored receive_commit.
func TestEngineSendCommitThenReceiveCommitRoundTrip(t *testing.T) {
	localCm := newTestCommitments()

	remoteCm := newTestCommitments()
	remoteCm.IsFunder = false
	remoteCm.LocalChannelPubkeys = localCm.RemoteChannelPubkeys
	remoteCm.RemoteChannelPubkeys = localCm.LocalChannelPubkeys
	remoteCm.LocalParams = localCm.RemoteParams
	remoteCm.RemoteParams = localCm.LocalParams
	remoteCm.Signer = newTestSigner(6, 10)
	remoteCm.LocalCommitSecretSeed = chainhash.Hash{0xbb}

	remoteCommitPoint, err := remoteCm.localCommitPoint(1)
	require.NoError(t, err)
	localCm.RemoteNextPerCommitPoint = remoteCommitPoint

	htlc := HTLC{
		ID:          1,
		Direction:   Outgoing,
		Amount:      50_000_000,
		PaymentHash: testHash([32]byte{0x11}),
		CltvExpiry:  500_000,
	}
	// The remote party records the same HTLC as Incoming: it was offered
	// to them.
	remoteHtlc := htlc
	remoteHtlc.Direction = Incoming
	localCm.LocalChanges.proposed = []update{{Kind: AddHTLC, Htlc: htlc}}
	remoteCm.RemoteChanges.proposed = []update{{Kind: AddHTLC, Htlc: remoteHtlc}}

	_, events, err := SendCommit(localCm)
	require.NoError(t, err)
	require.Len(t, events, 1)

	sent, ok := events[0].(CommitSigSent)
	require.True(t, ok)

	_, _, err = ReceiveCommit(remoteCm, sent.Message)
	require.NoError(t, err)
}

// TestEngineReceiveRevocationAdvancesState checks that receive_revocation
// promotes RemoteNextCommitInfo from Waiting to Revoked and acks the local
// party's signed-but-unacked changes, without mutating the original cm.
func TestEngineReceiveRevocationAdvancesState(t *testing.T) {
	cm := newTestCommitments()
	pending := &commitment{Spec: baseSpec(), CommitHeight: 1}
	cm.RemoteNextCommitInfo = RemoteNextCommitInfo{
		State:      RemoteCommitWaiting,
		Commitment: pending,
	}

	next, events, err := ReceiveRevocation(cm, lnwire.RevokeAndAck{})
	require.NoError(t, err)
	require.Nil(t, events)
	require.True(t, next.RemoteNextCommitInfo.Revoked())
	require.Equal(t, CommitmentNumber(1), next.RemoteCommit.CommitHeight)

	// cm itself must remain in the waiting state.
	require.True(t, cm.RemoteNextCommitInfo.Waiting())
}

// TestEngineSendAddThenReceiveAddStageIntoOppositeLogs checks that
// SendAddHTLC stages into LocalChanges.proposed (carrying an Origin
// forward-routing hint) while ReceiveAddHTLC stages the mirrored HTLC into
// RemoteChanges.proposed on the other party's Commitments, and that both
// emit the update_add_htlc message a peer would transmit.
func TestEngineSendAddThenReceiveAddStageIntoOppositeLogs(t *testing.T) {
	localCm := newTestCommitments()
	remoteCm := newTestCommitments()

	htlc := HTLC{
		ID:          7,
		Amount:      25_000_000,
		PaymentHash: testHash([32]byte{0x22}),
		CltvExpiry:  600_000,
	}
	upstream := &Origin{ChanID: lnwire.ChannelID{0x01}, HtlcID: 3}

	next, events, err := SendAddHTLC(localCm, htlc, upstream)
	require.NoError(t, err)
	require.Len(t, events, 1)

	added, ok := events[0].(HtlcAdded)
	require.True(t, ok)
	require.Equal(t, Outgoing, added.Htlc.Direction)
	require.Equal(t, htlc.ID, added.Message.ID)

	require.Len(t, next.LocalChanges.proposed, 1)
	require.Equal(t, *upstream, next.OriginChannels[htlc.ID])
	require.Empty(t, localCm.LocalChanges.proposed)

	remoteNext, events, err := ReceiveAddHTLC(remoteCm, htlc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, remoteNext.RemoteChanges.proposed, 1)
	require.Equal(t, Incoming,
		remoteNext.RemoteChanges.proposed[0].Htlc.Direction)
}

// TestEngineSendFailCreatesThenForwards checks that SendFail resolves the
// onion shared secret via the configured sphinx.Processor and builds the
// update_fail_htlc reason from a fresh failure payload (Create) rather than
// carrying the caller's plaintext payload directly, and that a subsequent
// hop's SendFail with Forward wraps an already-encrypted reason instead of
// re-deriving it from scratch.
func TestEngineSendFailCreatesThenForwards(t *testing.T) {
	cm := newTestCommitments()

	htlcID := uint64(3)
	cm.LocalCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Incoming,
		Amount:      10_000_000,
		PaymentHash: testHash([32]byte{0x33}),
	}

	plaintext := []byte("temporary_channel_failure")
	next, events, err := SendFail(cm, htlcID, FailurePayload{Create: plaintext})
	require.NoError(t, err)
	require.Len(t, events, 1)

	failed, ok := events[0].(HtlcFailed)
	require.True(t, ok)
	require.NotEqual(t, plaintext, failed.Reason)
	require.Equal(t, failed.Reason, next.LocalChanges.proposed[0].FailReason)

	// A second hop forwarding this already-encrypted reason further
	// upstream wraps it with its own shared secret rather than treating
	// it as a fresh plaintext payload.
	upstreamCm := newTestCommitments()
	upstreamHtlcID := uint64(9)
	upstreamCm.LocalCommit.Spec.Htlcs[upstreamHtlcID] = HTLC{
		ID:          upstreamHtlcID,
		Direction:   Incoming,
		Amount:      10_000_000,
		PaymentHash: testHash([32]byte{0x44}),
	}

	_, fwdEvents, err := SendFail(upstreamCm, upstreamHtlcID,
		FailurePayload{Forward: failed.Reason})
	require.NoError(t, err)

	fwdFailed, ok := fwdEvents[0].(HtlcFailed)
	require.True(t, ok)
	require.NotEqual(t, failed.Reason, fwdFailed.Reason)
}

// TestEngineSendFailRejectsEmptyPayload checks that SendFail refuses to
// stage a failure when neither Forward nor Create is populated in the
// FailurePayload, rather than silently emitting an empty reason.
func TestEngineSendFailRejectsEmptyPayload(t *testing.T) {
	cm := newTestCommitments()

	htlcID := uint64(4)
	cm.LocalCommit.Spec.Htlcs[htlcID] = HTLC{
		ID:          htlcID,
		Direction:   Incoming,
		Amount:      5_000_000,
		PaymentHash: testHash([32]byte{0x55}),
	}

	_, _, err := SendFail(cm, htlcID, FailurePayload{})
	require.ErrorIs(t, err, ErrApiMisuse)
}
