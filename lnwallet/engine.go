package lnwallet

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnchain/chancore/internal/lntypes"
	"github.com/lnchain/chancore/internal/shachain"
	"github.com/lnchain/chancore/lnwire"
)

// ChannelEvent is the tagged union of observable effects an engine
// operation can produce alongside the Commitments it returns. Callers
// switch on the concrete type to decide what, if anything, to surface
// upstream (a forwarded fulfill, a failure to relay, a new signature to
// transmit).
type ChannelEvent interface {
	isChannelEvent()
}

// HtlcAdded is emitted when an add_htlc is staged, carrying the
// update_add_htlc message the caller must send (SendAddHTLC) or the one
// just received (ReceiveAddHTLC).
type HtlcAdded struct {
	Htlc    HTLC
	Message lnwire.UpdateAddHTLC
}

// HtlcFulfilled is emitted when a fulfill is staged or applied, carrying
// the update_fulfill_htlc message.
type HtlcFulfilled struct {
	HtlcID   uint64
	Preimage [32]byte
	Origin   *Origin
	Message  lnwire.UpdateFulfillHTLC
}

// HtlcFailed is emitted when a fail is staged or applied, carrying the
// update_fail_htlc message.
type HtlcFailed struct {
	HtlcID  uint64
	Reason  []byte
	Origin  *Origin
	Message lnwire.UpdateFailHTLC
}

// HtlcFailedMalformed is emitted when a fail_malformed is staged or
// applied, carrying the update_fail_malformed_htlc message.
type HtlcFailedMalformed struct {
	HtlcID      uint64
	FailureCode uint16
	Origin      *Origin
	Message     lnwire.UpdateFailMalformedHTLC
}

// FeeUpdated is emitted when a fee update is staged or applied, carrying
// the update_fee message.
type FeeUpdated struct {
	FeeRatePerKw uint64
	Message      lnwire.UpdateFee
}

// CommitSigSent is emitted by SendCommit, carrying the message to
// transmit to the counterparty.
type CommitSigSent struct {
	Message lnwire.CommitSig
}

// RevocationReceived is emitted by ReceiveCommit, carrying the message to
// transmit back to the counterparty once its own commitment has been
// revoked in response.
type RevocationReceived struct {
	Message lnwire.RevokeAndAck
}

func (HtlcAdded) isChannelEvent()           {}
func (HtlcFulfilled) isChannelEvent()       {}
func (HtlcFailed) isChannelEvent()          {}
func (HtlcFailedMalformed) isChannelEvent() {}
func (FeeUpdated) isChannelEvent()          {}
func (CommitSigSent) isChannelEvent()       {}
func (RevocationReceived) isChannelEvent()  {}

// badonionBit marks a failure code as belonging to the BADONION class: the
// onion packet itself couldn't be processed, so the failure must travel
// back unencrypted rather than wrapped for the origin node alone.
const badonionBit = 0x8000

// lookupHtlc finds htlcID among spec's HTLCs, or reports it missing.
func lookupHtlc(spec CommitmentSpec, htlcID uint64) (HTLC, bool) {
	htlc, ok := spec.Htlcs[htlcID]
	return htlc, ok
}

// SendAddHTLC stages a new HTLC this party offers to the counterparty. When
// the HTLC continues a payment forwarded from an upstream channel, origin
// records where it came from so a later fulfill or fail on this channel can
// be routed back; for an HTLC this party originates itself, origin is nil.
func SendAddHTLC(cm *Commitments, htlc HTLC,
	origin *Origin) (*Commitments, []ChannelEvent, error) {

	htlc.Direction = Outgoing

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.withProposed(update{
		Kind: AddHTLC,
		Htlc: htlc,
	})
	if origin != nil {
		next.OriginChannels[htlc.ID] = *origin
	}

	msg := lnwire.UpdateAddHTLC{
		ChanID:      cm.ChannelID,
		ID:          htlc.ID,
		Amount:      htlc.Amount,
		PaymentHash: htlc.PaymentHash,
		Expiry:      htlc.CltvExpiry,
		OnionBlob:   htlc.OnionBlob,
	}

	return next, []ChannelEvent{HtlcAdded{Htlc: htlc, Message: msg}}, nil
}

// ReceiveAddHTLC applies an update_add_htlc the counterparty has proposed,
// staging it against the changes they will later ask us to cross-sign.
func ReceiveAddHTLC(cm *Commitments,
	htlc HTLC) (*Commitments, []ChannelEvent, error) {

	htlc.Direction = Incoming

	next := cm.clone()
	next.RemoteChanges = cm.RemoteChanges.withProposed(update{
		Kind: AddHTLC,
		Htlc: htlc,
	})

	msg := lnwire.UpdateAddHTLC{
		ChanID:      cm.ChannelID,
		ID:          htlc.ID,
		Amount:      htlc.Amount,
		PaymentHash: htlc.PaymentHash,
		Expiry:      htlc.CltvExpiry,
		OnionBlob:   htlc.OnionBlob,
	}

	return next, []ChannelEvent{HtlcAdded{Htlc: htlc, Message: msg}}, nil
}

// SendFulfill stages a preimage settling htlcID, an HTLC this party
// received, validating it against the HTLC's payment hash before staging
// it. The update is appended to LocalChanges.proposed: it's an update this
// party originates, staged against the log the remote party will later
// acknowledge.
func SendFulfill(cm *Commitments, htlcID uint64,
	preimage [32]byte) (*Commitments, []ChannelEvent, error) {

	htlc, ok := lookupHtlc(cm.LocalCommit.Spec, htlcID)
	if !ok {
		return nil, nil, ErrUnknownHtlcID
	}

	if cm.LocalChanges.isAlreadySent(htlcID) {
		return nil, nil, ErrHtlcAlreadySent
	}

	if !lntypes.Preimage(preimage).Matches(htlc.PaymentHash) {
		return nil, nil, ErrInvalidPaymentPreimage
	}

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.withProposed(update{
		Kind:     FulfillHTLC,
		ParentID: htlcID,
		Preimage: preimage,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFulfillHTLC{
		ChanID:          cm.ChannelID,
		ID:              htlcID,
		PaymentPreimage: lntypes.Preimage(preimage),
	}

	events := []ChannelEvent{HtlcFulfilled{
		HtlcID:   htlcID,
		Preimage: preimage,
		Origin:   originPtr,
		Message:  msg,
	}}

	return next, events, nil
}

// ReceiveFulfill applies a fulfill the remote party has proposed against an
// HTLC we offered them, staging it into RemoteChanges so it's reflected the
// next time we reduce the remote party's spec.
func ReceiveFulfill(cm *Commitments, htlcID uint64,
	preimage [32]byte) (*Commitments, []ChannelEvent, error) {

	htlc, ok := lookupHtlc(cm.RemoteCommit.Spec, htlcID)
	if !ok {
		return nil, nil, ErrUnknownHtlcID
	}

	if !lntypes.Preimage(preimage).Matches(htlc.PaymentHash) {
		return nil, nil, ErrInvalidPaymentPreimage
	}

	next := cm.clone()
	next.RemoteChanges = cm.RemoteChanges.withProposed(update{
		Kind:     FulfillHTLC,
		ParentID: htlcID,
		Preimage: preimage,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFulfillHTLC{
		ChanID:          cm.ChannelID,
		ID:              htlcID,
		PaymentPreimage: lntypes.Preimage(preimage),
	}

	events := []ChannelEvent{HtlcFulfilled{
		HtlcID:   htlcID,
		Preimage: preimage,
		Origin:   originPtr,
		Message:  msg,
	}}

	return next, events, nil
}

// FailurePayload selects how SendFail builds the onion-encrypted reason
// carried by update_fail_htlc: exactly one of its fields must be set.
// Forward wraps an already-encrypted failure this party received while
// forwarding a payment further downstream, adding this hop's own layer of
// encryption. Create originates a fresh failure, encrypting a plaintext
// failure payload this party is producing itself (e.g. insufficient local
// balance to forward further).
type FailurePayload struct {
	Forward []byte
	Create  []byte
}

// SendFail stages an onion-encrypted failure resolving htlcID, an HTLC this
// party received. It recovers the per-hop shared secret for htlcID's onion
// packet via cm.SphinxProc.ParsePacket, then builds the reason from
// payload: ForwardErrorPacket if this hop is relaying a downstream failure,
// CreateErrorPacket if this hop is originating the failure itself.
func SendFail(cm *Commitments, htlcID uint64,
	payload FailurePayload) (*Commitments, []ChannelEvent, error) {

	htlc, ok := lookupHtlc(cm.LocalCommit.Spec, htlcID)
	if !ok {
		return nil, nil, ErrUnknownHtlcID
	}
	if cm.LocalChanges.isAlreadySent(htlcID) {
		return nil, nil, ErrHtlcAlreadySent
	}

	var hash [32]byte
	copy(hash[:], htlc.PaymentHash[:])

	ss, err := cm.SphinxProc.ParsePacket(
		cm.NodeSecret, hash, htlc.OnionBlob[:],
	)
	if err != nil {
		return nil, nil, &CryptoError{Err: err}
	}

	var reason []byte
	switch {
	case payload.Forward != nil:
		reason = cm.SphinxProc.ForwardErrorPacket(payload.Forward, ss)
	case payload.Create != nil:
		reason = cm.SphinxProc.CreateErrorPacket(ss, payload.Create)
	default:
		return nil, nil, ErrApiMisuse
	}

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.withProposed(update{
		Kind:       FailHTLC,
		ParentID:   htlcID,
		FailReason: reason,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFailHTLC{
		ChanID: cm.ChannelID,
		ID:     htlcID,
		Reason: reason,
	}

	return next, []ChannelEvent{HtlcFailed{
		HtlcID:  htlcID,
		Reason:  reason,
		Origin:  originPtr,
		Message: msg,
	}}, nil
}

// ReceiveFail applies a fail the remote party has proposed against an HTLC
// we offered them, staging it into RemoteChanges. The onion-encrypted
// reason is opaque to this party unless it happens to be this HTLC's
// origin; relaying it further upstream is a job for that upstream
// channel's own SendFail with a Forward payload.
func ReceiveFail(cm *Commitments, htlcID uint64,
	reason []byte) (*Commitments, []ChannelEvent, error) {

	if _, ok := lookupHtlc(cm.RemoteCommit.Spec, htlcID); !ok {
		return nil, nil, ErrUnknownHtlcID
	}

	next := cm.clone()
	next.RemoteChanges = cm.RemoteChanges.withProposed(update{
		Kind:       FailHTLC,
		ParentID:   htlcID,
		FailReason: reason,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFailHTLC{
		ChanID: cm.ChannelID,
		ID:     htlcID,
		Reason: reason,
	}

	return next, []ChannelEvent{HtlcFailed{
		HtlcID:  htlcID,
		Reason:  reason,
		Origin:  originPtr,
		Message: msg,
	}}, nil
}

// SendFailMalformed stages a failure for an HTLC whose onion packet itself
// couldn't be parsed, so the failure carries a raw code rather than an
// onion-encrypted blob.
func SendFailMalformed(cm *Commitments, htlcID uint64,
	failureCode uint16) (*Commitments, []ChannelEvent, error) {

	if failureCode&badonionBit == 0 {
		return nil, nil, ErrInvalidFailureCode
	}
	htlc, ok := lookupHtlc(cm.LocalCommit.Spec, htlcID)
	if !ok {
		return nil, nil, ErrUnknownHtlcID
	}
	if cm.LocalChanges.isAlreadySent(htlcID) {
		return nil, nil, ErrHtlcAlreadySent
	}

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.withProposed(update{
		Kind:        FailMalformedHTLC,
		ParentID:    htlcID,
		FailureCode: failureCode,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFailMalformedHTLC{
		ChanID:       cm.ChannelID,
		ID:           htlcID,
		ShaOnionBlob: sha256.Sum256(htlc.OnionBlob[:]),
		FailureCode:  failureCode,
	}

	return next, []ChannelEvent{HtlcFailedMalformed{
		HtlcID:      htlcID,
		FailureCode: failureCode,
		Origin:      originPtr,
		Message:     msg,
	}}, nil
}

// ReceiveFailMalformed applies a fail_malformed the remote party proposed,
// staging it into RemoteChanges.
func ReceiveFailMalformed(cm *Commitments, htlcID uint64,
	failureCode uint16) (*Commitments, []ChannelEvent, error) {

	if failureCode&badonionBit == 0 {
		return nil, nil, ErrInvalidFailureCode
	}
	htlc, ok := lookupHtlc(cm.RemoteCommit.Spec, htlcID)
	if !ok {
		return nil, nil, ErrUnknownHtlcID
	}

	next := cm.clone()
	next.RemoteChanges = cm.RemoteChanges.withProposed(update{
		Kind:        FailMalformedHTLC,
		ParentID:    htlcID,
		FailureCode: failureCode,
	})

	o, hasOrigin := cm.OriginChannels[htlcID]
	var originPtr *Origin
	if hasOrigin {
		originPtr = &o
	}

	msg := lnwire.UpdateFailMalformedHTLC{
		ChanID:       cm.ChannelID,
		ID:           htlcID,
		ShaOnionBlob: sha256.Sum256(htlc.OnionBlob[:]),
		FailureCode:  failureCode,
	}

	return next, []ChannelEvent{HtlcFailedMalformed{
		HtlcID:      htlcID,
		FailureCode: failureCode,
		Origin:      originPtr,
		Message:     msg,
	}}, nil
}

// checkUpdateFee verifies that a proposed fee rate is affordable: after
// applying it, reduced.to_remote must still clear remote_params.channel_
// reserve plus the resulting commitment fee.
func checkUpdateFee(cm *Commitments, feeRatePerKw uint64,
	spec CommitmentSpec) error {

	trial := spec
	trial.FeeRatePerKw = feeRatePerKw

	fee := commitTxFee(cm.RemoteParams.DustLimit, trial)
	reserveSat := cm.RemoteParams.ChannelReserve

	toRemoteSat := trial.ToRemoteMsat / 1000
	need := reserveSat + fee
	if toRemoteSat < need {
		return &CannotAffordFeeError{
			Reserve: reserveSat,
			Fee:     fee,
			Missing: need - toRemoteSat,
		}
	}

	return nil
}

// SendFee stages a new commitment feerate. Only the funder may originate
// update_fee.
func SendFee(cm *Commitments, feeRatePerKw uint64) (*Commitments, []ChannelEvent, error) {
	if !cm.IsFunder {
		return nil, nil, ErrApiMisuse
	}

	if err := checkUpdateFee(cm, feeRatePerKw, cm.RemoteCommit.Spec); err != nil {
		return nil, nil, err
	}

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.withProposed(update{
		Kind:    FeeUpdate,
		FeeRate: feeRatePerKw,
	})

	msg := lnwire.UpdateFee{ChanID: cm.ChannelID, FeePerKw: uint32(feeRatePerKw)}

	return next, []ChannelEvent{FeeUpdated{
		FeeRatePerKw: feeRatePerKw,
		Message:      msg,
	}}, nil
}

// ReceiveFee applies a fee rate the remote funder has proposed, staging it
// into RemoteChanges.
func ReceiveFee(cm *Commitments, feeRatePerKw uint64) (*Commitments, []ChannelEvent, error) {
	if cm.IsFunder {
		return nil, nil, ErrApiMisuse
	}

	if err := checkUpdateFee(cm, feeRatePerKw, cm.LocalCommit.Spec); err != nil {
		return nil, nil, err
	}

	next := cm.clone()
	next.RemoteChanges = cm.RemoteChanges.withProposed(update{
		Kind:    FeeUpdate,
		FeeRate: feeRatePerKw,
	})

	msg := lnwire.UpdateFee{ChanID: cm.ChannelID, FeePerKw: uint32(feeRatePerKw)}

	return next, []ChannelEvent{FeeUpdated{
		FeeRatePerKw: feeRatePerKw,
		Message:      msg,
	}}, nil
}

// SendCommit reduces the remote party's next spec from their last acked
// baseline plus our newly proposed changes, signs it, and advances our
// bookkeeping to reflect an outstanding, unrevoked remote commitment:
// LocalChanges.proposed moves into signed, and RemoteChanges.acked moves
// into signed, both now baked into the commitment just signed. It refuses
// to run again until that commitment is revoked.
func SendCommit(cm *Commitments) (*Commitments, []ChannelEvent, error) {
	if cm.RemoteNextCommitInfo.Waiting() {
		return nil, nil, ErrCannotSignBeforeRevocation
	}

	nextSpec, err := Reduce(
		cm.RemoteCommit.Spec,
		cm.RemoteChanges.acked,
		cm.LocalChanges.proposed,
		cm.IsFunder,
		cm.RemoteParams.DustLimit,
		cm.RemoteParams.ChannelReserve,
	)
	if err != nil {
		return nil, nil, err
	}

	nextHeight := cm.RemoteCommit.CommitHeight + 1
	commitPoint := cm.RemoteNextPerCommitPoint
	nextRemoteCommit, err := newCommitment(
		nextHeight, nextSpec, cm.FundingOutpoint, cm.obfuscator(),
		commitPoint, cm.RemoteChannelPubkeys, cm.LocalChannelPubkeys,
		false, cm.RemoteParams.ToSelfDelay, cm.RemoteParams.DustLimit,
	)
	if err != nil {
		return nil, nil, err
	}

	witnessScript, fundingOutput, err := fundingWitnessScript(
		cm.LocalChannelPubkeys.FundingKey, cm.RemoteChannelPubkeys.FundingKey,
		cm.FundingAmount,
	)
	if err != nil {
		return nil, nil, err
	}

	commitSig, err := signCommitTx(
		cm.Signer, cm.LocalChannelPubkeys.FundingKey, witnessScript,
		fundingOutput, nextRemoteCommit.CommitTx,
	)
	if err != nil {
		return nil, nil, err
	}

	htlcSigs, err := signHtlcTxs(
		cm.Signer, cm.LocalChannelPubkeys.HtlcBasePoint, commitPoint,
		nextRemoteCommit.CommitTx, nextRemoteCommit.Htlcs,
		nextRemoteCommit.HtlcWitnessScripts,
	)
	if err != nil {
		return nil, nil, err
	}

	nextRemoteCommit.CommitSig = commitSig[:]
	htlcSigBytes := make([][]byte, len(htlcSigs))
	for i, s := range htlcSigs {
		htlcSigBytes[i] = s[:]
	}
	nextRemoteCommit.HtlcSigs = htlcSigBytes

	next := cm.clone()
	next.LocalChanges = cm.LocalChanges.commitProposed()
	next.RemoteChanges = cm.RemoteChanges.commitAcked()
	next.RemoteNextCommitInfo = RemoteNextCommitInfo{
		State:      RemoteCommitWaiting,
		Commitment: nextRemoteCommit,
	}

	msg := lnwire.CommitSig{
		ChanID:    cm.ChannelID,
		CommitSig: commitSig,
		HtlcSigs:  htlcSigs,
	}

	return next, []ChannelEvent{CommitSigSent{Message: msg}}, nil
}

// ReceiveCommit accepts the counterparty's commitment_signed, reducing our
// own next local commitment from our last acked baseline plus their newly
// proposed changes, and checks that exactly one HTLC signature accompanies
// each HTLC output in the canonical sorted order.
func ReceiveCommit(cm *Commitments,
	sig lnwire.CommitSig) (*Commitments, []ChannelEvent, error) {

	if len(cm.RemoteChanges.proposed) == 0 {
		return nil, nil, ErrReceivedCommitmentSignedWhenWeHaveNoPendingChanges
	}

	nextSpec, err := Reduce(
		cm.LocalCommit.Spec,
		cm.LocalChanges.acked,
		cm.RemoteChanges.proposed,
		!cm.IsFunder,
		cm.LocalParams.DustLimit,
		cm.LocalParams.ChannelReserve,
	)
	if err != nil {
		return nil, nil, err
	}

	nextHeight := cm.LocalCommit.CommitHeight + 1
	commitPoint, err := cm.localCommitPoint(nextHeight)
	if err != nil {
		return nil, nil, err
	}

	nextLocalCommit, err := newCommitment(
		nextHeight, nextSpec, cm.FundingOutpoint, cm.obfuscator(),
		commitPoint, cm.LocalChannelPubkeys, cm.RemoteChannelPubkeys,
		true, cm.LocalParams.ToSelfDelay, cm.LocalParams.DustLimit,
	)
	if err != nil {
		return nil, nil, err
	}

	if len(sig.HtlcSigs) != len(nextLocalCommit.Htlcs) {
		return nil, nil, &SignatureCountMismatchError{
			Expected: len(nextLocalCommit.Htlcs),
			Got:      len(sig.HtlcSigs),
		}
	}

	witnessScript, fundingOutput, err := fundingWitnessScript(
		cm.LocalChannelPubkeys.FundingKey, cm.RemoteChannelPubkeys.FundingKey,
		cm.FundingAmount,
	)
	if err != nil {
		return nil, nil, err
	}

	if err := verifyCommitSig(
		cm.RemoteChannelPubkeys.FundingKey, witnessScript, fundingOutput,
		nextLocalCommit.CommitTx, sig.CommitSig,
	); err != nil {
		return nil, nil, err
	}

	if failures := verifyHtlcSigs(
		cm.RemoteChannelPubkeys.HtlcBasePoint, commitPoint,
		nextLocalCommit.CommitTx, nextLocalCommit.Htlcs,
		nextLocalCommit.HtlcWitnessScripts, sig.HtlcSigs,
	); len(failures) > 0 {
		return nil, nil, &InvalidHtlcSignaturesError{Failures: failures}
	}

	nextLocalCommit.CommitSig = sig.CommitSig[:]
	htlcSigBytes := make([][]byte, len(sig.HtlcSigs))
	for i, s := range sig.HtlcSigs {
		htlcSigBytes[i] = s[:]
	}
	nextLocalCommit.HtlcSigs = htlcSigBytes

	oldSecret, err := shachain.NewRevocationProducer(
		cm.LocalCommitSecretSeed,
	).AtIndex(uint64(cm.LocalCommit.CommitHeight))
	if err != nil {
		return nil, nil, err
	}

	revealPoint, err := cm.localCommitPoint(nextHeight + 1)
	if err != nil {
		return nil, nil, err
	}

	next := cm.clone()
	next.LocalCommit = *nextLocalCommit
	next.RemoteChanges = cm.RemoteChanges.appendAcked()
	next.LocalChanges = cm.LocalChanges.clearAcked()
	next.OriginChannels = pruneOriginChannels(cm.OriginChannels, nextSpec)

	var revocation lnwire.RevokeAndAck
	revocation.ChanID = cm.ChannelID
	copy(revocation.Revocation[:], oldSecret[:])
	copy(revocation.NextPerCommitPoint[:], revealPoint.SerializeCompressed())

	return next, []ChannelEvent{RevocationReceived{Message: revocation}}, nil
}

// pruneOriginChannels drops every OriginChannels entry whose HTLC no longer
// appears in spec — it's been resolved and its upstream routing information
// is no longer needed.
func pruneOriginChannels(origins map[uint64]Origin,
	spec CommitmentSpec) map[uint64]Origin {

	next := make(map[uint64]Origin, len(origins))
	for id, o := range origins {
		if _, ok := spec.Htlcs[id]; ok {
			next[id] = o
		}
	}
	return next
}

// ReceiveRevocation advances RemoteNextCommitInfo from Waiting back to
// Revoked once the counterparty's revoke_and_ack arrives, promoting our
// pending remote commitment to RemoteCommit and acking our own signed
// changes.
func ReceiveRevocation(cm *Commitments,
	msg lnwire.RevokeAndAck) (*Commitments, []ChannelEvent, error) {

	if cm.RemoteNextCommitInfo.Revoked() {
		return nil, nil, ErrApiMisuse
	}

	next := cm.clone()
	next.RemoteCommit = *cm.RemoteNextCommitInfo.Commitment
	next.RemoteNextCommitInfo = RemoteNextCommitInfo{State: RemoteCommitRevoked}
	next.LocalChanges = cm.LocalChanges.ackSigned()

	// A parseable next_per_commitment_point replaces the one we've been
	// tracking; an empty or malformed one (e.g. a test fixture that
	// doesn't care about it) leaves the existing point in place rather
	// than failing the revocation outright.
	if point, err := btcec.ParsePubKey(msg.NextPerCommitPoint[:]); err == nil {
		next.RemoteNextPerCommitPoint = point
	}

	return next, nil, nil
}
