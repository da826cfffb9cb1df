package lnwallet

import (
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnchain/chancore/internal/input"
	"github.com/lnchain/chancore/internal/keychain"
	"github.com/lnchain/chancore/internal/shachain"
	"github.com/lnchain/chancore/lnwire"
	"github.com/lnchain/chancore/sphinx"
)

// commitment is one party's view of a single, fully-specified commitment
// transaction: the transaction itself (unsigned; the counterparty's
// signatures are kept in CommitSig and HtlcSigs), the second-level HTLC
// transactions it spins off, and the bookkeeping needed to re-derive or
// revoke it later.
type commitment struct {
	// CommitTx is the fully assembled, unsigned commitment transaction.
	CommitTx *wire.MsgTx

	// CommitHeight is this commitment's position in the obscured state
	// number sequence — the same value SetStateNumHint/GetStateNumHint
	// embed into CommitTx.
	CommitHeight CommitmentNumber

	// Spec is the balance/HTLC/fee state this commitment transaction
	// encodes.
	Spec CommitmentSpec

	// Htlcs lists, in the canonical sorted order (see SortHTLCs), the
	// second-level transactions spending each HTLC output that appears
	// on CommitTx.
	Htlcs []*wire.MsgTx

	// CommitSig is the counterparty's signature authorizing CommitTx, or
	// the nil slice if this commitment hasn't been signed yet (it's the
	// party's own initial state, never broadcastable).
	CommitSig []byte

	// HtlcSigs are the counterparty's per-HTLC signatures, in the same
	// order as Htlcs.
	HtlcSigs [][]byte

	// HtlcWitnessScripts holds, in the same order as Htlcs, the raw HTLC
	// witness script each second-level transaction spends — the
	// SignDescriptor.WitnessScript a signer or verifier needs to
	// produce or check that HTLC's signature.
	HtlcWitnessScripts [][]byte
}

// RemoteCommitState tags whether the most recently sent, not-yet-revoked
// remote commitment has been superseded.
type RemoteCommitState uint8

const (
	// RemoteCommitRevoked means there is no outstanding remote
	// commitment this party has sent a commitment_signed for without
	// yet receiving the corresponding revoke_and_ack: the next call to
	// send_commit is free to propose a new one.
	RemoteCommitRevoked RemoteCommitState = iota

	// RemoteCommitWaiting means this party has sent a commitment_signed
	// for a new remote commitment and is waiting on the counterparty's
	// revoke_and_ack before another may be proposed.
	RemoteCommitWaiting
)

// RemoteNextCommitInfo is a two-variant tag: either no commitment_signed is
// outstanding (Revoked, with Commitment nil) or one is outstanding and
// awaiting revocation (Waiting, with Commitment populated). Modeling it this
// way makes "at most one pending next remote commitment" a property of the
// type rather than an invariant callers must remember to check.
type RemoteNextCommitInfo struct {
	State      RemoteCommitState
	Commitment *commitment
}

// Revoked reports whether no remote commitment_signed is outstanding.
func (r RemoteNextCommitInfo) Revoked() bool {
	return r.State == RemoteCommitRevoked
}

// Waiting reports whether a remote commitment_signed is outstanding,
// pending the counterparty's revocation.
func (r RemoteNextCommitInfo) Waiting() bool {
	return r.State == RemoteCommitWaiting
}

// Commitments is the complete, immutable-by-convention state of one side of
// a channel: its negotiated parameters, both parties' current commitment
// transactions, the pending update logs, and the bookkeeping needed to
// route HTLC resolutions back upstream. Every operation in engine.go takes
// a *Commitments and a request, and returns a fresh *Commitments alongside
// the events the transition produced — it never mutates its receiver.
type Commitments struct {
	ChannelID lnwire.ChannelID
	IsFunder  bool

	LocalParams  *ChannelParams
	RemoteParams *ChannelParams

	LocalChannelPubkeys  *ChannelKeys
	RemoteChannelPubkeys *ChannelKeys

	// FundingOutpoint identifies the 2-of-2 output both commitment
	// transactions spend.
	FundingOutpoint wire.OutPoint
	FundingAmount   int64

	LocalCommit  commitment
	RemoteCommit commitment

	RemoteNextCommitInfo RemoteNextCommitInfo

	LocalChanges  changeLog
	RemoteChanges changeLog

	// OriginChannels maps an outgoing HTLC id to the upstream channel and
	// HTLC id it was forwarded from, so fulfills and fails can be routed
	// back. Absent for HTLCs this party originated itself.
	OriginChannels map[uint64]Origin

	// Signer produces signatures over this party's own commitment and
	// HTLC transactions; it owns the private keys backing
	// LocalChannelPubkeys.
	Signer input.Signer

	// LocalCommitSecretSeed roots this party's per-commitment secret
	// chain: the secret (and its derived point) for commitment height h
	// is shachain.NewRevocationProducer(LocalCommitSecretSeed).AtIndex(h).
	LocalCommitSecretSeed chainhash.Hash

	// RemoteNextPerCommitPoint is the per-commitment point the
	// counterparty most recently revealed for their next, not-yet-signed
	// commitment — either the point exchanged at channel open, or the
	// next_per_commitment_point from their latest revoke_and_ack.
	// send_commit tweaks the remote commitment's keys against this
	// point.
	RemoteNextPerCommitPoint *btcec.PublicKey

	// NodeSecret is this party's long-term node private key, used by
	// SendFail to recover the per-hop shared secret of an HTLC's onion
	// packet before building its failure reason.
	NodeSecret [32]byte

	// SphinxProc resolves onion shared secrets and builds or forwards
	// encrypted failure payloads for SendFail. Onion routing itself is
	// outside this package's scope; only this narrow interface is
	// depended on.
	SphinxProc sphinx.Processor
}

// localCommitPoint derives the per-commitment point this party uses for its
// own commitment at the given height, from its local secret seed.
func (c *Commitments) localCommitPoint(height CommitmentNumber) (*btcec.PublicKey, error) {
	producer := shachain.NewRevocationProducer(c.LocalCommitSecretSeed)
	secret, err := producer.AtIndex(uint64(height))
	if err != nil {
		return nil, err
	}

	return input.ComputeCommitmentPoint(secret[:]), nil
}

// obfuscator derives this channel's commitment-number obfuscator from both
// parties' payment basepoints. Per BOLT 3, the funder's basepoint is always
// hashed first regardless of which side is deriving it.
func (c *Commitments) obfuscator() [StateHintSize]byte {
	funderKey := c.RemoteChannelPubkeys.PaymentBasePoint
	fundeeKey := c.LocalChannelPubkeys.PaymentBasePoint
	if c.IsFunder {
		funderKey = c.LocalChannelPubkeys.PaymentBasePoint
		fundeeKey = c.RemoteChannelPubkeys.PaymentBasePoint
	}

	return CommitmentObscurer(funderKey, fundeeKey)
}

// clone returns a shallow copy of Commitments with OriginChannels replaced by
// an independent copy, so that engine operations can derive a next state
// without aliasing the receiver's map. The two changeLogs are copied by
// value and still share their slices with the receiver; every changeLog
// method builds fresh slices, so neither side's lists are written through
// the other.
func (c *Commitments) clone() *Commitments {
	next := *c

	origins := make(map[uint64]Origin, len(c.OriginChannels))
	for id, o := range c.OriginChannels {
		origins[id] = o
	}
	next.OriginChannels = origins

	return &next
}

// commitmentKeys collects the five keys, already tweaked against a specific
// per-commitment point, that make_local_txs/make_remote_txs need to build
// one party's commitment transaction at one height.
type commitmentKeys struct {
	ownerDelay        *btcec.PublicKey
	ownerRevocation   *btcec.PublicKey
	ownerHtlc         *btcec.PublicKey
	counterpartyPay   *btcec.PublicKey
	counterpartyHtlc  *btcec.PublicKey
}

// deriveCommitmentKeys tweaks both parties' base points against commitPoint,
// the per-commitment point for the commitment transaction under
// construction. ownerKeys is the base-point set of the party who will
// eventually hold/broadcast this commitment; counterpartyKeys is the other
// party's.
func deriveCommitmentKeys(commitPoint *btcec.PublicKey,
	ownerKeys, counterpartyKeys *ChannelKeys) commitmentKeys {

	return commitmentKeys{
		ownerDelay: input.TweakPubKey(ownerKeys.DelayBasePoint, commitPoint),
		ownerRevocation: input.DeriveRevocationPubkey(
			ownerKeys.RevocationBasePoint, commitPoint,
		),
		ownerHtlc: input.TweakPubKey(ownerKeys.HtlcBasePoint, commitPoint),
		counterpartyPay: input.TweakPubKey(
			counterpartyKeys.PaymentBasePoint, commitPoint,
		),
		counterpartyHtlc: input.TweakPubKey(
			counterpartyKeys.HtlcBasePoint, commitPoint,
		),
	}
}

// newCommitment assembles the commitment transaction, HTLC second-level
// transactions, and spec for one party's view of a channel at a given
// commitment height, following the same to_local/to_remote/HTLC output
// construction as make_local_txs/make_remote_txs: to_local and to_remote pay
// the owner and counterparty respectively (each at or above dustLimit), every
// HTLC at or above dustLimit gets its own output plus second-level
// transaction, and the state number is embedded via SetStateNumHint.
// ownerIsLocal tells the balance and HTLC placement which role the owner
// plays on the commitment being built: spec's balances and HTLCDirection are
// always recorded from the local party's point of view, so the owner's
// balance is spec.ToRemoteMsat when the owner is the remote party, and the
// sender/receiver HTLC script variant depends on whose commitment this is.
func newCommitment(height CommitmentNumber, spec CommitmentSpec,
	fundingOutpoint wire.OutPoint, obfuscator [StateHintSize]byte,
	commitPoint *btcec.PublicKey, ownerKeys, counterpartyKeys *ChannelKeys,
	ownerIsLocal bool, toSelfDelay uint16, dustLimit uint64) (*commitment, error) {

	keys := deriveCommitmentKeys(commitPoint, ownerKeys, counterpartyKeys)

	commitTx := wire.NewMsgTx(2)
	commitTx.AddTxIn(&wire.TxIn{PreviousOutPoint: fundingOutpoint})

	ownerMsat, counterpartyMsat := spec.ToLocalMsat, spec.ToRemoteMsat
	if !ownerIsLocal {
		ownerMsat, counterpartyMsat = spec.ToRemoteMsat, spec.ToLocalMsat
	}

	if ownerMsat/1000 >= dustLimit {
		toLocalScript, err := input.CommitScriptToSelf(
			uint32(toSelfDelay), keys.ownerDelay, keys.ownerRevocation,
		)
		if err != nil {
			return nil, err
		}
		pkScript, err := input.WitnessScriptHash(toLocalScript)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			Value:    int64(ownerMsat / 1000),
			PkScript: pkScript,
		})
	}

	if counterpartyMsat/1000 >= dustLimit {
		toRemoteScript, err := input.CommitScriptUnencumbered(
			keys.counterpartyPay,
		)
		if err != nil {
			return nil, err
		}
		commitTx.AddTxOut(&wire.TxOut{
			Value:    int64(counterpartyMsat / 1000),
			PkScript: toRemoteScript,
		})
	}

	type pendingHtlc struct {
		ownerIsSender bool
		amtSat        int64
		cltvExpiry    uint32
		outputIndex   uint32
		witnessScript []byte
	}
	var pending []pendingHtlc

	for _, id := range sortedHtlcIDs(spec.Htlcs) {
		htlc := spec.Htlcs[id]

		amtSat := int64(htlc.Amount / 1000)
		if amtSat < int64(dustLimit) {
			continue
		}

		ownerIsSender := (ownerIsLocal && htlc.Direction == Outgoing) ||
			(!ownerIsLocal && htlc.Direction == Incoming)

		senderKey, receiverKey := keys.counterpartyHtlc, keys.ownerHtlc
		if ownerIsSender {
			senderKey, receiverKey = keys.ownerHtlc, keys.counterpartyHtlc
		}

		var htlcScript []byte
		var err error
		if ownerIsSender {
			htlcScript, err = input.SenderHTLCScript(
				senderKey, receiverKey, keys.ownerRevocation,
				htlc.PaymentHash[:],
			)
		} else {
			htlcScript, err = input.ReceiverHTLCScript(
				htlc.CltvExpiry, senderKey, receiverKey,
				keys.ownerRevocation, htlc.PaymentHash[:],
			)
		}
		if err != nil {
			return nil, err
		}

		pkScript, err := input.WitnessScriptHash(htlcScript)
		if err != nil {
			return nil, err
		}

		outputIndex := uint32(len(commitTx.TxOut))
		commitTx.AddTxOut(&wire.TxOut{
			Value:    amtSat,
			PkScript: pkScript,
		})

		pending = append(pending, pendingHtlc{
			ownerIsSender: ownerIsSender,
			amtSat:        amtSat,
			cltvExpiry:    htlc.CltvExpiry,
			outputIndex:   outputIndex,
			witnessScript: htlcScript,
		})
	}

	if err := SetStateNumHint(commitTx, height, obfuscator); err != nil {
		return nil, err
	}

	// The second-level transactions spend commitTx's own outputs, so
	// their previous outpoint's hash can only be filled in once commitTx
	// is fully assembled (SetStateNumHint mutates its locktime/sequence,
	// which changes its txid).
	commitTxid := commitTx.TxHash()

	htlcs := make([]*wire.MsgTx, 0, len(pending))
	witnessScriptByIndex := make(map[uint32][]byte, len(pending))
	for _, p := range pending {
		htlcOutpoint := wire.OutPoint{Hash: commitTxid, Index: p.outputIndex}

		var secondLevel *wire.MsgTx
		var err error
		if p.ownerIsSender {
			secondLevel, err = NewHtlcTimeoutTx(
				htlcOutpoint, p.amtSat, p.cltvExpiry,
				uint32(toSelfDelay), keys.ownerRevocation, keys.ownerDelay,
			)
		} else {
			secondLevel, err = NewHtlcSuccessTx(
				htlcOutpoint, p.amtSat, uint32(toSelfDelay),
				keys.ownerRevocation, keys.ownerDelay,
			)
		}
		if err != nil {
			return nil, err
		}

		htlcs = append(htlcs, secondLevel)
		witnessScriptByIndex[p.outputIndex] = p.witnessScript
	}

	sortedHtlcs := SortHTLCs(htlcs)
	witnessScripts := make([][]byte, len(sortedHtlcs))
	for i, htlcTx := range sortedHtlcs {
		witnessScripts[i] = witnessScriptByIndex[htlcTx.TxIn[0].PreviousOutPoint.Index]
	}

	return &commitment{
		CommitTx:           commitTx,
		CommitHeight:       height,
		Spec:               spec,
		Htlcs:              sortedHtlcs,
		HtlcWitnessScripts: witnessScripts,
	}, nil
}

// keyDescFor wraps a raw public key as a KeyDescriptor carrying no
// KeyLocator, the form input.Signer implementations accept when the caller
// already knows the exact key rather than needing it derived by family and
// index.
func keyDescFor(pub *btcec.PublicKey) keychain.KeyDescriptor {
	return keychain.KeyDescriptor{PubKey: pub}
}

// sortedHtlcIDs returns the HTLC ids of htlcs in ascending order, so
// newCommitment's output placement is deterministic despite Go's
// randomized map iteration.
func sortedHtlcIDs(htlcs map[uint64]HTLC) []uint64 {
	ids := make([]uint64, 0, len(htlcs))
	for id := range htlcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
