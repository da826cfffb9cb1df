package lnwallet

import (
	"github.com/lnchain/chancore/internal/lntypes"
	"github.com/lnchain/chancore/lnwire"
)

// HTLCDirection describes which side of the channel originated an HTLC.
type HTLCDirection uint8

const (
	// Incoming marks an HTLC offered to us by the remote party.
	Incoming HTLCDirection = iota

	// Outgoing marks an HTLC we offered to the remote party.
	Outgoing
)

func (d HTLCDirection) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// HTLC represents a single pending HTLC, cross-signed or merely proposed,
// tracked within a channel's commitment spec.
type HTLC struct {
	// ID uniquely identifies this HTLC for the lifetime of the channel.
	// It's assigned by the offering party from a monotonically
	// increasing per-channel, per-direction counter.
	ID uint64

	// Direction indicates whether we offered this HTLC, or received it.
	Direction HTLCDirection

	// Amount is the value of the HTLC, in millisatoshis.
	Amount uint64

	// PaymentHash is the hash of the payment preimage that settles this
	// HTLC.
	PaymentHash lntypes.Hash

	// CltvExpiry is the absolute block height by which this HTLC must be
	// resolved, either by settlement or by an on-chain timeout claim.
	CltvExpiry uint32

	// OnionBlob is the opaque Sphinx-encrypted routing packet carried
	// alongside the HTLC, consumed only by sphinx.Processor.
	OnionBlob [1366]byte
}

// Origin records where an outgoing HTLC came from, so that a resolution
// (fulfill or fail) can be routed back to the correct upstream channel.
// The actual peer/channel addressing is outside this package's scope; we
// only retain the information needed to keep origin_channels consistent.
type Origin struct {
	ChanID lnwire.ChannelID
	HtlcID uint64
}

// ChannelID identifies a channel to both of its participants.
type ChannelID = lnwire.ChannelID
