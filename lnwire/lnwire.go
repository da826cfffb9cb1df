// Package lnwire defines the message shapes exchanged between channel
// peers that the commitment engine produces and consumes. Full wire
// serialization of the Lightning peer protocol is out of scope here; only
// the struct shapes referenced by lnwallet are modeled.
package lnwire

import "github.com/lnchain/chancore/internal/lntypes"

// ChannelID uniquely identifies a channel to its two peers.
type ChannelID [32]byte

// Sig is an ECDSA signature in its fixed 64-byte compact form.
type Sig [64]byte

// UpdateAddHTLC is sent by either peer to offer a new HTLC to the other
// side's commitment transaction.
type UpdateAddHTLC struct {
	ChanID      ChannelID
	ID          uint64
	Amount      uint64
	PaymentHash lntypes.Hash
	Expiry      uint32
	OnionBlob   [1366]byte
}

// UpdateFulfillHTLC is sent in response to an UpdateAddHTLC to settle the
// HTLC by revealing its payment preimage.
type UpdateFulfillHTLC struct {
	ChanID          ChannelID
	ID              uint64
	PaymentPreimage lntypes.Preimage
}

// UpdateFailHTLC is sent in response to an UpdateAddHTLC to cancel the HTLC,
// carrying an onion-encrypted failure reason.
type UpdateFailHTLC struct {
	ChanID ChannelID
	ID     uint64
	Reason []byte
}

// UpdateFailMalformedHTLC is sent when the onion packet of an incoming HTLC
// couldn't even be parsed, so no shared secret is available to encrypt a
// normal failure reason with.
type UpdateFailMalformedHTLC struct {
	ChanID       ChannelID
	ID           uint64
	ShaOnionBlob [32]byte
	FailureCode  uint16
}

// UpdateFee is sent by the channel funder to propose a new fee rate for the
// commitment transaction.
type UpdateFee struct {
	ChanID  ChannelID
	FeePerKw uint32
}

// CommitSig signs the other party's next commitment transaction, along with
// every HTLC transaction it spawns.
type CommitSig struct {
	ChanID   ChannelID
	CommitSig Sig
	HtlcSigs []Sig
}

// RevokeAndAck revokes the sender's prior commitment and reveals the next
// per-commitment point to use for future commitments.
type RevokeAndAck struct {
	ChanID             ChannelID
	Revocation         [32]byte
	NextPerCommitPoint [33]byte
}
