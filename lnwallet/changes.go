package lnwallet

// UpdateKind identifies the kind of change staged in a changeLog entry,
// mirroring the update messages the protocol exchanges.
type UpdateKind uint8

const (
	// AddHTLC stages a new HTLC being offered.
	AddHTLC UpdateKind = iota

	// FulfillHTLC stages the preimage that settles a prior HTLC.
	FulfillHTLC

	// FailHTLC stages an onion-encrypted failure for a prior HTLC.
	FailHTLC

	// FailMalformedHTLC stages a failure for an HTLC whose onion packet
	// itself couldn't be parsed.
	FailMalformedHTLC

	// FeeUpdate stages a new commitment feerate, proposed by the funder.
	FeeUpdate
)

// update is a single staged change to a channel's commitment spec. Exactly
// one of its payload fields is meaningful, selected by Kind.
type update struct {
	Kind UpdateKind

	// HtlcID is not set by the engine's operations: an AddHTLC carries its
	// HTLC's id in Htlc.ID, and Fulfill/Fail/FailMalformed name theirs in
	// ParentID.
	HtlcID uint64

	// ParentID is the id of the HTLC this update resolves. Unused for
	// AddHTLC and FeeUpdate.
	ParentID uint64

	// Htlc is populated for AddHTLC.
	Htlc HTLC

	// Preimage is populated for FulfillHTLC.
	Preimage [32]byte

	// FailReason is populated for FailHTLC (an onion-encrypted blob).
	// FailMalformedHTLC carries its code in FailureCode instead.
	FailReason []byte

	// FailureCode is populated for FailMalformedHTLC.
	FailureCode uint16

	// FeeRate is populated for FeeUpdate (satoshis per kiloweight).
	FeeRate uint64
}

// changeLog holds one party's pending changes to a channel's commitment
// spec as three ordered, append-only lists. An update is created in
// proposed, copied to signed once it's included in an outstanding
// commitment_signed, and finally copied to acked once the counterparty has
// revoked the commitment it was first signed into — the three-stage
// lifecycle named directly in the channel state model.
//
// Each list is a fresh slice on every transition so that a prior
// *Commitments snapshot (kept around by the caller for diagnostics) remains
// valid: the engine never mutates a changeLog in place, it returns a new
// one.
type changeLog struct {
	proposed []update
	signed   []update
	acked    []update
}

// withProposed returns a copy of the log with u appended to proposed.
func (c changeLog) withProposed(u update) changeLog {
	next := c
	next.proposed = append(append([]update{}, c.proposed...), u)
	return next
}

// commitProposed moves every entry currently in proposed into signed,
// leaving proposed empty. Used when this party emits commitment_signed.
func (c changeLog) commitProposed() changeLog {
	return changeLog{
		proposed: nil,
		signed:   append([]update{}, c.proposed...),
		acked:    append([]update{}, c.acked...),
	}
}

// ackSigned moves every entry currently in signed into acked, leaving
// signed empty. Used when this party's outstanding commitment_signed is
// revoked by the counterparty.
func (c changeLog) ackSigned() changeLog {
	return changeLog{
		proposed: append([]update{}, c.proposed...),
		signed:   nil,
		acked:    append([]update{}, c.signed...),
	}
}

// commitAcked moves every entry currently in acked into signed, leaving
// acked empty. Used on the remote side's changeLog when this party emits
// commitment_signed: the changes the remote party already acked are now
// baked into the commitment just signed, so they move from "acked" to
// "signed" rather than sitting in "acked" indefinitely.
func (c changeLog) commitAcked() changeLog {
	return changeLog{
		proposed: append([]update{}, c.proposed...),
		signed:   append([]update{}, c.acked...),
		acked:    nil,
	}
}

// appendAcked returns a copy of the log with the entries currently in
// proposed appended directly to acked, and proposed cleared. Used on the
// remote side's changeLog when we emit revoke_and_ack: their proposed
// updates, having been reduced into our new local commitment, are now
// cross-signed from our point of view even before they formally send us a
// commitment_signed of their own.
func (c changeLog) appendAcked() changeLog {
	return changeLog{
		proposed: nil,
		signed:   append([]update{}, c.signed...),
		acked:    append(append([]update{}, c.acked...), c.proposed...),
	}
}

// clearAcked returns a copy of the log with acked emptied, leaving proposed
// and signed untouched. Used on the local side's changeLog once a new local
// commitment is cross-signed: the previously acked updates are now baked
// into that commitment and don't need to be carried forward.
func (c changeLog) clearAcked() changeLog {
	return changeLog{
		proposed: append([]update{}, c.proposed...),
		signed:   append([]update{}, c.signed...),
		acked:    nil,
	}
}

// isAlreadySent reports whether a proposed update in the log already
// resolves the HTLC with the given id, per the is_already_sent helper: an
// update targets htlcID if it's a fulfill/fail/fail_malformed carrying that
// id as its ParentID.
func (c changeLog) isAlreadySent(htlcID uint64) bool {
	for _, u := range c.proposed {
		switch u.Kind {
		case FulfillHTLC, FailHTLC, FailMalformedHTLC:
			if u.ParentID == htlcID {
				return true
			}
		}
	}
	return false
}
