package lnwallet

import "github.com/btcsuite/btcd/btcec/v2"

// ChannelParams holds the negotiated constraints one side of a channel
// imposes on the other's commitment transactions.
type ChannelParams struct {
	// DustLimit is the minimum value, in satoshis, an output on this
	// party's commitment transaction must carry to be included rather
	// than dropped as dust.
	DustLimit uint64

	// ChannelReserve is the minimum balance, in satoshis, this party must
	// always keep on their side of the channel.
	ChannelReserve uint64

	// ToSelfDelay is the number of blocks this party's to-local output
	// must be encumbered by a relative timelock before it can be spent,
	// giving the counterparty a window to broadcast a penalty
	// transaction if this party publishes a revoked state.
	ToSelfDelay uint16

	// MaxAcceptedHtlcs bounds the number of HTLCs this party will accept
	// on their incoming side of the channel.
	MaxAcceptedHtlcs uint16

	// MaxPendingAmount bounds the aggregate value, in millisatoshis, of
	// HTLCs this party will allow to be in flight at once.
	MaxPendingAmount uint64

	// MaxFeeRateMismatchRatio is the negotiated bound on how far a
	// proposed update_fee's fee rate may diverge from this party's own
	// view of the chain's current fee rate. The engine carries it but does
	// not read it: SendFee and ReceiveFee check only that to_remote still
	// covers the remote channel reserve plus the new commitment fee.
	MaxFeeRateMismatchRatio float64
}

// ChannelKeys collects the four base points a party contributes to channel
// key derivation. Per-commitment tweaking (internal/input.TweakPubKey,
// input.DeriveRevocationPubkey) combines these with a per-commitment point
// to produce the actual keys used in a given commitment's scripts.
type ChannelKeys struct {
	// FundingKey is this party's half of the 2-of-2 funding multisig.
	FundingKey *btcec.PublicKey

	// RevocationBasePoint is tweaked by the counterparty's revealed
	// per-commitment secrets to produce revocation keys for commitments
	// this party broadcasts.
	RevocationBasePoint *btcec.PublicKey

	// PaymentBasePoint is tweaked to derive the key that pays this party
	// directly, without delay, on the counterparty's commitment.
	PaymentBasePoint *btcec.PublicKey

	// DelayBasePoint is tweaked to derive the key that pays this party,
	// subject to ToSelfDelay, on this party's own commitment.
	DelayBasePoint *btcec.PublicKey

	// HtlcBasePoint is tweaked to derive the key used in HTLC scripts on
	// commitments this party is a party to.
	HtlcBasePoint *btcec.PublicKey
}
