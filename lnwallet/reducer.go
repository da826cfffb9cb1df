package lnwallet

// CommitmentSpec is the current, already-accepted state of a channel from
// one party's point of view: the set of cross-signed HTLCs, each side's
// balance, and the feerate the next commitment transaction will pay.
type CommitmentSpec struct {
	ToLocalMsat  uint64
	ToRemoteMsat uint64
	FeeRatePerKw uint64
	Htlcs        map[uint64]HTLC
}

// HtlcView is another name for CommitmentSpec, for code that wants to call
// the reducer's input a snapshot. It is a type alias, so the compiler
// treats the two names as the same type.
type HtlcView = CommitmentSpec

// clone returns a deep-enough copy of spec so reducing never mutates the
// caller's original.
func (spec CommitmentSpec) clone() CommitmentSpec {
	next := spec
	next.Htlcs = make(map[uint64]HTLC, len(spec.Htlcs))
	for id, htlc := range spec.Htlcs {
		next.Htlcs[id] = htlc
	}
	return next
}

const (
	// baseCommitWeight approximates the fixed weight of a commitment
	// transaction's version, locktime, funding input, and the two
	// to-local/to-remote outputs.
	baseCommitWeight = 724

	// htlcWeight approximates the marginal weight a single HTLC output
	// (plus its corresponding second-level transaction) adds to a
	// commitment transaction.
	htlcWeight = 172
)

// commitTxFee projects the fee, in satoshis, that a commitment transaction
// carrying spec's HTLC set would need to pay at spec's feerate. Every HTLC
// in spec adds htlcWeight whatever its value: dustLimit is accepted but not
// used, so HTLCs too small for their own output are not left out of the
// weight estimate.
func commitTxFee(dustLimit uint64, spec CommitmentSpec) uint64 {
	weight := uint64(baseCommitWeight)
	for range spec.Htlcs {
		weight += htlcWeight
	}

	fee := (spec.FeeRatePerKw * weight) / 1000
	_ = dustLimit

	return fee
}

// Reduce applies, in order, the updates the counterparty has already
// acknowledged (fromPeer) and then the updates this party has newly
// proposed (fromSelf) to current, producing the resulting spec. isFunder
// tells the reducer which side is allowed to originate update_fee;
// remoteReserve and dustLimit bound the post-update balances.
func Reduce(current CommitmentSpec, fromPeer, fromSelf []update,
	isFunder bool, dustLimit, remoteReserve uint64) (CommitmentSpec, error) {

	next := current.clone()

	if err := applyUpdates(&next, fromPeer, !isFunder); err != nil {
		return CommitmentSpec{}, err
	}
	if err := applyUpdates(&next, fromSelf, isFunder); err != nil {
		return CommitmentSpec{}, err
	}

	fee := commitTxFee(dustLimit, next)
	if next.ToRemoteMsat/1000 < remoteReserve+fee {
		return CommitmentSpec{}, &TransactionError{
			Reason: "resulting balance falls below counterparty " +
				"channel reserve after commitment fee",
		}
	}

	return next, nil
}

// applyUpdates mutates spec in place, applying each update in order.
// updaterIsFunder gates whether a FeeUpdate entry in this particular list is
// permitted to originate from this list's party.
func applyUpdates(spec *CommitmentSpec, updates []update,
	updaterIsFunder bool) error {

	for _, u := range updates {
		switch u.Kind {
		case AddHTLC:
			spec.Htlcs[u.Htlc.ID] = u.Htlc
			if u.Htlc.Direction == Outgoing {
				spec.ToLocalMsat -= u.Htlc.Amount
			} else {
				spec.ToRemoteMsat -= u.Htlc.Amount
			}

		case FulfillHTLC:
			htlc, ok := spec.Htlcs[u.ParentID]
			if !ok {
				return &TransactionError{
					Reason: "fulfill references unknown htlc id",
				}
			}
			delete(spec.Htlcs, u.ParentID)

			if htlc.Direction == Outgoing {
				spec.ToRemoteMsat += htlc.Amount
			} else {
				spec.ToLocalMsat += htlc.Amount
			}

		case FailHTLC, FailMalformedHTLC:
			htlc, ok := spec.Htlcs[u.ParentID]
			if !ok {
				return &TransactionError{
					Reason: "fail references unknown htlc id",
				}
			}
			delete(spec.Htlcs, u.ParentID)

			if htlc.Direction == Outgoing {
				spec.ToLocalMsat += htlc.Amount
			} else {
				spec.ToRemoteMsat += htlc.Amount
			}

		case FeeUpdate:
			if !updaterIsFunder {
				return &TransactionError{
					Reason: "update_fee received from non-funder",
				}
			}
			spec.FeeRatePerKw = u.FeeRate
		}
	}

	return nil
}
