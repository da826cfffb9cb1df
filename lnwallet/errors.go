package lnwallet

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHtlcID is returned when an operation references an HTLC id
	// that doesn't exist in the relevant update log.
	ErrUnknownHtlcID = errors.New("unknown htlc id")

	// ErrHtlcAlreadySent is returned when a fulfill/fail/fail_malformed is
	// attempted against an HTLC that already has a pending resolution
	// proposed against it.
	ErrHtlcAlreadySent = errors.New("htlc already has a pending " +
		"fulfill/fail proposed against it")

	// ErrInvalidPaymentPreimage is returned by send_fulfill when the
	// supplied preimage doesn't hash to the HTLC's payment hash.
	ErrInvalidPaymentPreimage = errors.New("preimage does not match " +
		"htlc payment hash")

	// ErrInvalidFailureCode is returned by send_fail_malformed/
	// receive_fail_malformed when the failure code doesn't carry the
	// BADONION bit.
	ErrInvalidFailureCode = errors.New("malformed failure code missing " +
		"BADONION bit")

	// ErrApiMisuse is returned when the caller invokes an operation in a
	// way the state machine doesn't allow, independent of channel state
	// (e.g. a fee update originated by the fundee, or one received by the
	// funder).
	ErrApiMisuse = errors.New("api misuse")

	// ErrCannotSignBeforeRevocation is returned by send_commit when the
	// remote party's next commitment point hasn't been revealed yet,
	// i.e. remote_next_commit_info is Waiting rather than Revoked.
	ErrCannotSignBeforeRevocation = errors.New("cannot sign new " +
		"commitment before receiving revocation for last sent one")

	// ErrReceivedCommitmentSignedWhenWeHaveNoPendingChanges is returned
	// by receive_commit when there are no unacknowledged remote-originated
	// changes to commit to.
	ErrReceivedCommitmentSignedWhenWeHaveNoPendingChanges = errors.New(
		"received commitment_signed with no pending changes")

	// ErrInvalidCommitSig is returned by receive_commit when the
	// counterparty's signature over our next commitment transaction
	// doesn't verify against their funding key.
	ErrInvalidCommitSig = errors.New(
		"invalid commitment signature")

	// ErrInvalidHtlcSig marks a single HTLC signature that failed to
	// verify, collected into InvalidHtlcSignaturesError.Failures.
	ErrInvalidHtlcSig = errors.New("invalid htlc signature")
)

// CannotAffordFeeError is returned by send_fee/receive_fee when, at the
// proposed fee rate, to_remote would fall below the remote party's channel
// reserve plus the resulting commitment fee.
type CannotAffordFeeError struct {
	Reserve uint64
	Fee     uint64
	Missing uint64
}

func (e *CannotAffordFeeError) Error() string {
	return fmt.Sprintf("cannot afford fee: reserve=%d fee=%d missing=%d",
		e.Reserve, e.Fee, e.Missing)
}

// SignatureCountMismatchError is returned by receive_commit when the peer's
// commitment_signed doesn't carry exactly one HTLC signature per sorted
// HTLC transaction.
type SignatureCountMismatchError struct {
	Expected int
	Got      int
}

func (e *SignatureCountMismatchError) Error() string {
	return fmt.Sprintf("expected %d htlc signatures, got %d",
		e.Expected, e.Got)
}

// InvalidHtlcSignaturesError is returned by receive_commit when one or more
// of the peer's per-HTLC signatures fails to verify. Failures is keyed by
// the HTLC's position in the commitment's sorted HTLC list, not its HTLC id,
// since that's the indexing commitment_signed.htlc_signatures itself uses.
type InvalidHtlcSignaturesError struct {
	Failures map[int]error
}

func (e *InvalidHtlcSignaturesError) Error() string {
	return fmt.Sprintf("%d invalid htlc signatures", len(e.Failures))
}

// CryptoError wraps a failure originating from the onion processor
// (sphinx.Processor) while resolving or failing an HTLC.
type CryptoError struct {
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("onion crypto error: %v", e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// TransactionError is returned by Reduce when applying a batch of updates
// would violate a channel invariant.
type TransactionError struct {
	Reason string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction error: %s", e.Reason)
}
