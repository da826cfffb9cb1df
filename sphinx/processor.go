// Package sphinx models the two onion-processing entry points the
// commitment engine calls out to when failing an HTLC. The Sphinx mix-net
// packet format and its cryptographic construction are out of scope; only
// the shapes of the calls the engine makes are defined here.
package sphinx

// SharedSecret is the per-hop shared secret recovered while parsing an
// onion packet, used to symmetrically encrypt/decrypt failure messages on
// their way back to the sender.
type SharedSecret [32]byte

// Processor is the subset of onion-routing behavior the commitment engine
// depends on: recovering the shared secret for an incoming HTLC, and
// wrapping/creating the failure message sent back upon failing it.
type Processor interface {
	// ParsePacket recovers the per-hop shared secret for the given
	// payment hash and onion blob, using the node's private key.
	ParsePacket(nodeSecret [32]byte, paymentHash [32]byte,
		onionBlob []byte) (SharedSecret, error)

	// ForwardErrorPacket wraps an already-encrypted failure message with
	// another layer of encryption keyed by ss, for relaying back towards
	// the payment's origin.
	ForwardErrorPacket(reason []byte, ss SharedSecret) []byte

	// CreateErrorPacket originates a new encrypted failure message from a
	// plaintext failure payload, keyed by ss.
	CreateErrorPacket(ss SharedSecret, failure []byte) []byte
}
