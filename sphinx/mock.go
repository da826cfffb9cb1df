package sphinx

import "crypto/sha256"

// MockProcessor is a deterministic, non-cryptographic Processor used in
// tests that exercise the commitment engine's failure paths without pulling
// in a real onion router.
type MockProcessor struct{}

// ParsePacket derives a fake shared secret from the payment hash alone, so
// tests can assert on it without a real onion construction.
func (MockProcessor) ParsePacket(_ [32]byte, paymentHash [32]byte,
	_ []byte) (SharedSecret, error) {

	return SharedSecret(sha256.Sum256(paymentHash[:])), nil
}

// ForwardErrorPacket XORs the reason with the shared secret's bytes,
// repeated as needed, standing in for a real layered encryption.
func (MockProcessor) ForwardErrorPacket(reason []byte, ss SharedSecret) []byte {
	return xorWithSecret(reason, ss)
}

// CreateErrorPacket is identical to ForwardErrorPacket for this mock: it has
// no notion of "already wrapped" payloads.
func (MockProcessor) CreateErrorPacket(ss SharedSecret, failure []byte) []byte {
	return xorWithSecret(failure, ss)
}

func xorWithSecret(data []byte, ss SharedSecret) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ ss[i%len(ss)]
	}
	return out
}
