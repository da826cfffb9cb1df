package aezeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fixedEntropy() [EntropySize]byte {
	var entropy [EntropySize]byte
	for i := range entropy {
		entropy[i] = byte(i)
	}
	return entropy
}

// TestSeedRoundTripFixedVector covers scenario 1: fixed entropy at birthday
// zero, default passphrase, round-tripped through the mnemonic.
func TestSeedRoundTripFixedVector(t *testing.T) {
	seed, err := New(fixedEntropy(), BirthdayToTime(0))
	require.NoError(t, err)

	enciphered, err := seed.Encipher(nil)
	require.NoError(t, err)

	mnemonic := ToMnemonic(enciphered, nil)
	require.Len(t, mnemonic, NumMnemonicWords)

	recovered, err := mnemonic.ToCipherText(nil)
	require.NoError(t, err)
	require.Equal(t, enciphered, recovered)

	decoded, err := Decipher(recovered, nil)
	require.NoError(t, err)
	require.Equal(t, seed.Entropy, decoded.Entropy)
}

// TestWrongPassphrase covers scenario 2.
func TestWrongPassphrase(t *testing.T) {
	seed, err := New(fixedEntropy(), time.Now())
	require.NoError(t, err)

	enciphered, err := seed.Encipher(nil)
	require.NoError(t, err)

	_, err = Decipher(enciphered, []byte("bad"))
	require.ErrorIs(t, err, ErrInvalidPass)
}

// TestTamperedMnemonic covers scenario 3: flipping the last word to its
// wordlist neighbour must surface a checksum mismatch, never a silent
// success.
func TestTamperedMnemonic(t *testing.T) {
	seed, err := New(fixedEntropy(), time.Now())
	require.NoError(t, err)

	enciphered, err := seed.Encipher(nil)
	require.NoError(t, err)

	mnemonic := ToMnemonic(enciphered, nil)

	lastIdx, ok := English.IndexOf(mnemonic[NumMnemonicWords-1])
	require.True(t, ok)
	mnemonic[NumMnemonicWords-1] = English.WordAt((lastIdx + 1) % 2048)

	tampered, err := mnemonic.ToCipherText(nil)
	require.NoError(t, err)

	_, err = Decipher(tampered, nil)
	var mismatch *ErrIncorrectMnemonic
	require.ErrorAs(t, err, &mismatch)
	require.NotEqual(t, mismatch.ExpectedChecksum, mismatch.ActualChecksum)
}

// TestChangePassphrase covers scenario 4.
func TestChangePassphrase(t *testing.T) {
	seed, err := New(fixedEntropy(), time.Now())
	require.NoError(t, err)

	enciphered1, err := seed.Encipher([]byte("aezeed"))
	require.NoError(t, err)

	enciphered2, err := ChangePassphrase(enciphered1, []byte("aezeed"),
		[]byte("newpass"))
	require.NoError(t, err)
	require.NotEqual(t, enciphered1, enciphered2)

	decoded, err := Decipher(enciphered2, []byte("newpass"))
	require.NoError(t, err)
	require.Equal(t, seed.Entropy, decoded.Entropy)
}

// TestUnsupportedVersion ensures a non-zero version byte is rejected before
// any cryptographic work is attempted.
func TestUnsupportedVersion(t *testing.T) {
	seed, err := New(fixedEntropy(), time.Now())
	require.NoError(t, err)

	enciphered, err := seed.Encipher(nil)
	require.NoError(t, err)

	enciphered[0] = 1

	_, err = Decipher(enciphered, nil)
	var unsupported *ErrUnsupportedVersion
	require.ErrorAs(t, err, &unsupported)
	require.EqualValues(t, 1, unsupported.Version)
}

// TestSeedRoundTripProperty is the property-based seed round-trip: for any
// entropy/birthday/passphrase, deciphering what we enciphered recovers the
// same entropy.
func TestSeedRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var entropy [EntropySize]byte
		copy(entropy[:], rapid.SliceOfN(rapid.Byte(), EntropySize, EntropySize).
			Draw(rt, "entropy"))

		birthday := uint16(rapid.IntRange(0, 0xFFFF).Draw(rt, "birthday"))
		passphrase := []byte(rapid.String().Draw(rt, "passphrase"))

		seed := &CipherSeed{
			InternalVersion: CipherSeedVersion,
			Birthday:        birthday,
			Entropy:         entropy,
		}

		enciphered, err := seed.Encipher(passphrase)
		require.NoError(rt, err)

		decoded, err := Decipher(enciphered, passphrase)
		require.NoError(rt, err)
		require.Equal(rt, entropy, decoded.Entropy)
		require.Equal(rt, birthday, decoded.Birthday)
	})
}

// TestChecksumTamperNeverSucceeds flips a single bit of a valid enciphered
// blob and asserts decipher never reports success.
func TestChecksumTamperNeverSucceeds(t *testing.T) {
	seed, err := New(fixedEntropy(), time.Now())
	require.NoError(t, err)

	enciphered, err := seed.Encipher([]byte("correct horse"))
	require.NoError(t, err)

	for byteIdx := 0; byteIdx < EncipheredSize; byteIdx++ {
		for bit := 0; bit < 8; bit++ {
			tampered := enciphered
			tampered[byteIdx] ^= 1 << uint(bit)

			if tampered == enciphered {
				continue
			}

			_, err := Decipher(tampered, []byte("correct horse"))
			require.Error(t, err)
		}
	}
}

// TestMnemonicRoundTripProperty is the property-based mnemonic round-trip:
// any valid 33-byte blob survives mnemonic encode/decode unchanged.
func TestMnemonicRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var blob [EncipheredSize]byte
		copy(blob[:], rapid.SliceOfN(rapid.Byte(), EncipheredSize,
			EncipheredSize).Draw(rt, "blob"))

		mnemonic := ToMnemonic(blob, nil)
		recovered, err := mnemonic.ToCipherText(nil)
		require.NoError(rt, err)
		require.Equal(rt, blob, recovered)
	})
}
