package aezeed

import (
	"crypto/rand"
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/Yawning/aez"
	"golang.org/x/crypto/scrypt"
)

const (
	// CipherSeedVersion is the only version of the seed codec this package
	// knows how to produce or consume.
	CipherSeedVersion uint8 = 0

	// EntropySize is the number of bytes of wallet seed material carried
	// inside the plaintext envelope.
	EntropySize = 16

	// SaltSize is the number of bytes of random salt mixed into the scrypt
	// key derivation on every encipherment.
	SaltSize = 5

	// decipheredPayloadSize is the size, in bytes, of the plaintext
	// envelope: version || birthday_be16 || entropy.
	decipheredPayloadSize = 1 + 2 + EntropySize

	// additionalDataSize is the number of bytes of data bound to (but not
	// encrypted within) the ciphertext: version || salt.
	additionalDataSize = 1 + SaltSize

	// checksumSize is the number of bytes used for the CRC32 checksum
	// appended to the enciphered form.
	checksumSize = 4

	// cipherTextExpansion is the number of bytes of authentication
	// overhead AEZ adds to the plaintext.
	cipherTextExpansion = 4

	// cipherTextSize is the size, in bytes, of the AEZ ciphertext: the
	// plaintext envelope plus the authentication expansion.
	cipherTextSize = decipheredPayloadSize + cipherTextExpansion

	// EncipheredSize is the total size, in bytes, of a fully enciphered
	// seed: version || ciphertext || salt || checksum.
	EncipheredSize = 1 + cipherTextSize + SaltSize + checksumSize

	// cryptoKeySize is the size, in bytes, of the key derived by scrypt and
	// fed into AEZ.
	cryptoKeySize = 32

	// scryptN, scryptR, and scryptP are the cost parameters used for key
	// stretching. These MUST remain fixed for interoperability: changing
	// them changes every derived key for every existing seed.
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// defaultPassphrase is used to derive the encryption key when the user
// elects not to supply one of their own.
var defaultPassphrase = []byte("aezeed")

// CipherSeed is the plaintext form of an aezeed wallet seed: a version, a
// creation-time birthday, and the raw entropy the wallet's master key is
// derived from.
type CipherSeed struct {
	// InternalVersion is the version of this seed. Any upgrade that
	// changes the derivation or encoding scheme bumps this value.
	InternalVersion uint8

	// Birthday is the number of days elapsed since the Bitcoin mainnet
	// genesis block at the time this seed was created, used to bound
	// blockchain rescans.
	Birthday uint16

	// Entropy is the raw wallet seed material the master extended key is
	// derived from.
	Entropy [EntropySize]byte

	// salt is the random value mixed into the scrypt derivation for this
	// particular encipherment. A fresh salt is drawn each time Encipher is
	// called so that the same entropy enciphered twice never produces the
	// same blob.
	salt [SaltSize]byte
}

// New creates a fresh CipherSeed from the given entropy and birthday. If
// entropy is the zero value, random entropy is generated.
func New(entropy [EntropySize]byte, birthday time.Time) (*CipherSeed, error) {
	seed := &CipherSeed{
		InternalVersion: CipherSeedVersion,
		Birthday:        BirthdayFromTime(birthday),
		Entropy:         entropy,
	}

	if entropy == ([EntropySize]byte{}) {
		if _, err := rand.Read(seed.Entropy[:]); err != nil {
			return nil, err
		}
	}

	return seed, nil
}

// decipheredPlaintext returns the 19-byte plaintext envelope this seed
// encodes: version || birthday_be16 || entropy.
func (c *CipherSeed) decipheredPlaintext() [decipheredPayloadSize]byte {
	var plain [decipheredPayloadSize]byte

	plain[0] = c.InternalVersion
	binary.BigEndian.PutUint16(plain[1:3], c.Birthday)
	copy(plain[3:], c.Entropy[:])

	return plain
}

// deriveKey stretches passphrase (or the default, if empty) with scrypt
// using the seed's salt.
func deriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		passphrase = defaultPassphrase
	}

	return scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, cryptoKeySize)
}

// Encipher encrypts and packages this seed into its 33-byte wire form,
// deriving the encryption key from passphrase (or a well-known default if
// nil/empty).
func (c *CipherSeed) Encipher(passphrase []byte) ([EncipheredSize]byte, error) {
	var enciphered [EncipheredSize]byte

	if _, err := rand.Read(c.salt[:]); err != nil {
		return enciphered, err
	}

	key, err := deriveKey(passphrase, c.salt[:])
	if err != nil {
		return enciphered, err
	}

	var ad [additionalDataSize]byte
	ad[0] = c.InternalVersion
	copy(ad[1:], c.salt[:])

	plaintext := c.decipheredPlaintext()

	cipherText := aez.Encrypt(
		key, nil, [][]byte{ad[:]}, cipherTextExpansion, plaintext[:], nil,
	)

	enciphered[0] = c.InternalVersion
	copy(enciphered[1:], cipherText)
	copy(enciphered[1+len(cipherText):], c.salt[:])

	checksum := crc32.ChecksumIEEE(enciphered[:EncipheredSize-checksumSize])
	binary.BigEndian.PutUint32(enciphered[EncipheredSize-checksumSize:], checksum)

	return enciphered, nil
}

// Decipher reverses Encipher: given a 33-byte enciphered blob and the
// passphrase it was created with, it recovers the original CipherSeed.
func Decipher(enciphered [EncipheredSize]byte, passphrase []byte) (*CipherSeed, error) {
	version := enciphered[0]
	if version != CipherSeedVersion {
		return nil, &ErrUnsupportedVersion{Version: version}
	}

	gotChecksum := binary.BigEndian.Uint32(
		enciphered[EncipheredSize-checksumSize:],
	)
	wantChecksum := crc32.ChecksumIEEE(
		enciphered[:EncipheredSize-checksumSize],
	)
	if gotChecksum != wantChecksum {
		return nil, &ErrIncorrectMnemonic{
			ExpectedChecksum: wantChecksum,
			ActualChecksum:   gotChecksum,
		}
	}

	saltStart := 1 + cipherTextSize
	saltEnd := saltStart + SaltSize

	var salt [SaltSize]byte
	copy(salt[:], enciphered[saltStart:saltEnd])

	key, err := deriveKey(passphrase, salt[:])
	if err != nil {
		return nil, err
	}

	var ad [additionalDataSize]byte
	ad[0] = version
	copy(ad[1:], salt[:])

	cipherText := enciphered[1:saltStart]

	plaintext, ok := aez.Decrypt(
		key, nil, [][]byte{ad[:]}, cipherTextExpansion, cipherText, nil,
	)
	if !ok {
		return nil, ErrInvalidPass
	}
	if len(plaintext) != decipheredPayloadSize {
		return nil, &ErrIncorrectPayload{
			Expected: decipheredPayloadSize,
			Got:      len(plaintext),
		}
	}

	seed := &CipherSeed{
		InternalVersion: plaintext[0],
		Birthday:        binary.BigEndian.Uint16(plaintext[1:3]),
	}
	copy(seed.Entropy[:], plaintext[3:])
	copy(seed.salt[:], salt[:])

	return seed, nil
}

// ChangePassphrase deciphers an enciphered seed with oldPass and
// re-enciphers the recovered entropy with newPass and a freshly generated
// salt, producing a new, unrelated enciphered blob for the same wallet.
func ChangePassphrase(enciphered [EncipheredSize]byte, oldPass,
	newPass []byte) ([EncipheredSize]byte, error) {

	var out [EncipheredSize]byte

	seed, err := Decipher(enciphered, oldPass)
	if err != nil {
		return out, err
	}

	return seed.Encipher(newPass)
}
