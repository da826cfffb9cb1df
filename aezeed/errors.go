package aezeed

import "fmt"

// ErrInvalidPass is returned when the passphrase used to decipher a seed
// does not authenticate against the enciphered blob. This is also returned
// when any byte of a valid-looking enciphered blob is corrupted in a way
// the checksum doesn't catch (it can't, since AEZ is itself an AEAD).
var ErrInvalidPass = fmt.Errorf("invalid passphrase")

// ErrUnsupportedVersion is returned when a caller attempts to decipher (or
// decode a mnemonic for) a seed whose version byte this package doesn't
// know how to handle.
type ErrUnsupportedVersion struct {
	Version uint8
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported seed version: %v", e.Version)
}

// ErrIncorrectMnemonic is returned when the checksum recovered from a
// mnemonic (or raw enciphered blob) doesn't match what's recomputed over the
// remaining bytes, almost always the result of a typo in one of the words.
type ErrIncorrectMnemonic struct {
	ExpectedChecksum uint32
	ActualChecksum   uint32
}

func (e *ErrIncorrectMnemonic) Error() string {
	return fmt.Sprintf("mnemonic checksum failed, expected %x, got %x, "+
		"likely a typo", e.ExpectedChecksum, e.ActualChecksum)
}

// ErrInvalidWord is returned when a word in a candidate mnemonic isn't
// present in the wordlist being used to decode it.
type ErrInvalidWord struct {
	Index int
	Word  string
}

func (e *ErrInvalidWord) Error() string {
	return fmt.Sprintf("word %q at index %d is not in the wordlist",
		e.Word, e.Index)
}

// ErrIncorrectPayload is returned when the plaintext recovered by
// deciphering a seed doesn't have the fixed length this codec requires.
type ErrIncorrectPayload struct {
	Expected int
	Got      int
}

func (e *ErrIncorrectPayload) Error() string {
	return fmt.Sprintf("invalid payload length: expected %d, got %d",
		e.Expected, e.Got)
}
