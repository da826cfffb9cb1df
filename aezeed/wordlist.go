package aezeed

import (
	"strings"

	"github.com/lnchain/chancore/aezeed/wordlists"
)

// NumMnemonicWords is the fixed number of words a mnemonic is always
// composed of. 24 words at 11 bits each encode exactly 264 bits, the size
// of an enciphered seed.
const NumMnemonicWords = 24

// bitsPerWord is the number of bits each mnemonic word encodes. 2^11 ==
// 2048, the required size of a conforming wordlist.
const bitsPerWord = 11

// Wordlist is satisfied by any word list that can be used to encode and
// decode the bit-packed mnemonic form of an enciphered seed. A conforming
// list MUST contain exactly 2048 unique, case-normalized entries.
type Wordlist interface {
	// WordAt returns the word at the given 11-bit index (0-2047).
	WordAt(index int) string

	// IndexOf returns the 11-bit index of the given word, and false if the
	// word isn't present in the list.
	IndexOf(word string) (int, bool)
}

// defaultWordlist is the Wordlist used when a caller doesn't supply one
// explicitly.
type defaultWordlist struct {
	words [2048]string
	index map[string]int
}

func newDefaultWordlist(words [2048]string) *defaultWordlist {
	idx := make(map[string]int, len(words))
	for i, w := range words {
		idx[w] = i
	}

	return &defaultWordlist{words: words, index: idx}
}

func (d *defaultWordlist) WordAt(index int) string {
	return d.words[index]
}

func (d *defaultWordlist) IndexOf(word string) (int, bool) {
	i, ok := d.index[strings.ToLower(word)]
	return i, ok
}

// English is the default word list used when no other Wordlist is supplied,
// following the BIP-39 convention of 2048 entries.
var English Wordlist = newDefaultWordlist(wordlists.English)

// KnownWordList returns true if word appears in the default English
// wordlist. Useful for UI-level validation before attempting a full
// decipher.
func KnownWordList(word string) bool {
	_, ok := English.IndexOf(word)
	return ok
}
