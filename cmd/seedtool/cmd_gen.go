package main

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/lnchain/chancore/aezeed"
)

type genCommand struct {
	Passphrase string `long:"passphrase" description:"The passphrase to encipher the new seed with; if unset, the default aezeed passphrase is used"`
}

func newGenCommand() *genCommand {
	return &genCommand{}
}

func (x *genCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"gen",
		"Generate a new random 24-word seed mnemonic",
		"Generates 16 bytes of fresh entropy, enciphers it with "+
			"today's birthday and the given passphrase, and "+
			"prints the resulting 24-word mnemonic",
		x,
	)
	return err
}

func (x *genCommand) Execute(_ []string) error {
	var entropy [aezeed.EntropySize]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return fmt.Errorf("unable to generate entropy: %v", err)
	}

	seed, err := aezeed.New(entropy, time.Now())
	if err != nil {
		return fmt.Errorf("unable to create seed: %v", err)
	}

	enciphered, err := seed.Encipher(passphraseBytes(x.Passphrase))
	if err != nil {
		return fmt.Errorf("unable to encipher seed: %v", err)
	}

	mnemonic := aezeed.ToMnemonic(enciphered, aezeed.English)
	fmt.Println(strings.Join(mnemonic[:], " "))

	return nil
}

// passphraseBytes returns nil for an empty passphrase so aezeed falls back
// to its own default, rather than enciphering with an empty string.
func passphraseBytes(passphrase string) []byte {
	if passphrase == "" {
		return nil
	}
	return []byte(passphrase)
}
