package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/lnchain/chancore/aezeed"
)

type decodeCommand struct {
	Passphrase string `long:"passphrase" description:"The passphrase the mnemonic was enciphered with"`

	Args struct {
		Mnemonic string `positional-arg-name:"mnemonic" description:"The 24-word mnemonic, space separated"`
	} `positional-args:"yes" required:"yes"`
}

func newDecodeCommand() *decodeCommand {
	return &decodeCommand{}
}

func (x *decodeCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"decode",
		"Decode a 24-word mnemonic back into its wallet seed",
		"Parses a space-separated 24-word mnemonic, deciphers it "+
			"with the given passphrase, and prints the "+
			"recovered entropy and birthday",
		x,
	)
	return err
}

func (x *decodeCommand) Execute(_ []string) error {
	words := strings.Fields(x.Args.Mnemonic)
	if len(words) != aezeed.NumMnemonicWords {
		return fmt.Errorf("expected %d words, got %d",
			aezeed.NumMnemonicWords, len(words))
	}

	var mnemonic aezeed.Mnemonic
	copy(mnemonic[:], words)

	enciphered, err := mnemonic.ToCipherText(aezeed.English)
	if err != nil {
		return fmt.Errorf("invalid mnemonic: %v", err)
	}

	seed, err := aezeed.Decipher(enciphered, passphraseBytes(x.Passphrase))
	if err != nil {
		return fmt.Errorf("unable to decipher: %v", err)
	}

	fmt.Printf("entropy:  %s\n", hex.EncodeToString(seed.Entropy[:]))
	fmt.Printf("birthday: %s\n", aezeed.BirthdayToTime(seed.Birthday).Format("2006-01-02"))

	return nil
}
