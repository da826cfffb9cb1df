package main

import (
	"fmt"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/lnchain/chancore/aezeed"
)

type changePassphraseCommand struct {
	OldPassphrase string `long:"old-passphrase" description:"The mnemonic's current passphrase"`
	NewPassphrase string `long:"new-passphrase" description:"The passphrase to re-encipher the mnemonic with" required:"yes"`

	Args struct {
		Mnemonic string `positional-arg-name:"mnemonic" description:"The 24-word mnemonic, space separated"`
	} `positional-args:"yes" required:"yes"`
}

func newChangePassphraseCommand() *changePassphraseCommand {
	return &changePassphraseCommand{}
}

func (x *changePassphraseCommand) Register(parser *flags.Parser) error {
	_, err := parser.AddCommand(
		"change-passphrase",
		"Re-encipher a mnemonic under a new passphrase",
		"Deciphers the given mnemonic with --old-passphrase and "+
			"prints a new mnemonic, enciphering the same "+
			"entropy under --new-passphrase with a freshly "+
			"generated salt",
		x,
	)
	return err
}

func (x *changePassphraseCommand) Execute(_ []string) error {
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

	newEnciphered, err := aezeed.ChangePassphrase(
		enciphered, passphraseBytes(x.OldPassphrase),
		passphraseBytes(x.NewPassphrase),
	)
	if err != nil {
		return fmt.Errorf("unable to change passphrase: %v", err)
	}

	newMnemonic := aezeed.ToMnemonic(newEnciphered, aezeed.English)
	fmt.Println(strings.Join(newMnemonic[:], " "))

	return nil
}
