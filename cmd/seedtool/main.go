package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

func main() {
	parser := flags.NewParser(nil, flags.Default)

	commands := []command{
		newGenCommand(),
		newDecodeCommand(),
		newChangePassphraseCommand(),
	}
	for _, cmd := range commands {
		if err := cmd.Register(parser); err != nil {
			fmt.Fprintf(os.Stderr, "unable to register command: %v\n", err)
			os.Exit(1)
		}
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok &&
			flagsErr.Type == flags.ErrHelp {

			os.Exit(0)
		}
		os.Exit(1)
	}
}

// command is implemented by every seedtool subcommand, following the same
// Register/Execute split go-flags subcommands use throughout this family of
// tools.
type command interface {
	Register(parser *flags.Parser) error
}
