// Command tradebook is the operator CLI: recompute positions, print holdings
// and P&L, export or import snapshots, and run a cloud sync for one owner.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds every command to c
func register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&recalcCmd{}, "positions")
	c.Register(&positionsCmd{}, "positions")
	c.Register(&pnlCmd{}, "positions")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&syncCmd{}, "data")
}
