package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/google/subcommands"
)

type exportCmd struct {
	ownerFlag
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write an owner's data as a JSON snapshot" }
func (*exportCmd) Usage() string {
	return `tradebook export -owner <id> [-o file.json]
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.output, "o", "", "Output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		doc, err := container.SnapshotStore.Export(ctx, c.owner)
		if err != nil {
			return err
		}

		var w io.Writer = stdout
		if c.output != "" {
			f, err := os.Create(c.output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return snapshot.WriteDocument(w, doc)
	})
}

type importCmd struct {
	ownerFlag
	input string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "add the records of a JSON snapshot to an owner" }
func (*importCmd) Usage() string {
	return `tradebook import -owner <id> -i file.json

  Records are added with fresh ids; existing data is kept. Positions are
  imported as stored; run recalc afterwards to derive them from trades.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.setOwnerFlag(f)
	f.StringVar(&c.input, "i", "", "Snapshot file to import")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.input == "" {
		fmt.Fprintln(os.Stderr, "-i is required")
		return subcommands.ExitUsageError
	}

	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		f, err := os.Open(c.input)
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := snapshot.ReadDocument(f)
		if err != nil {
			return err
		}

		unlock := container.Locks.Lock(c.owner)
		defer unlock()

		counts, err := container.SnapshotStore.Import(ctx, c.owner, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "imported %d trades, %d positions, %d broker profiles, %d watchlist items\n",
			counts.Trades, counts.Positions, counts.BrokerProfiles, counts.Watchlist)
		return nil
	})
}

type syncCmd struct {
	ownerFlag
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "reconcile an owner's data with the remote mirror" }
func (*syncCmd) Usage() string {
	return `tradebook sync -owner <id>

  Pushes local data when the remote holds nothing for the owner, otherwise
  replaces local data with the remote copy. Requires SYNC_BACKEND.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) { c.setOwnerFlag(f) }

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, &c.ownerFlag, func(container *di.Container) error {
		result, err := container.Reconciler.Sync(ctx, c.owner)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %d trades, %d positions, %d broker profiles (run %s, %s)\n",
			result.Direction, result.Trades, result.Positions, result.BrokerProfiles,
			result.RunID, result.Duration.Round(1e6))
		return nil
	})
}
