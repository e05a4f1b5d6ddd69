package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/pkg/logger"
	"github.com/google/subcommands"
)

// stdout receives command output; logs go to stderr so output stays pipeable
var stdout io.Writer = os.Stdout

// ownerFlag is embedded by every owner-scoped command
type ownerFlag struct {
	owner string
}

func (o *ownerFlag) setOwnerFlag(f *flag.FlagSet) {
	f.StringVar(&o.owner, "owner", os.Getenv("TRADEBOOK_OWNER"), "Owner id (defaults to $TRADEBOOK_OWNER)")
}

func (o *ownerFlag) validate() error {
	if o.owner == "" {
		return errors.New("-owner is required")
	}
	return nil
}

// openContainer loads configuration and wires the application
func openContainer(ctx context.Context) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	return di.Wire(ctx, cfg, log)
}

// run opens the container, hands it to fn and closes it afterwards
func run(ctx context.Context, owner *ownerFlag, fn func(c *di.Container) error) subcommands.ExitStatus {
	if owner != nil {
		if err := owner.validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}

	container, err := openContainer(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	if err := fn(container); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
