package serve

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/bankrates/cmd/env"
	"github.com/sig-0/bankrates/storage/badger"
)

const defaultBadgerDir = "bankrates-data"

type serveBadgerCfg struct {
	rootCfg *serveCfg

	dir string
}

// newServeBadgerCmd creates the serve badger command
func newServeBadgerCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveBadgerCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("badger", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.dir,
		"badger-dir",
		defaultBadgerDir,
		"the directory of the embedded badger datastore",
	)

	return &ffcli.Command{
		Name:       "badger",
		ShortUsage: "serve badger [flags]",
		LongHelp:   "Serves the bankrates backend, using an embedded badger datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

// exec executes the serve badger command
func (c *serveBadgerCfg) exec(ctx context.Context, _ []string) error {
	logger, err := c.rootCfg.load()
	if err != nil {
		return err
	}

	if c.dir == "" {
		return fmt.Errorf("missing badger directory")
	}

	store, err := badger.Open(c.dir, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(
				"unable to gracefully close badger store",
				"err", err,
			)
		}
	}()

	logger.Info("badger store opened", "dir", c.dir)

	return run(ctx, c.rootCfg.config, store, logger)
}
