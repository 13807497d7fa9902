package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/bankrates/cmd/env"
	"github.com/sig-0/bankrates/config"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath    string
	listenAddress string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the bankrates backend",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeBadgerCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the TOML configuration, if any",
	)
}

// load reads the configuration file (if any), applies the flag overrides,
// loads the .env file and creates the service logger
func (c *serveCfg) load() (*slog.Logger, error) {
	// Read the configuration, if any
	if c.configPath != "" {
		cfg, err := config.Read(c.configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		c.config = cfg
	}

	// An explicit listen flag wins over the file
	if c.listenAddress != "" && (c.configPath == "" || c.listenAddress != config.DefaultListenAddress) {
		c.config.ListenAddress = c.listenAddress
	}

	// Create a new logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	return logger, nil
}
