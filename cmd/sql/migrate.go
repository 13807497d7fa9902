package sql

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/bankrates/cmd/env"
	dbpkg "github.com/sig-0/bankrates/storage/sql"
)

const schemaDir = "schema"

// migrateCfg wraps the migrate configuration
type migrateCfg struct {
	rootCfg *sqlCfg
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(rootCfg *sqlCfg) *ffcli.Command {
	cfg := &migrateCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	rootCfg.RegisterFlags(fs)

	return &ffcli.Command{
		Name:       "migrate",
		ShortUsage: "sql migrate [migration.sql, migration2.sql ...]",
		LongHelp:   "Runs the DB migrations. Without arguments, every bundled migration is run in order",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *migrateCfg) exec(ctx context.Context, args []string) error {
	timeout, err := time.ParseDuration(c.rootCfg.timeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid migration timeout %q", c.rootCfg.timeout)
	}

	migrations, err := resolveMigrations(args)
	if err != nil {
		return err
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded")
	}

	dsn := os.Getenv(env.Prefix + env.DBURLSuffix)
	if dsn == "" {
		return fmt.Errorf("missing %s", env.Prefix+env.DBURLSuffix)
	}

	// Open the DB
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to DB: %w", err)
	}

	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			fmt.Printf("Unable to gracefully close DB: %s\n", err.Error())
		}
	}()

	// Ping the DB
	if err = conn.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping DB: %w", err)
	}

	for _, name := range migrations {
		sqlBytes, err := dbpkg.SchemaFS.ReadFile(path.Join(schemaDir, name))
		if err != nil {
			return fmt.Errorf("unable to read migration %q: %w", name, err)
		}

		fmt.Printf("Running migration %s...\n", name)

		migrateCtx, cancelFn := context.WithTimeout(ctx, timeout)

		// No arguments, so the script runs over the simple protocol
		_, err = conn.Exec(migrateCtx, string(sqlBytes))

		cancelFn()

		if err != nil {
			return fmt.Errorf("unable to run migration %q: %w", name, err)
		}

		fmt.Printf("Migration %q complete\n", name)
	}

	fmt.Println("All migrations complete!")

	return nil
}

// resolveMigrations returns the migrations to run. Without arguments,
// every bundled migration is returned, ordered by name
func resolveMigrations(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	matches, err := fs.Glob(dbpkg.SchemaFS, path.Join(schemaDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("unable to list migrations: %w", err)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no migration files found")
	}

	names := make([]string, 0, len(matches))

	for _, match := range matches {
		names = append(names, path.Base(match))
	}

	sort.Strings(names)

	return names, nil
}
