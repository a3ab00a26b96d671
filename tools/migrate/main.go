package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/migrations"
)

const usage = `usage: migrate [flags] [up | down [n] | force <version> | version]`

func main() {
	_ = config.LoadDotEnv()
	dbURL := flag.String("database-url", config.String("DATABASE_URL", ""), "postgres connection string")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := runtime.NewLogger("migrate")
	if *dbURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	m, closeDB, err := newMigrator(*dbURL)
	if err != nil {
		logger.Error("migrator init failed", "err", err)
		os.Exit(1)
	}
	defer closeDB()
	defer func() { _, _ = m.Close() }()

	if err := run(m, flag.Args()); err != nil {
		logger.Error("migration failed", "args", flag.Args(), "err", err)
		os.Exit(1)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error("read version failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "version", version, "dirty", dirty)
}

func newMigrator(dbURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	closeDB := func() { _ = db.Close() }
	if err := db.Ping(); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("db driver: %w", err)
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("source driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, closeDB, nil
}

// migrator is the subset of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
}

func run(m migrator, args []string) error {
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}
	var err error
	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		if len(args) < 2 {
			err = m.Down()
			break
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil || n <= 0 {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		err = m.Steps(-n)
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version")
		}
		v, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		err = m.Force(v)
	case "version":
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usage)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
