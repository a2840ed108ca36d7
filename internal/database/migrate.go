package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable keeps stylekit's schema version apart from any other
// service sharing the database.
const MigrationsTable = "stylekit_schema_migrations"

// Status is the schema state recorded in MigrationsTable.
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Pending reports whether Up would apply anything.
func (s Status) Pending() bool {
	return s.Version < s.Latest
}

// MigratorOption tunes NewMigrator.
type MigratorOption func(*migratorOptions)

type migratorOptions struct {
	logger      *slog.Logger
	lockTimeout time.Duration
	stmtTimeout time.Duration
}

// WithMigrationLogger routes golang-migrate's progress lines to logger.
func WithMigrationLogger(logger *slog.Logger) MigratorOption {
	return func(o *migratorOptions) { o.logger = logger }
}

// WithLockTimeout bounds the wait for the advisory lock another instance holds.
func WithLockTimeout(d time.Duration) MigratorOption {
	return func(o *migratorOptions) { o.lockTimeout = d }
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m   *migrate.Migrate
	src source.Driver
}

func NewMigrator(db *sql.DB, dbName string, opts ...MigratorOption) (*Migrator, error) {
	o := migratorOptions{
		lockTimeout: 30 * time.Second,
		stmtTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		DatabaseName:     dbName,
		MigrationsTable:  MigrationsTable,
		StatementTimeout: o.stmtTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbName, err)
	}
	m.LockTimeout = o.lockTimeout

	if o.logger != nil {
		m.Log = migrateLogger{logger: o.logger.With("component", "migrate")}
	}
	return &Migrator{m: m, src: src}, nil
}

// Up applies every pending migration. Cancelling ctx lets the running
// migration finish and skips the rest.
func (mg *Migrator) Up(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		select {
		case mg.m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return ctx.Err()
}

// Down reverts the most recent migration.
func (mg *Migrator) Down() error {
	return mg.Steps(-1)
}

// Steps applies n migrations forward, or reverts -n when n is negative.
func (mg *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	if err := mg.m.Steps(n); err != nil {
		return fmt.Errorf("migrate %+d steps: %w", n, err)
	}
	return nil
}

// Version returns the applied version; an empty schema is version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the newest embedded migration.
func (mg *Migrator) Status() (Status, error) {
	version, dirty, err := mg.Version()
	if err != nil {
		return Status{}, err
	}
	latest, err := LatestVersion(mg.src)
	if err != nil {
		return Status{}, err
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Force records version without running SQL, clearing a dirty flag left by
// a migration that was repaired by hand. -1 empties the version table.
func (mg *Migrator) Force(version int) error {
	if version < migratedb.NilVersion {
		return fmt.Errorf("force: invalid version %d", version)
	}
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// LatestVersion walks src and returns its highest version.
func LatestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("migration after %d: %w", v, err)
		}
		v = next
	}
}

// migrateLogger adapts slog to golang-migrate's Logger.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
