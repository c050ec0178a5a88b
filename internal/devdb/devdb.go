// Package devdb rehearses a version chain against an ephemeral database.
//
// A rehearsal builds the chain's root in a scratch in-memory SQLite
// database and then migrates it to the target, verifying every version
// along the way. It catches update procedures that do not produce their
// declared schema before they ever touch a real database.
package devdb

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/ddl"
	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/migrate"
	"github.com/hlop3z/schemaver/internal/version"
)

// DevDatabase is an ephemeral in-memory SQLite database.
type DevDatabase struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens a new in-memory dev database.
func New(ctx context.Context, logger *slog.Logger) (*DevDatabase, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to create dev database")
	}
	// every :memory: connection is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, alerr.Wrap(alerr.ErrSQLConnection, err, "failed to ping dev database")
	}

	return &DevDatabase{db: db, logger: logger}, nil
}

// Close closes the dev database.
func (d *DevDatabase) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// DB returns the underlying connection.
func (d *DevDatabase) DB() *sql.DB { return d.db }

// Rehearsal is the result of replaying a chain.
type Rehearsal struct {
	// Versions are the chain's identifiers, oldest first.
	Versions []string

	// Applied lists the versions whose update procedures ran.
	Applied []string

	// Statements is every DDL statement executed, in order.
	Statements []string

	Duration time.Duration
}

// Options tunes a rehearsal.
type Options struct {
	MaxDepth int
	Compare  compare.Options
}

// Rehearse initializes target's root version and migrates to target,
// verifying each version after its update procedure. The dev database must
// be empty; use a fresh one per rehearsal.
func (d *DevDatabase) Rehearse(ctx context.Context, target *version.Version, opts Options) (*Rehearsal, error) {
	start := time.Now()
	chain, err := target.Chain(opts.MaxDepth)
	if err != nil {
		return nil, err
	}

	r := &Rehearsal{Versions: make([]string, len(chain))}
	for i, v := range chain {
		r.Versions[i] = v.ID()
	}

	h, err := ddl.New(d.db, dialect.SQLite(),
		ddl.WithLogger(d.logger),
		ddl.WithStatementHook(func(stmt string) { r.Statements = append(r.Statements, stmt) }),
	)
	if err != nil {
		return nil, err
	}

	driver := migrate.New(h,
		migrate.WithLogger(d.logger.With("rehearsal", true)),
		migrate.WithMaxDepth(opts.MaxDepth),
		migrate.WithVerifySteps(true),
		migrate.WithCompareOptions(opts.Compare),
	)

	root := chain[0]
	if _, err := driver.Initialize(ctx, root); err != nil {
		return nil, err
	}
	if root != target {
		out, err := driver.Migrate(ctx, target)
		if err != nil {
			return nil, err
		}
		r.Applied = out.Applied
	}

	r.Duration = time.Since(start)
	d.logger.Info("rehearsal complete", "target", target.ID(), "versions", len(chain), "statements", len(r.Statements))
	return r, nil
}

// Rehearse replays target's chain in a fresh dev database.
func Rehearse(ctx context.Context, target *version.Version, opts Options, logger *slog.Logger) (*Rehearsal, error) {
	d, err := New(ctx, logger)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Rehearse(ctx, target, opts)
}
