package schemaver

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/ddl"
	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/drift"
	"github.com/hlop3z/schemaver/internal/migrate"
)

// Client runs version detection and migrations against one database.
// Create one with Open and release it with Close.
type Client struct {
	db      *sql.DB
	ownsDB  bool
	dialect dialect.Dialect
	helper  *ddl.Helper
	config  Config
	logger  *slog.Logger
}

type options struct {
	config Config
	logger *slog.Logger
	db     *sql.DB
	hook   func(string)
}

// Option configures Open.
type Option func(*options)

// WithConfig replaces every setting with cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithDatabaseURL sets the connection URL.
func WithDatabaseURL(url string) Option {
	return func(o *options) { o.config.DatabaseURL = url }
}

// WithDialect sets the dialect instead of detecting it from the URL.
func WithDialect(name string) Option {
	return func(o *options) { o.config.Dialect = name }
}

// WithDriver selects the PostgreSQL driver: "postgres" or "pgx".
func WithDriver(name string) Option {
	return func(o *options) { o.config.Driver = name }
}

// WithMaxChainDepth bounds version chain walks.
func WithMaxChainDepth(n int) Option {
	return func(o *options) { o.config.MaxChainDepth = n }
}

// WithVerifySteps re-verifies every intermediate version during a migration.
func WithVerifySteps(on bool) Option {
	return func(o *options) { o.config.VerifySteps = on }
}

// WithCheckNullability also compares NULL/NOT NULL.
func WithCheckNullability(on bool) Option {
	return func(o *options) { o.config.CheckNullability = on }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDB uses an already open handle instead of opening DatabaseURL.
// The dialect must then be set with WithDialect. Close leaves db open.
func WithDB(db *sql.DB) Option {
	return func(o *options) { o.db = db }
}

// WithStatementHook observes every DDL statement before it runs.
func WithStatementHook(fn func(stmt string)) Option {
	return func(o *options) { o.hook = fn }
}

// Open connects to the configured database and pings it.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	o := &options{config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Dialect == "" {
		if o.db != nil {
			return nil, alerr.New(alerr.ErrConfig, "dialect is required with an existing database handle")
		}
		if cfg.DatabaseURL == "" {
			return nil, alerr.New(alerr.ErrConfig, "database URL is required").
				WithHelp("pass --database-url, set DATABASE_URL or add database_url to " + DefaultConfigFile)
		}
		cfg.Dialect = detectDialect(cfg.DatabaseURL)
	}
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	cfg.Dialect = d.Name()

	db, owns := o.db, false
	if db == nil {
		if cfg.DatabaseURL == "" {
			return nil, alerr.New(alerr.ErrConfig, "database URL is required")
		}
		db, err = openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		owns = true
	}

	hopts := []ddl.Option{ddl.WithLogger(o.logger)}
	if o.hook != nil {
		hopts = append(hopts, ddl.WithStatementHook(o.hook))
	}
	h, err := ddl.New(db, d, hopts...)
	if err != nil {
		if owns {
			db.Close()
		}
		return nil, err
	}

	o.logger.Debug("connected", "dialect", cfg.Dialect, "url", redactURL(cfg.DatabaseURL))
	return &Client{
		db:      db,
		ownsDB:  owns,
		dialect: d,
		helper:  h,
		config:  cfg,
		logger:  o.logger,
	}, nil
}

// openDatabase opens and pings the database named by cfg.
func openDatabase(ctx context.Context, cfg Config) (*sql.DB, error) {
	driverName, dsn := "postgres", cfg.DatabaseURL
	switch {
	case cfg.Dialect == "sqlite":
		driverName, dsn = "sqlite", convertSQLiteURL(cfg.DatabaseURL)
	case cfg.Driver == "pgx":
		driverName = "pgx"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, connectionError(err, cfg, driverName)
	}

	if cfg.Dialect == "sqlite" {
		// Transactions and catalog reads must see the same connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, connectionError(err, cfg, driverName)
	}
	return db, nil
}

func connectionError(err error, cfg Config, driverName string) error {
	return alerr.Wrapf(alerr.ErrSQLConnection, err, "failed to connect to %s database", cfg.Dialect).
		With("url", redactURL(cfg.DatabaseURL)).
		With("driver", driverName)
}

// Close closes the database unless it was supplied with WithDB.
func (c *Client) Close() error {
	if c.ownsDB && c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database handle.
func (c *Client) DB() *sql.DB { return c.db }

// Dialect returns the dialect name.
func (c *Client) Dialect() string { return c.dialect.Name() }

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// RunOption configures a single Migrate or Initialize call.
type RunOption func(*runOptions)

type runOptions struct {
	dryRun bool
}

// WithDryRunMode records the DDL instead of executing it. The statements
// are returned in Outcome.Statements.
func WithDryRunMode() RunOption {
	return func(r *runOptions) { r.dryRun = true }
}

func (c *Client) driver(opts ...RunOption) *migrate.Driver {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	dopts := []migrate.Option{
		migrate.WithLogger(c.logger),
		migrate.WithMaxDepth(c.config.MaxChainDepth),
		migrate.WithVerifySteps(c.config.VerifySteps),
		migrate.WithCompareOptions(compare.Options{CheckNullability: c.config.CheckNullability}),
	}
	if ro.dryRun {
		dopts = append(dopts, migrate.WithDryRun())
	}
	return migrate.New(c.helper, dopts...)
}

// Detect returns the newest version of target's chain that the database
// matches, walking from target toward the root.
func (c *Client) Detect(ctx context.Context, target *Version) (*Version, error) {
	return c.driver().Detect(ctx, target)
}

// Plan lists the versions a migration to target would apply.
func (c *Client) Plan(ctx context.Context, target *Version) (*Plan, error) {
	return c.driver().Plan(ctx, target)
}

// Migrate brings the database to target.
func (c *Client) Migrate(ctx context.Context, target *Version, opts ...RunOption) (*Outcome, error) {
	return c.driver(opts...).Migrate(ctx, target)
}

// Initialize builds target's schema in a database that holds none of its
// tables.
func (c *Client) Initialize(ctx context.Context, target *Version, opts ...RunOption) (*Outcome, error) {
	return c.driver(opts...).Initialize(ctx, target)
}

// Status reports where the database stands relative to target without
// changing it.
func (c *Client) Status(ctx context.Context, target *Version) (*Report, error) {
	return c.driver().Status(ctx, target)
}

// Diff compares fingerprints of target's declaration and the live tables.
func (c *Client) Diff(ctx context.Context, target *Version) (*drift.Result, error) {
	return c.driver().Diff(ctx, target)
}

// Matches reports whether the database matches v exactly.
func (c *Client) Matches(ctx context.Context, v *Version) (bool, error) {
	return v.Matches(ctx, c.helper.Catalog(), compare.Options{CheckNullability: c.config.CheckNullability})
}

// detectDialect picks the dialect from a connection URL:
//   - postgres:// or postgresql:// -> postgres
//   - sqlite://, sqlite3://, file: or a .db/.sqlite/.sqlite3 path -> sqlite
//
// Anything else is assumed to be a PostgreSQL DSN.
func detectDialect(url string) string {
	url = strings.ToLower(url)
	switch {
	case strings.HasPrefix(url, "postgres://"),
		strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "sqlite3://"),
		strings.HasPrefix(url, "file:"),
		url == ":memory:":
		return "sqlite"
	}

	path := url
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(path, ext) {
			return "sqlite"
		}
	}
	return "postgres"
}

// convertSQLiteURL turns a sqlite:// URL into the path the driver expects.
// file: URLs are passed through; the driver understands them.
func convertSQLiteURL(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	return strings.TrimPrefix(url, "sqlite3://")
}

// sqlitePath returns the file behind a SQLite URL, or "" for in-memory
// databases.
func sqlitePath(url string) string {
	p := strings.TrimPrefix(convertSQLiteURL(url), "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == ":memory:" || p == "" {
		return ""
	}
	return p
}

// redactURL hides the password of a URL for logs and errors.
func redactURL(url string) string {
	start := strings.Index(url, "://")
	if start == -1 {
		return url
	}
	start += 3

	end := strings.Index(url[start:], "@")
	if end == -1 {
		return url
	}
	end += start

	credentials := url[start:end]
	if i := strings.Index(credentials, ":"); i != -1 {
		return url[:start] + credentials[:i] + ":***@" + url[end+1:]
	}
	return url
}
