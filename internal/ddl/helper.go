// Package ddl executes the schema changes that version update procedures ask for.
//
// Every operation that changes the database runs inside its own transaction:
// a failing statement rolls back everything the operation did, so an
// operation is either fully visible or not visible at all.
package ddl

import (
	"context"
	"database/sql"
	"log/slog"
	"slices"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/schema"
)

// Helper builds dialect-specific DDL and executes it against a database.
type Helper struct {
	db      *sql.DB
	dialect dialect.Dialect
	catalog introspect.Catalog
	logger  *slog.Logger
	dryRun  bool
	hook    func(stmt string)

	recorded []string
}

// Option configures a Helper.
type Option func(*Helper)

// WithDryRun records statements instead of executing them.
// Existence checks still read the live database.
func WithDryRun() Option {
	return func(h *Helper) { h.dryRun = true }
}

// WithStatementHook registers fn to observe every statement before it runs.
func WithStatementHook(fn func(stmt string)) Option {
	return func(h *Helper) { h.hook = fn }
}

// WithLogger sets the logger. Statements are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(h *Helper) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Helper for db using dialect d.
// Returns an error if either is nil or no introspector exists for d.
func New(db *sql.DB, d dialect.Dialect, opts ...Option) (*Helper, error) {
	if db == nil {
		return nil, alerr.New(alerr.ErrSQLConnection, "database handle is nil")
	}
	if d == nil {
		return nil, alerr.New(alerr.ErrUnsupportedDialect, "dialect is nil")
	}
	cat, err := introspect.New(db, d)
	if err != nil {
		return nil, err
	}

	h := &Helper{
		db:      db,
		dialect: d,
		catalog: cat,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// With returns a copy of h with opts applied on top of its settings.
// The copy starts with no recorded statements.
func (h *Helper) With(opts ...Option) *Helper {
	c := &Helper{
		db:      h.db,
		dialect: h.dialect,
		catalog: h.catalog,
		logger:  h.logger,
		dryRun:  h.dryRun,
		hook:    h.hook,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the helper's dialect.
func (h *Helper) Dialect() dialect.Dialect { return h.dialect }

// Catalog returns a catalog reading through the helper's connection.
func (h *Helper) Catalog() introspect.Catalog { return h.catalog }

// DryRun reports whether statements are recorded instead of executed.
func (h *Helper) DryRun() bool { return h.dryRun }

// Statements returns the statements recorded so far in dry-run mode.
func (h *Helper) Statements() []string {
	return slices.Clone(h.recorded)
}

// SchemaExists reports whether the schema exists.
func (h *Helper) SchemaExists(ctx context.Context, name string) (bool, error) {
	return h.catalog.SchemaExists(ctx, name)
}

// TableExists reports whether the table exists.
func (h *Helper) TableExists(ctx context.Context, schemaName, table string) (bool, error) {
	return h.catalog.TableExists(ctx, schemaName, table)
}

// AddColumn adds col to an existing table with ALTER TABLE ADD COLUMN.
func (h *Helper) AddColumn(ctx context.Context, schemaName, table string, col *schema.Column) error {
	if err := col.Validate(); err != nil {
		return err
	}
	stmt, err := h.dialect.AddColumnSQL(schemaName, table, col)
	if err != nil {
		return err
	}

	return h.runInTransaction(ctx, "add column", func(s *step) error {
		if err := s.exec(ctx, stmt); err != nil {
			return err.WithTable(schemaName, table).WithColumn(col.Name)
		}
		return nil
	})
}

// CreateTable creates t. On dialects without native schemas the table's
// schema is registered as well.
func (h *Helper) CreateTable(ctx context.Context, t *schema.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	stmts, err := h.createTableStatements(t)
	if err != nil {
		return err
	}

	return h.runInTransaction(ctx, "create table", func(s *step) error {
		for _, stmt := range stmts {
			if err := s.exec(ctx, stmt); err != nil {
				return err.WithTable(t.Schema, t.Name)
			}
		}
		return nil
	})
}

// DropTable drops a table if it exists.
func (h *Helper) DropTable(ctx context.Context, schemaName, table string) error {
	stmt := h.dialect.DropTableSQL(schemaName, table, true)
	return h.runInTransaction(ctx, "drop table", func(s *step) error {
		if err := s.exec(ctx, stmt); err != nil {
			return err.WithTable(schemaName, table)
		}
		return nil
	})
}

// CreateSchema creates a schema. An existing schema is left untouched
// unless dropExisting is set, in which case it is dropped with all of its
// tables and created again.
func (h *Helper) CreateSchema(ctx context.Context, name string, dropExisting bool) error {
	if name == "" {
		return alerr.New(alerr.ErrDeclaration, "schema name is required")
	}

	return h.runInTransaction(ctx, "create schema", func(s *step) error {
		exists, err := s.catalog.SchemaExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			if !dropExisting {
				h.logger.Debug("schema already exists", "schema", name)
				return nil
			}
			if err := s.dropSchema(ctx, name); err != nil {
				return err
			}
		}
		return s.execAll(ctx, h.dialect.CreateSchemaSQL(name), name)
	})
}

// DropSchema drops a schema and every table in it.
func (h *Helper) DropSchema(ctx context.Context, name string) error {
	if name == "" {
		return alerr.New(alerr.ErrDeclaration, "schema name is required")
	}
	return h.runInTransaction(ctx, "drop schema", func(s *step) error {
		return s.dropSchema(ctx, name)
	})
}

// Initialize materializes every table of decl against a database that holds
// none of them, creating missing schemas first. Everything runs in one
// transaction. It fails with ErrDatabaseNotEmpty if any declared table
// already exists.
func (h *Helper) Initialize(ctx context.Context, decl *schema.Declaration) error {
	if err := decl.Validate(); err != nil {
		return err
	}

	var stmts []string
	for _, t := range decl.Tables() {
		sqls, err := h.createTableStatements(t)
		if err != nil {
			return err
		}
		stmts = append(stmts, sqls...)
	}

	return h.runInTransaction(ctx, "initialize", func(s *step) error {
		var existing []string
		for _, k := range decl.Keys() {
			ok, err := s.catalog.TableExists(ctx, k.Schema, k.Name)
			if err != nil {
				return err
			}
			if ok {
				existing = append(existing, k.String())
			}
		}
		if len(existing) > 0 {
			return alerr.Newf(alerr.ErrDatabaseNotEmpty, "database already contains %d declared table(s)", len(existing)).
				With("tables", existing).
				WithHelp("initialize only runs against an empty database; use migrate instead")
		}

		if h.dialect.SupportsSchemas() {
			for _, name := range decl.Schemas() {
				if name == "" {
					continue
				}
				ok, err := s.catalog.SchemaExists(ctx, name)
				if err != nil {
					return err
				}
				if !ok {
					if err := s.execAll(ctx, h.dialect.CreateSchemaSQL(name), name); err != nil {
						return err
					}
				}
			}
		}

		for _, stmt := range stmts {
			if err := s.exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// Exec runs hand-written statements in a single transaction.
func (h *Helper) Exec(ctx context.Context, stmts ...string) error {
	if len(stmts) == 0 {
		return nil
	}
	return h.runInTransaction(ctx, "execute", func(s *step) error {
		for _, stmt := range stmts {
			if err := s.exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *Helper) createTableStatements(t *schema.Table) ([]string, error) {
	var stmts []string
	if t.Schema != "" && !h.dialect.SupportsSchemas() {
		stmts = append(stmts, h.dialect.CreateSchemaSQL(t.Schema)...)
	}
	create, err := h.dialect.CreateTableSQL(t, false)
	if err != nil {
		return nil, err
	}
	return append(stmts, create), nil
}
