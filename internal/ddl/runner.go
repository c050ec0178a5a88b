package ddl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/introspect"
)

// step is the execution scope of one operation. Reads go through the
// catalog, which is bound to the operation's transaction when there is one.
type step struct {
	h       *Helper
	op      string
	execer  execer
	catalog introspect.Catalog
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// runInTransaction executes fn within a transaction.
// All statements succeed or all are rolled back.
func (h *Helper) runInTransaction(ctx context.Context, op string, fn func(s *step) error) error {
	if h.dryRun {
		return fn(&step{h: h, op: op, catalog: h.catalog})
	}
	if !h.dialect.SupportsTransactionalDDL() {
		return h.runWithoutTransaction(ctx, op, fn)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to begin transaction").
			With("operation", op)
	}

	// Track if we need to rollback
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				h.logger.Warn("failed to roll back transaction", "operation", op, "error", err)
			}
		}
	}()

	cat, err := introspect.New(tx, h.dialect)
	if err != nil {
		return err
	}
	if err := fn(&step{h: h, op: op, execer: tx, catalog: cat}); err != nil {
		h.logger.Debug("operation rolled back", "operation", op, "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return alerr.Wrap(alerr.ErrSQLTransaction, err, "failed to commit transaction").
			With("operation", op)
	}
	committed = true

	return nil
}

// runWithoutTransaction executes fn directly against the database.
// Used for databases that don't support transactional DDL.
func (h *Helper) runWithoutTransaction(ctx context.Context, op string, fn func(s *step) error) error {
	return fn(&step{h: h, op: op, execer: h.db, catalog: h.catalog})
}

// exec runs or records one statement.
func (s *step) exec(ctx context.Context, stmt string) *alerr.Error {
	if s.h.hook != nil {
		s.h.hook(stmt)
	}
	if s.execer == nil {
		s.h.recorded = append(s.h.recorded, stmt)
		s.h.logger.Debug("recorded statement", "operation", s.op, "sql", stmt)
		return nil
	}

	s.h.logger.Debug("executing statement", "operation", s.op, "sql", stmt)
	if _, err := s.execer.ExecContext(ctx, stmt); err != nil {
		return alerr.WrapSQL(err, s.op, stmt)
	}
	return nil
}

// execAll runs statements that all concern schemaName.
func (s *step) execAll(ctx context.Context, stmts []string, schemaName string) error {
	for _, stmt := range stmts {
		if err := s.exec(ctx, stmt); err != nil {
			return err.With("schema", schemaName)
		}
	}
	return nil
}

// dropSchema drops an emulated schema's tables before the schema itself.
// Native schemas drop their tables with CASCADE.
func (s *step) dropSchema(ctx context.Context, name string) error {
	d := s.h.dialect
	if !d.SupportsSchemas() {
		tables, err := s.catalog.SchemaTables(ctx, name)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if err := s.exec(ctx, d.DropTableSQL(name, t, true)); err != nil {
				return err.WithTable(name, t)
			}
		}
	}
	return s.execAll(ctx, d.DropSchemaSQL(name), name)
}
