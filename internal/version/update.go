package version

import (
	"context"

	"github.com/hlop3z/schemaver/internal/ddl"
	"github.com/hlop3z/schemaver/internal/schema"
)

// Update is handed to an update procedure. Its helpers execute DDL and keep
// the version's declaration in step with what they created.
type Update struct {
	version *Version
	helper  *ddl.Helper
}

// Apply runs v's update procedure against h. The root version has none and
// applying it is a no-op.
func (v *Version) Apply(ctx context.Context, h *ddl.Helper) error {
	if v.update == nil {
		return nil
	}
	return v.update(ctx, &Update{version: v, helper: h})
}

// Version returns the version being applied.
func (u *Update) Version() *Version { return u.version }

// Declaration returns the version's own declaration.
func (u *Update) Declaration() *schema.Declaration { return u.version.decl }

// Helper returns the DDL helper for operations not wrapped here.
func (u *Update) Helper() *ddl.Helper { return u.helper }

// AddColumn adds col to a table and declares it if the table is declared
// without it.
func (u *Update) AddColumn(ctx context.Context, schemaName, table string, col *schema.Column) error {
	if err := u.helper.AddColumn(ctx, schemaName, table, col); err != nil {
		return err
	}
	if u.helper.DryRun() {
		return nil
	}
	if t := u.version.decl.Lookup(schemaName, table); t != nil {
		t.Extend(col.Clone())
	}
	return nil
}

// CreateTable creates t and declares it if not yet declared.
func (u *Update) CreateTable(ctx context.Context, t *schema.Table) error {
	if err := u.helper.CreateTable(ctx, t); err != nil {
		return err
	}
	if u.helper.DryRun() {
		return nil
	}
	u.version.decl.Add(t.Clone())
	return nil
}

// CreateSchema creates a schema, optionally dropping an existing one first.
func (u *Update) CreateSchema(ctx context.Context, name string, dropExisting bool) error {
	return u.helper.CreateSchema(ctx, name, dropExisting)
}

// Exec runs hand-written statements in one transaction.
func (u *Update) Exec(ctx context.Context, stmts ...string) error {
	return u.helper.Exec(ctx, stmts...)
}
