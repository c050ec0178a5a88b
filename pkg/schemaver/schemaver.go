// Package schemaver is the public API for declarative schema versioning.
//
// An application declares its database structure as a chain of versions.
// Each version owns a full declaration of the tables it expects and, except
// for the root, an update procedure that moves a database from the previous
// version to it. At deploy time the client inspects the live database, finds
// the newest version it matches, and runs the remaining update procedures in
// order, verifying the result.
//
// Example:
//
//	v0 := schemaver.MustVersion("v0", nil, func(d *schemaver.Declaration) {
//	    d.Put(schemaver.NewTable("accounts", "user",
//	        schemaver.Int("id").PK(),
//	        schemaver.Str("email", 100).Unq(),
//	    ))
//	}, nil)
//
//	client, err := schemaver.Open(ctx, schemaver.WithDatabaseURL("postgres://localhost/app"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	outcome, err := client.Migrate(ctx, v0)
package schemaver

import (
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/migrate"
	"github.com/hlop3z/schemaver/internal/schema"
	"github.com/hlop3z/schemaver/internal/version"
)

// Declaration model.
type (
	Declaration = schema.Declaration
	Table       = schema.Table
	Column      = schema.Column
	TypeTag     = schema.TypeTag
	Expr        = schema.Expr
)

// Version chain.
type (
	Version     = version.Version
	Update      = version.Update
	DeclareFunc = version.DeclareFunc
	UpdateFunc  = version.UpdateFunc
)

// Run results.
type (
	Outcome    = migrate.Outcome
	Report     = migrate.Report
	Plan       = migrate.Plan
	Status     = migrate.Status
	Diagnostic = compare.Diagnostic
)

// Outcome statuses.
const (
	AlreadyCurrent = migrate.AlreadyCurrent
	Migrated       = migrate.Migrated
	DryRun         = migrate.DryRun
	Initialized    = migrate.Initialized
)

// Column type categories.
const (
	Integer  = schema.Integer
	String   = schema.String
	Text     = schema.Text
	Boolean  = schema.Boolean
	Float    = schema.Float
	Date     = schema.Date
	DateTime = schema.DateTime
)

// Declaration builders.
var (
	NewDeclaration = schema.NewDeclaration
	NewTable       = schema.NewTable
	Col            = schema.Col
	Int            = schema.Int
	Str            = schema.Str
	TextCol        = schema.TextCol
	Bool           = schema.Bool
	FloatCol       = schema.FloatCol
	DateCol        = schema.DateCol
	Timestamp      = schema.Timestamp
	SQL            = schema.SQL
	ParseType      = schema.ParseType
)

// NewVersion creates a version. prev is nil for the root; every other
// version needs an update procedure.
func NewVersion(id string, prev *Version, declare DeclareFunc, update UpdateFunc) (*Version, error) {
	return version.New(id, prev, declare, update)
}

// MustVersion is NewVersion that panics on error. Chains are usually built
// at package init, where a bad declaration is a programming error.
func MustVersion(id string, prev *Version, declare DeclareFunc, update UpdateFunc) *Version {
	return version.MustNew(id, prev, declare, update)
}
