package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hlop3z/schemaver/internal/version"
)

// Plan lists the versions a migration will apply.
type Plan struct {
	// Current is the version the live database matches.
	Current *version.Version

	// Target is the version to migrate to.
	Target *version.Version

	// Pending are the versions after Current up to and including Target,
	// oldest first.
	Pending []*version.Version
}

// IsEmpty returns true if the database is already at the target.
func (p *Plan) IsEmpty() bool {
	return len(p.Pending) == 0
}

// IDs returns the identifiers of the pending versions.
func (p *Plan) IDs() []string {
	return versionIDs(p.Pending)
}

// Status is the kind of result a run produced.
type Status int

const (
	// AlreadyCurrent means the database already matched the target.
	AlreadyCurrent Status = iota
	// Migrated means pending versions were applied and verified.
	Migrated
	// DryRun means statements were recorded but not executed.
	DryRun
	// Initialized means an empty database was built at the target.
	Initialized
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case AlreadyCurrent:
		return "already_current"
	case Migrated:
		return "migrated"
	case DryRun:
		return "dry_run"
	case Initialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// Outcome describes a successful run.
type Outcome struct {
	Status Status

	// From is the version detected before the run; nil for Initialized.
	From *version.Version

	// To is the target version.
	To *version.Version

	// Applied lists the versions whose update procedures ran, in order.
	Applied []string

	// Statements holds the recorded DDL of a dry run.
	Statements []string

	// RunID identifies the run in logs.
	RunID uuid.UUID

	// Duration is the wall time of the run.
	Duration time.Duration
}

// String renders the outcome as one line.
func (o *Outcome) String() string {
	switch o.Status {
	case AlreadyCurrent:
		return "already at target"
	case Migrated:
		return fmt.Sprintf("migrated from %s to %s", o.From, o.To)
	case DryRun:
		return fmt.Sprintf("dry run from %s to %s: %d statement(s) via %s",
			o.From, o.To, len(o.Statements), strings.Join(o.Applied, ", "))
	case Initialized:
		return fmt.Sprintf("initialized at %s", o.To)
	default:
		return o.Status.String()
	}
}

// Report is the read-only state of a database relative to a chain.
type Report struct {
	// Current is the matched version, nil when the database is unrecognized.
	Current *version.Version

	// Target is the version the report was made for.
	Target *version.Version

	// Pending lists versions still to apply; empty when unrecognized.
	Pending []*version.Version

	// Diagnostics are the target's mismatches, one line each.
	Diagnostics []string

	// Ambiguous is set when a live column type was not recognized.
	Ambiguous bool

	// DeclaredFingerprint is the merkle root of the target's declaration.
	DeclaredFingerprint string

	// LiveFingerprint is the merkle root of the live tables the target declares.
	LiveFingerprint string
}

// Recognized reports whether the database matches a version of the chain.
func (r *Report) Recognized() bool {
	return r.Current != nil
}

// UpToDate reports whether the database matches the target.
func (r *Report) UpToDate() bool {
	return r.Current != nil && r.Current == r.Target
}

func versionIDs(vs []*version.Version) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID()
	}
	return ids
}
