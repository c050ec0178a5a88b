package drift

import (
	"context"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/schema"
)

// Detector compares a declaration against the live database by fingerprint.
type Detector struct {
	reader introspect.Reader
}

// NewDetector creates a new drift detector reading through r.
func NewDetector(r introspect.Reader) *Detector {
	return &Detector{reader: r}
}

// Result represents the complete drift detection result.
type Result struct {
	// HasDrift is true if any differences were found
	HasDrift bool

	// ExpectedHash is the merkle root of the declared schema
	ExpectedHash string

	// ActualHash is the merkle root of the live tables that were read
	ActualHash string

	// Comparison contains detailed comparison results
	Comparison *HashComparison

	// Tables is the number of declared tables
	Tables int
}

// Detect reads the declared tables from the database and compares
// fingerprints. Undeclared live tables are never read, so they never
// count as drift.
func (d *Detector) Detect(ctx context.Context, decl *schema.Declaration) (*Result, error) {
	live, err := introspect.ReadDeclared(ctx, d.reader, decl)
	if err != nil {
		return nil, err
	}

	expectedHash, err := DeclarationHash(decl)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrIntrospection, err, "failed to compute declared schema hash")
	}

	actualHash, err := LiveHash(live)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrIntrospection, err, "failed to compute live schema hash")
	}

	comparison := CompareHashes(expectedHash, actualHash)

	return &Result{
		HasDrift:     !comparison.Match,
		ExpectedHash: expectedHash.Root,
		ActualHash:   actualHash.Root,
		Comparison:   comparison,
		Tables:       decl.Len(),
	}, nil
}

// Summary provides a human-readable summary of drift detection results.
type Summary struct {
	// Tables is the total number of declared tables
	Tables int `json:"tables"`

	// MissingTables is the count of tables missing from database
	MissingTables int `json:"missing_tables"`

	// ModifiedTables is the count of tables with differences
	ModifiedTables int `json:"modified_tables"`

	// Details contains per-table drift information
	Details []TableSummary `json:"details"`
}

// TableSummary summarizes drift for a single table.
type TableSummary struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // "missing", "modified"
	Missing   int    `json:"missing_columns"`
	Extra     int    `json:"extra_columns"`
	Modified  int    `json:"modified_columns"`
	Reordered bool   `json:"reordered"`
}

// Summarize creates a human-readable summary from drift detection result.
func Summarize(result *Result) *Summary {
	if result == nil || result.Comparison == nil {
		return &Summary{}
	}

	summary := &Summary{
		Tables:         result.Tables,
		MissingTables:  len(result.Comparison.MissingTables),
		ModifiedTables: len(result.Comparison.TableDiffs),
		Details:        []TableSummary{},
	}

	for _, name := range result.Comparison.MissingTables {
		summary.Details = append(summary.Details, TableSummary{
			Name:   name,
			Status: "missing",
		})
	}

	for _, name := range result.Comparison.ModifiedTables() {
		diff := result.Comparison.TableDiffs[name]
		summary.Details = append(summary.Details, TableSummary{
			Name:      name,
			Status:    "modified",
			Missing:   len(diff.MissingColumns),
			Extra:     len(diff.ExtraColumns),
			Modified:  len(diff.ModifiedColumns),
			Reordered: diff.Reordered,
		})
	}

	return summary
}
