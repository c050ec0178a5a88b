// Package drift fingerprints schemas with merkle trees.
// A fingerprint covers every attribute the comparator checks, so a declared
// schema and a live schema that compare equal share the same root hash, and
// differing roots can be drilled down to the tables and columns that differ.
package drift

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cbergoon/merkletree"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/schema"
)

// SchemaHash represents the merkle root hash of a schema.
type SchemaHash struct {
	Root   string                // Root hash of entire schema
	Tables map[string]*TableHash // Individual table hashes for drill-down
}

// TableHash represents the hash of a single table.
type TableHash struct {
	Name    string            // Qualified table name (schema.table)
	Hash    string            // Hash of entire table structure, column order included
	Order   []string          // Column names in ordinal order
	Columns map[string]string // Column name -> hash
}

// tableContent implements merkletree.Content for table-level hashing.
type tableContent struct {
	name string
	hash string
}

func (t tableContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256([]byte(t.name + "=" + t.hash))
	return h[:], nil
}

func (t tableContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(tableContent)
	if !ok {
		return false, nil
	}
	return t.name == o.name && t.hash == o.hash, nil
}

// ComputeSchemaHash computes the merkle tree hash over tables.
// Tables are sorted by qualified name so input order does not matter.
func ComputeSchemaHash(tables []*schema.Table) (*SchemaHash, error) {
	result := &SchemaHash{
		Tables: make(map[string]*TableHash, len(tables)),
	}

	for _, t := range tables {
		if t == nil {
			continue
		}
		th := computeTableHash(t)
		result.Tables[th.Name] = th
	}

	if len(result.Tables) == 0 {
		result.Root = emptyHash()
		return result, nil
	}

	names := make([]string, 0, len(result.Tables))
	for name := range result.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	contents := make([]merkletree.Content, 0, len(names))
	for _, name := range names {
		contents = append(contents, tableContent{name: name, hash: result.Tables[name].Hash})
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrIntrospection, err, "failed to build merkle tree")
	}

	result.Root = hex.EncodeToString(tree.MerkleRoot())
	return result, nil
}

// DeclarationHash fingerprints a declaration.
func DeclarationHash(decl *schema.Declaration) (*SchemaHash, error) {
	return ComputeSchemaHash(decl.Tables())
}

// LiveHash fingerprints tables read from a database.
func LiveHash(live map[schema.TableKey]*schema.Table) (*SchemaHash, error) {
	tables := make([]*schema.Table, 0, len(live))
	for _, t := range live {
		tables = append(tables, t)
	}
	return ComputeSchemaHash(tables)
}

// computeTableHash hashes columns in ordinal order, since columns are
// compared by position.
func computeTableHash(t *schema.Table) *TableHash {
	result := &TableHash{
		Name:    t.QualifiedName(),
		Order:   make([]string, 0, len(t.Columns)),
		Columns: make(map[string]string, len(t.Columns)),
	}

	columnHashes := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if col == nil {
			continue
		}
		h := computeColumnHash(col)
		result.Order = append(result.Order, col.Name)
		result.Columns[col.Name] = h
		columnHashes = append(columnHashes, col.Name+":"+h)
	}

	result.Hash = hashString(fmt.Sprintf("table:%s|columns:[%s]",
		result.Name, strings.Join(columnHashes, ",")))
	return result
}

// computeColumnHash covers the attributes the comparator checks by default.
// Nullability and uniqueness are left out.
func computeColumnHash(col *schema.Column) string {
	data := fmt.Sprintf("name:%s|type:%s|pk:%v",
		col.Name,
		col.TypeString(),
		col.PrimaryKey,
	)

	// Defaults on primary keys are ignored by the comparator.
	if !col.PrimaryKey && col.ServerDefault != nil {
		data += "|default:" + compare.NormalizeExpr(col.ServerDefault.SQL)
	}
	if col.ServerOnUpdate != nil {
		data += "|onupdate:" + compare.NormalizeExpr(col.ServerOnUpdate.SQL)
	}

	return hashString(data)
}

// hashString computes SHA256 hash of a string and returns hex encoding.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// emptyHash returns a consistent hash for empty schemas.
func emptyHash() string {
	return hashString("empty_schema")
}

// CompareHashes compares two schema hashes and returns differences.
func CompareHashes(expected, actual *SchemaHash) *HashComparison {
	result := &HashComparison{
		Match:         expected.Root == actual.Root,
		ExpectedRoot:  expected.Root,
		ActualRoot:    actual.Root,
		TableDiffs:    make(map[string]*TableDiff),
		MissingTables: []string{},
		ExtraTables:   []string{},
	}

	if result.Match {
		return result
	}

	// Find missing tables (in expected but not in actual)
	for name := range expected.Tables {
		if _, exists := actual.Tables[name]; !exists {
			result.MissingTables = append(result.MissingTables, name)
		}
	}
	sort.Strings(result.MissingTables)

	// Find extra tables (in actual but not in expected)
	for name := range actual.Tables {
		if _, exists := expected.Tables[name]; !exists {
			result.ExtraTables = append(result.ExtraTables, name)
		}
	}
	sort.Strings(result.ExtraTables)

	// Compare tables that exist in both
	for name, expectedTable := range expected.Tables {
		actualTable, exists := actual.Tables[name]
		if !exists {
			continue // Already captured as missing
		}

		if expectedTable.Hash != actualTable.Hash {
			result.TableDiffs[name] = compareTableHashes(expectedTable, actualTable)
		}
	}

	return result
}

// HashComparison represents the result of comparing two schema hashes.
type HashComparison struct {
	Match         bool                  // True if schemas are identical
	ExpectedRoot  string                // Expected schema root hash
	ActualRoot    string                // Actual schema root hash
	TableDiffs    map[string]*TableDiff // Tables with differences
	MissingTables []string              // Tables missing from actual
	ExtraTables   []string              // Extra tables in actual
}

// ModifiedTables returns the names of tables with differences, sorted.
func (c *HashComparison) ModifiedTables() []string {
	names := make([]string, 0, len(c.TableDiffs))
	for name := range c.TableDiffs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TableDiff represents differences within a table.
type TableDiff struct {
	Name            string   // Table name
	MissingColumns  []string // Columns missing from actual
	ExtraColumns    []string // Extra columns in actual
	ModifiedColumns []string // Columns with different definitions
	Reordered       bool     // Same columns in a different order
}

// HasDifferences returns true if the table has any differences.
func (d *TableDiff) HasDifferences() bool {
	return len(d.MissingColumns) > 0 ||
		len(d.ExtraColumns) > 0 ||
		len(d.ModifiedColumns) > 0 ||
		d.Reordered
}

// compareTableHashes compares two table hashes and returns differences.
func compareTableHashes(expected, actual *TableHash) *TableDiff {
	diff := &TableDiff{Name: expected.Name}

	for name, hash := range expected.Columns {
		actualHash, exists := actual.Columns[name]
		if !exists {
			diff.MissingColumns = append(diff.MissingColumns, name)
		} else if hash != actualHash {
			diff.ModifiedColumns = append(diff.ModifiedColumns, name)
		}
	}
	for name := range actual.Columns {
		if _, exists := expected.Columns[name]; !exists {
			diff.ExtraColumns = append(diff.ExtraColumns, name)
		}
	}

	sort.Strings(diff.MissingColumns)
	sort.Strings(diff.ExtraColumns)
	sort.Strings(diff.ModifiedColumns)

	if len(diff.MissingColumns) == 0 && len(diff.ExtraColumns) == 0 {
		diff.Reordered = strings.Join(expected.Order, ",") != strings.Join(actual.Order, ",")
	}

	return diff
}
