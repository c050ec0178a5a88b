// Package lockfile pins the fingerprints of released versions.
//
// A lock file records, for every version of a chain, the merkle fingerprint
// of its declaration, plus an aggregate checksum chained over the whole
// sequence. Databases in the field were migrated to the declarations as they
// were when released; editing a released declaration afterwards makes
// detection fail for them. Verify catches that before deployment.
//
// Format (one entry per line after the aggregate, oldest version first):
//
//	<aggregate>
//	<fingerprint> <version id>
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/version"
)

// DefaultPath is the lock file name, kept next to schemaver.yaml.
const DefaultPath = "schemaver.lock"

// Entry is one locked version.
type Entry struct {
	Version     string
	Fingerprint string
}

// LockFile is the parsed contents of a lock file.
type LockFile struct {
	Aggregate string
	Entries   []Entry
}

// Compute builds the lock for target's chain.
func Compute(target *version.Version, maxDepth int) (*LockFile, error) {
	chain, err := target.Chain(maxDepth)
	if err != nil {
		return nil, err
	}

	lf := &LockFile{Entries: make([]Entry, 0, len(chain))}
	for _, v := range chain {
		fp, err := v.Fingerprint()
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrDeclaration, err, "failed to fingerprint version").WithVersion(v.ID())
		}
		lf.Entries = append(lf.Entries, Entry{Version: v.ID(), Fingerprint: fp})
	}
	lf.Aggregate = computeAggregate(lf.Entries)
	return lf, nil
}

// Read parses the lock file at path. Returns nil if it does not exist.
func Read(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, alerr.Wrap(alerr.ErrConfig, err, "failed to read lock file").With("file", path)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, alerr.New(alerr.ErrConfig, "lock file is empty").With("file", path)
	}

	lf := &LockFile{Aggregate: strings.TrimSpace(lines[0])}
	for i, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, alerr.Newf(alerr.ErrConfig, "malformed lock file entry on line %d", i+2).With("file", path)
		}
		lf.Entries = append(lf.Entries, Entry{
			Version:     strings.TrimSpace(parts[1]),
			Fingerprint: parts[0],
		})
	}
	return lf, nil
}

// Write writes lf to path, creating parent directories.
func Write(path string, lf *LockFile) error {
	var sb strings.Builder
	sb.WriteString(lf.Aggregate + "\n")
	for _, e := range lf.Entries {
		fmt.Fprintf(&sb, "%s %s\n", e.Fingerprint, e.Version)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return alerr.Wrap(alerr.ErrConfig, err, "failed to create lock file directory").With("file", path)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return alerr.Wrap(alerr.ErrConfig, err, "failed to write lock file").With("file", path)
	}
	return nil
}

// VerificationResult is the comparison of a chain with its lock file.
type VerificationResult struct {
	// Valid is false when a locked version changed or disappeared, or the
	// locked versions were reordered. Versions newer than the lock do not
	// invalidate it.
	Valid          bool
	LockFileExists bool
	AggregateMatch bool

	NewVersions      []string
	RemovedVersions  []string
	ModifiedVersions []string
	VerifiedVersions []string
}

// Verify compares target's chain with the lock file at path.
func Verify(path string, target *version.Version, maxDepth int) (*VerificationResult, error) {
	lf, err := Read(path)
	if err != nil {
		return nil, err
	}
	current, err := Compute(target, maxDepth)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{Valid: true, LockFileExists: lf != nil, AggregateMatch: true}
	if lf == nil {
		result.Valid = false
		result.AggregateMatch = false
		for _, e := range current.Entries {
			result.NewVersions = append(result.NewVersions, e.Version)
		}
		return result, nil
	}
	result.AggregateMatch = lf.Aggregate == current.Aggregate

	locked := make(map[string]string, len(lf.Entries))
	for _, e := range lf.Entries {
		locked[e.Version] = e.Fingerprint
	}
	present := make(map[string]bool, len(current.Entries))
	for _, e := range current.Entries {
		present[e.Version] = true
		fp, ok := locked[e.Version]
		switch {
		case !ok:
			result.NewVersions = append(result.NewVersions, e.Version)
		case fp != e.Fingerprint:
			result.ModifiedVersions = append(result.ModifiedVersions, e.Version)
			result.Valid = false
		default:
			result.VerifiedVersions = append(result.VerifiedVersions, e.Version)
		}
	}
	for _, e := range lf.Entries {
		if !present[e.Version] {
			result.RemovedVersions = append(result.RemovedVersions, e.Version)
			result.Valid = false
		}
	}

	// The chain may only grow: the locked entries must be its prefix.
	if len(lf.Entries) <= len(current.Entries) &&
		computeAggregate(current.Entries[:len(lf.Entries)]) != lf.Aggregate && result.Valid {
		result.Valid = false
	}
	return result, nil
}

// Err returns nil for a valid result, otherwise an ErrChain error
// describing what changed.
func (r *VerificationResult) Err() error {
	if r.Valid {
		return nil
	}
	if !r.LockFileExists {
		return alerr.New(alerr.ErrChain, "lock file not found").
			WithHelp("run `schemaver lock` to pin the current chain")
	}
	err := alerr.New(alerr.ErrChain, "chain differs from the lock file")
	if len(r.ModifiedVersions) > 0 {
		err.With("modified", r.ModifiedVersions).
			WithHelp("released declarations must not change; add a new version instead")
	}
	if len(r.RemovedVersions) > 0 {
		err.With("removed", r.RemovedVersions)
	}
	if len(r.ModifiedVersions) == 0 && len(r.RemovedVersions) == 0 {
		err.WithHelp("locked versions were reordered or renamed")
	}
	return err
}

// computeAggregate chains sha256(version, fingerprint, previous) over the
// entries, so the aggregate also pins their order.
func computeAggregate(entries []Entry) string {
	prev := ""
	for _, e := range entries {
		h := sha256.New()
		h.Write([]byte(e.Version))
		h.Write([]byte{0})
		h.Write([]byte(e.Fingerprint))
		h.Write([]byte(prev))
		prev = hex.EncodeToString(h.Sum(nil))
	}
	if prev == "" {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:])
	}
	return prev
}
