// Package version models the chain of schema versions an application ships.
//
// Each Version owns the declaration of the full schema at that point, a link
// to its predecessor and the hand-written procedure that brings a database
// from the predecessor's shape to its own. The root version has no
// predecessor and no update procedure.
package version

import (
	"context"
	"fmt"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/drift"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/schema"
)

// DefaultMaxDepth bounds chain walks when no limit is configured.
const DefaultMaxDepth = 1000

// DeclareFunc populates a version's declaration. It runs once, in New.
type DeclareFunc func(d *schema.Declaration)

// UpdateFunc migrates a database from the predecessor's schema to this
// version's schema.
type UpdateFunc func(ctx context.Context, u *Update) error

// Version is one immutable node of a version chain.
type Version struct {
	id     string
	prev   *Version
	decl   *schema.Declaration
	update UpdateFunc
}

// New builds a version and validates its declaration.
// prev is nil for the root version; every other version needs an update
// procedure. Identifiers must be unique along the lineage.
func New(id string, prev *Version, declare DeclareFunc, update UpdateFunc) (*Version, error) {
	if id == "" {
		return nil, alerr.New(alerr.ErrChain, "version identifier is required")
	}
	if declare == nil {
		return nil, alerr.New(alerr.ErrDeclaration, "version has no declaration").WithVersion(id)
	}
	if prev != nil && update == nil {
		return nil, alerr.New(alerr.ErrChain, "version has a predecessor but no update procedure").
			WithVersion(id).
			With("previous", prev.id)
	}

	if prev != nil {
		lineage, err := prev.Lineage(DefaultMaxDepth)
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrChain, err, "invalid predecessor chain").WithVersion(id)
		}
		for _, p := range lineage {
			if p.id == id {
				return nil, alerr.Newf(alerr.ErrChain, "duplicate version identifier %q in lineage", id).
					WithVersion(id)
			}
		}
	}

	decl := schema.NewDeclaration()
	declare(decl)
	if decl.Len() == 0 {
		return nil, alerr.New(alerr.ErrDeclaration, "version declares no tables").WithVersion(id)
	}
	if err := decl.Validate(); err != nil {
		return nil, alerr.Wrap(alerr.ErrDeclaration, err, "invalid declaration").WithVersion(id)
	}

	return &Version{id: id, prev: prev, decl: decl, update: update}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// chain definitions.
func MustNew(id string, prev *Version, declare DeclareFunc, update UpdateFunc) *Version {
	v, err := New(id, prev, declare, update)
	if err != nil {
		panic(err)
	}
	return v
}

// ID returns the version identifier.
func (v *Version) ID() string { return v.id }

// Prev returns the predecessor, or nil for the root.
func (v *Version) Prev() *Version { return v.prev }

// IsRoot reports whether v has no predecessor.
func (v *Version) IsRoot() bool { return v.prev == nil }

// Declaration returns the version's declaration.
// Only the version's own update procedure may extend it.
func (v *Version) Declaration() *schema.Declaration { return v.decl }

func (v *Version) String() string {
	if v == nil {
		return "<none>"
	}
	return v.id
}

// Lineage returns v and its predecessors, newest first, ending at the root.
// Walking more than maxDepth versions, or revisiting one, is a chain error.
func (v *Version) Lineage(maxDepth int) ([]*Version, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var lineage []*Version
	seen := make(map[*Version]bool)
	for cur := v; cur != nil; cur = cur.prev {
		if seen[cur] {
			return nil, alerr.Newf(alerr.ErrChain, "version chain has a cycle at %q", cur.id).
				WithVersion(v.id)
		}
		if len(lineage) == maxDepth {
			return nil, alerr.Newf(alerr.ErrChain, "version chain exceeds maximum depth %d", maxDepth).
				WithVersion(v.id).
				WithHelp("check for an unbounded chain or raise the maximum depth")
		}
		seen[cur] = true
		lineage = append(lineage, cur)
	}
	return lineage, nil
}

// Chain returns the lineage oldest first.
func (v *Version) Chain(maxDepth int) ([]*Version, error) {
	lineage, err := v.Lineage(maxDepth)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(lineage)-1; i < j; i, j = i+1, j-1 {
		lineage[i], lineage[j] = lineage[j], lineage[i]
	}
	return lineage, nil
}

// Check compares the declaration against the live database. Tables are read
// with one query per distinct schema.
func (v *Version) Check(ctx context.Context, r introspect.Reader, opts compare.Options) (compare.Result, error) {
	live, err := introspect.ReadDeclared(ctx, r, v.decl)
	if err != nil {
		return compare.Result{}, err
	}
	return compare.Declaration(v.decl, live, opts), nil
}

// Matches reports whether the live database equals this version.
// A missing table is a mismatch, not an error.
func (v *Version) Matches(ctx context.Context, r introspect.Reader, opts compare.Options) (bool, error) {
	res, err := v.Check(ctx, r, opts)
	if err != nil {
		return false, err
	}
	return res.Match(), nil
}

// Fingerprint returns the merkle root of the declaration.
func (v *Version) Fingerprint() (string, error) {
	h, err := drift.DeclarationHash(v.decl)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", v.id, err)
	}
	return h.Root, nil
}
