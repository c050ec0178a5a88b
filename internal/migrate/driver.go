// Package migrate drives a database along a version chain.
//
// The driver detects which version the live database matches by walking
// from the target toward the root, then applies each later version's update
// procedure in order and verifies the result. Nothing is retried: the first
// failing update stops the run and leaves the database at the last version
// whose update completed.
package migrate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/ddl"
	"github.com/hlop3z/schemaver/internal/drift"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/version"
)

// Driver detects versions and runs migrations against one database.
type Driver struct {
	helper      *ddl.Helper
	reader      introspect.Reader
	logger      *slog.Logger
	maxDepth    int
	verifySteps bool
	compareOpts compare.Options
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxDepth bounds chain walks. Non-positive values use version.DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(d *Driver) { d.maxDepth = n }
}

// WithVerifySteps re-verifies every intermediate version right after its
// update procedure, not only the target.
func WithVerifySteps(on bool) Option {
	return func(d *Driver) { d.verifySteps = on }
}

// WithCompareOptions sets the comparator options used for every check.
func WithCompareOptions(opts compare.Options) Option {
	return func(d *Driver) { d.compareOpts = opts }
}

// WithDryRun records the DDL a migration would run instead of executing it.
// Detection still reads the live database.
func WithDryRun() Option {
	return func(d *Driver) { d.helper = d.helper.With(ddl.WithDryRun()) }
}

// New creates a driver that executes DDL through h and reads the live
// schema through h's catalog.
func New(h *ddl.Helper, opts ...Option) *Driver {
	d := &Driver{
		helper:   h,
		reader:   h.Catalog(),
		logger:   slog.Default(),
		maxDepth: version.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Helper returns the DDL helper the driver executes through.
func (d *Driver) Helper() *ddl.Helper {
	return d.helper
}

// Detect returns the version the live database currently matches: the
// first match walking from target toward the root. If no version matches,
// it fails with ErrUnrecognizedDatabase.
func (d *Driver) Detect(ctx context.Context, target *version.Version) (*version.Version, error) {
	current, _, err := d.detect(ctx, target, d.logger)
	return current, err
}

// detect also returns the target's comparison result.
func (d *Driver) detect(ctx context.Context, target *version.Version, log *slog.Logger) (*version.Version, compare.Result, error) {
	lineage, err := target.Lineage(d.maxDepth)
	if err != nil {
		return nil, compare.Result{}, err
	}

	var targetResult compare.Result
	ambiguous := false
	tested := make([]string, 0, len(lineage))

	for i, v := range lineage {
		res, err := v.Check(ctx, d.reader, d.compareOpts)
		if err != nil {
			return nil, compare.Result{}, alerr.Wrap(alerr.ErrIntrospection, err, "failed to check version").
				WithVersion(v.ID())
		}
		if i == 0 {
			targetResult = res
		}
		tested = append(tested, v.ID())

		if res.Ambiguous() {
			ambiguous = true
			d.logAmbiguity(log, v, res)
		}
		if res.Match() {
			log.Debug("detected current version", "version", v.ID(), "tested", len(tested))
			return v, targetResult, nil
		}
		log.Debug("version does not match", "version", v.ID(), "diagnostics", res.Lines())
	}

	root := lineage[len(lineage)-1]
	uerr := alerr.New(alerr.ErrUnrecognizedDatabase, "database matches no version in the chain").
		With("furthest_version", root.ID()).
		With("tested", tested).
		With("diagnostics", targetResult.Lines())
	if ambiguous {
		uerr.WithHelp("a live column type was not recognized; the type mapping may be out of date")
	} else {
		uerr.WithHelp("initialize an empty database, or repair the schema by hand to match a known version")
	}
	return nil, targetResult, uerr
}

// logAmbiguity reports unrecognized live column types at error level.
func (d *Driver) logAmbiguity(log *slog.Logger, v *version.Version, res compare.Result) {
	for _, diag := range res.Diagnostics {
		if diag.Ambiguous() {
			log.Error("live column type not recognized",
				"code", string(alerr.ErrComparisonAmbiguity),
				"version", v.ID(),
				"table", diag.Table,
				"column", diag.Column,
				"live_type", diag.Actual,
			)
		}
	}
}

// Plan detects the current version and lists the versions to apply.
func (d *Driver) Plan(ctx context.Context, target *version.Version) (*Plan, error) {
	return d.plan(ctx, target, d.logger)
}

func (d *Driver) plan(ctx context.Context, target *version.Version, log *slog.Logger) (*Plan, error) {
	current, _, err := d.detect(ctx, target, log)
	if err != nil {
		return nil, err
	}
	return planFrom(current, target, d.maxDepth)
}

// planFrom returns the versions strictly after current up to target.
func planFrom(current, target *version.Version, maxDepth int) (*Plan, error) {
	lineage, err := target.Lineage(maxDepth)
	if err != nil {
		return nil, err
	}

	var pending []*version.Version
	for _, v := range lineage {
		if v == current {
			// lineage is newest first
			for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
				pending[i], pending[j] = pending[j], pending[i]
			}
			return &Plan{Current: current, Target: target, Pending: pending}, nil
		}
		pending = append(pending, v)
	}
	return nil, alerr.Newf(alerr.ErrChain, "version %s is not an ancestor of %s", current, target).
		WithVersion(target.ID())
}

// Migrate brings the database from its detected version to target.
func (d *Driver) Migrate(ctx context.Context, target *version.Version) (*Outcome, error) {
	start := time.Now()
	runID := uuid.New()
	log := d.logger.With("run_id", runID.String(), "target", target.ID())

	plan, err := d.plan(ctx, target, log)
	if err != nil {
		log.Error("migration aborted", "error", err)
		return nil, err
	}

	out := &Outcome{From: plan.Current, To: target, RunID: runID}
	if plan.IsEmpty() {
		log.Info("already at target", "version", target.ID())
		out.Status = AlreadyCurrent
		out.Duration = time.Since(start)
		return out, nil
	}

	// each run records into its own helper copy
	helper := d.helper.With()
	log.Info("migrating", "from", plan.Current.ID(), "pending", plan.IDs(), "dry_run", helper.DryRun())

	for _, v := range plan.Pending {
		stepStart := time.Now()
		if err := v.Apply(ctx, helper); err != nil {
			log.Error("update procedure failed", "version", v.ID(), "error", err)
			return nil, alerr.Wrap(alerr.ErrUpdateExecution, err, "update procedure failed").
				WithVersion(v.ID()).
				With("applied", out.Applied).
				With("run_id", runID.String())
		}
		out.Applied = append(out.Applied, v.ID())
		log.Info("applied version", "version", v.ID(), "duration", time.Since(stepStart))

		if d.verifySteps && v != target && !helper.DryRun() {
			if err := d.verify(ctx, v, log); err != nil {
				return nil, err.With("applied", out.Applied).With("run_id", runID.String())
			}
		}
	}

	if helper.DryRun() {
		out.Status = DryRun
		out.Statements = helper.Statements()
		out.Duration = time.Since(start)
		log.Info("dry run complete", "statements", len(out.Statements))
		return out, nil
	}

	if err := d.verify(ctx, target, log); err != nil {
		return nil, err.With("applied", out.Applied).With("run_id", runID.String())
	}

	out.Status = Migrated
	out.Duration = time.Since(start)
	log.Info("migration complete", "from", plan.Current.ID(), "to", target.ID(), "duration", out.Duration)
	return out, nil
}

// Initialize builds target's schema in an empty database and verifies it.
func (d *Driver) Initialize(ctx context.Context, target *version.Version) (*Outcome, error) {
	start := time.Now()
	runID := uuid.New()
	log := d.logger.With("run_id", runID.String(), "target", target.ID())

	if _, err := target.Lineage(d.maxDepth); err != nil {
		return nil, err
	}

	helper := d.helper.With()
	log.Info("initializing database", "tables", target.Declaration().Len(), "dry_run", helper.DryRun())
	if err := helper.Initialize(ctx, target.Declaration()); err != nil {
		log.Error("initialize failed", "error", err)
		if alerr.Is(err, alerr.ErrDatabaseNotEmpty) || alerr.Is(err, alerr.ErrDeclaration) {
			return nil, err
		}
		return nil, alerr.Wrap(alerr.ErrUpdateExecution, err, "initialize failed").
			WithVersion(target.ID()).
			With("run_id", runID.String())
	}

	out := &Outcome{Status: Initialized, To: target, RunID: runID}
	if helper.DryRun() {
		out.Status = DryRun
		out.Statements = helper.Statements()
	} else if err := d.verify(ctx, target, log); err != nil {
		return nil, err.With("run_id", runID.String())
	}

	out.Duration = time.Since(start)
	log.Info("initialize complete", "status", out.Status.String(), "duration", out.Duration)
	return out, nil
}

// verify re-checks v after its update procedure.
func (d *Driver) verify(ctx context.Context, v *version.Version, log *slog.Logger) *alerr.Error {
	res, err := v.Check(ctx, d.reader, d.compareOpts)
	if err != nil {
		return alerr.Wrap(alerr.ErrIntrospection, err, "failed to verify version").WithVersion(v.ID())
	}
	if res.Match() {
		log.Debug("verified version", "version", v.ID())
		return nil
	}

	if res.Ambiguous() {
		d.logAmbiguity(log, v, res)
	}
	for _, line := range res.Lines() {
		log.Warn("post-migration mismatch", "version", v.ID(), "diagnostic", line)
	}
	return alerr.New(alerr.ErrVerification, "update completed but the database does not match the version").
		WithVersion(v.ID()).
		With("diagnostics", res.Lines()).
		WithHelp("the version's update procedure does not produce its declared schema")
}

// Status reports where the database stands relative to target.
// An unrecognized database is reported, not returned as an error.
func (d *Driver) Status(ctx context.Context, target *version.Version) (*Report, error) {
	report := &Report{Target: target}

	fp, err := target.Fingerprint()
	if err != nil {
		return nil, err
	}
	report.DeclaredFingerprint = fp

	current, res, err := d.detect(ctx, target, d.logger)
	switch {
	case err == nil:
		plan, err := planFrom(current, target, d.maxDepth)
		if err != nil {
			return nil, err
		}
		report.Current = current
		report.Pending = plan.Pending
	case alerr.Is(err, alerr.ErrUnrecognizedDatabase):
		d.logger.Warn("database not recognized", "target", target.ID())
	default:
		return nil, err
	}
	report.Diagnostics = res.Lines()
	report.Ambiguous = res.Ambiguous()

	live, err := drift.NewDetector(d.reader).Detect(ctx, target.Declaration())
	if err != nil {
		return nil, err
	}
	report.LiveFingerprint = live.ActualHash

	return report, nil
}

// Diff compares target's declaration with the live database by fingerprint.
func (d *Driver) Diff(ctx context.Context, target *version.Version) (*drift.Result, error) {
	return drift.NewDetector(d.reader).Detect(ctx, target.Declaration())
}
