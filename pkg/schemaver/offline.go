package schemaver

import (
	"context"
	"log/slog"

	"github.com/hlop3z/schemaver/internal/compare"
	"github.com/hlop3z/schemaver/internal/devdb"
	"github.com/hlop3z/schemaver/internal/lockfile"
)

// Offline results.
type (
	Rehearsal        = devdb.Rehearsal
	LockFile         = lockfile.LockFile
	LockEntry        = lockfile.Entry
	LockVerification = lockfile.VerificationResult
)

func resolve(opts []Option) *options {
	o := &options{config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Rehearse replays target's chain in a scratch in-memory SQLite database:
// the root is initialized and every later update procedure runs and is
// verified. No configured database is touched.
func Rehearse(ctx context.Context, target *Version, opts ...Option) (*Rehearsal, error) {
	o := resolve(opts)
	return devdb.Rehearse(ctx, target, devdb.Options{
		MaxDepth: o.config.MaxChainDepth,
		Compare:  compare.Options{CheckNullability: o.config.CheckNullability},
	}, o.logger)
}

// WithLockFile sets the lock file path.
func WithLockFile(path string) Option {
	return func(o *options) { o.config.LockFile = path }
}

// Lock writes the fingerprints of target's chain to the lock file and
// returns what was written.
func Lock(target *Version, opts ...Option) (*LockFile, error) {
	o := resolve(opts)
	lf, err := lockfile.Compute(target, o.config.MaxChainDepth)
	if err != nil {
		return nil, err
	}
	if err := lockfile.Write(o.config.LockFile, lf); err != nil {
		return nil, err
	}
	o.logger.Info("wrote lock file", "path", o.config.LockFile, "versions", len(lf.Entries))
	return lf, nil
}

// VerifyLock compares target's chain with the lock file. A result that is
// not Valid means a released declaration was edited or removed; its Err
// method describes what changed.
func VerifyLock(target *Version, opts ...Option) (*LockVerification, error) {
	o := resolve(opts)
	return lockfile.Verify(o.config.LockFile, target, o.config.MaxChainDepth)
}
