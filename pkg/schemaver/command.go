package schemaver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/cli"
	"github.com/hlop3z/schemaver/internal/drift"
)

// exitError carries a non-zero exit status without an error message.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// app is the state shared by the commands of one tree.
type app struct {
	target     *Version
	opts       []Option
	configFile string
	output     string

	cfg    Config
	logger *slog.Logger
	out    *cli.Config
}

// NewCommand returns the command tree that manages databases for target's
// chain. opts supply settings the config file, environment and flags cannot
// express, such as WithDB or WithStatementHook; they are applied first.
func NewCommand(target *Version, opts ...Option) *cobra.Command {
	a := &app{target: target, opts: opts}

	root := &cobra.Command{
		Use:           "schemaver",
		Short:         "Detect and migrate database schema versions",
		Long:          "schemaver finds the version of the chain a database matches and applies the remaining update procedures.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", DefaultConfigFile, "path to config file")
	flags.StringVarP(&a.output, "output", "o", "auto", "output format (auto, plain, json)")
	BindFlags(flags)

	root.AddCommand(
		a.statusCmd(),
		a.detectCmd(),
		a.planCmd(),
		a.migrateCmd(),
		a.initCmd(),
		a.diffCmd(),
		a.watchCmd(),
		a.versionsCmd(),
		a.rehearseCmd(),
		a.lockCmd(),
	)
	return root
}

// Run executes the command tree with args and returns the process exit code.
// Errors are rendered to the command's error stream.
func Run(ctx context.Context, target *Version, args []string, opts ...Option) int {
	cmd := NewCommand(target, opts...)
	cmd.SetArgs(args)
	return execute(ctx, cmd)
}

func execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	mode := cli.Default().Mode
	if mode == cli.ModeTTY {
		mode = cli.DetectConfig(cmd.ErrOrStderr()).Mode
	}
	_ = cli.RenderError(cli.NewConfig(cmd.ErrOrStderr(), mode), err)
	return 1
}

// setup resolves configuration, logging and output for a command run.
func (a *app) setup(cmd *cobra.Command) error {
	base := &options{config: DefaultConfig()}
	for _, opt := range a.opts {
		opt(base)
	}

	cfg, err := loadConfig(base.config, a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	a.cfg = cfg

	if base.logger != nil {
		a.logger = base.logger
	} else if a.logger, err = cfg.NewLogger(cmd.ErrOrStderr()); err != nil {
		return err
	}

	a.out, err = outputConfig(a.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	cli.SetDefault(a.out)
	return nil
}

func outputConfig(format string, w io.Writer) (*cli.Config, error) {
	switch format {
	case "auto", "":
		return cli.DetectConfig(w), nil
	case "plain":
		return cli.NewConfig(w, cli.ModePlain), nil
	case "json":
		return cli.NewConfig(w, cli.ModeJSON), nil
	case "tty":
		return cli.NewConfig(w, cli.ModeTTY), nil
	default:
		return nil, alerr.Newf(alerr.ErrConfig, "unknown output format %q", format).
			WithHelp("use auto, plain, json or tty")
	}
}

func (a *app) open(ctx context.Context) (*Client, error) {
	opts := append([]Option{}, a.opts...)
	opts = append(opts, WithConfig(a.cfg), WithLogger(a.logger))
	return Open(ctx, opts...)
}

// withClient opens a client for the duration of fn.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *Client) error) error {
	ctx := cmd.Context()
	c, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func (a *app) statusCmd() *cobra.Command {
	var exitCode bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the detected version and pending versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				report, err := c.Status(ctx, a.target)
				if err != nil {
					return err
				}
				if err := cli.RenderReport(a.out, report); err != nil {
					return err
				}
				if exitCode && !report.UpToDate() {
					return &exitError{code: 2}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with status 2 unless the database is at the target")
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Print the version the database matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				v, err := c.Detect(ctx, a.target)
				if err != nil {
					return err
				}
				if a.out.IsJSON() {
					return cli.WriteJSON(a.out.Writer, map[string]string{"version": v.ID()})
				}
				_, err = fmt.Fprintln(a.out.Writer, v.ID())
				return err
			})
		},
	}
}

func (a *app) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the versions a migration would apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				plan, err := c.Plan(ctx, a.target)
				if err != nil {
					return err
				}
				return cli.RenderPlan(a.out, plan)
			})
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending versions up to the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				out, err := c.Migrate(ctx, a.target, a.runOptions(dryRun)...)
				if err != nil {
					return err
				}
				return cli.RenderOutcome(a.out, out)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the DDL without executing it")
	return cmd
}

func (a *app) initCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the target schema in an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				out, err := c.Initialize(ctx, a.target, a.runOptions(dryRun)...)
				if err != nil {
					return err
				}
				return cli.RenderOutcome(a.out, out)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the DDL without executing it")
	return cmd
}

func (a *app) runOptions(dryRun bool) []RunOption {
	if dryRun {
		return []RunOption{WithDryRunMode()}
	}
	return nil
}

func (a *app) diffCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare fingerprints of the target declaration and the live tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				res, err := c.Diff(ctx, a.target)
				if err != nil {
					return err
				}
				if !quiet {
					return cli.RenderDrift(a.out, res)
				}
				if _, err := fmt.Fprintln(a.out.Writer, drift.FormatQuickStatus(res)); err != nil {
					return err
				}
				if res.HasDrift {
					return &exitError{code: 2}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print one status line and exit with status 2 on drift")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print status whenever the database changes",
		Long: "For SQLite files the database file is watched for writes. " +
			"Other databases are polled every --interval.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *Client) error {
				report := func(ctx context.Context) error {
					r, err := c.Status(ctx, a.target)
					if err != nil {
						return err
					}
					return cli.RenderReport(a.out, r)
				}
				if path := sqlitePath(c.Config().DatabaseURL); c.Dialect() == "sqlite" && path != "" {
					a.logger.Info("watching database file", "path", path)
					return Watch(ctx, path, report)
				}
				a.logger.Info("polling database", "interval", interval)
				return Poll(ctx, interval, report)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "poll interval for databases without a local file")
	return cmd
}

func (a *app) versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the versions of the chain, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.target.Chain(a.cfg.MaxChainDepth)
			if err != nil {
				return err
			}

			t := cli.NewTable("VERSION", "PREVIOUS", "TABLES", "FINGERPRINT")
			rows := make([]map[string]any, 0, len(chain))
			for _, v := range chain {
				fp, err := v.Fingerprint()
				if err != nil {
					return err
				}
				t.AddRow(v.ID(), v.Prev().String(), fmt.Sprint(v.Declaration().Len()), drift.ShortHash(fp))
				rows = append(rows, map[string]any{
					"version":     v.ID(),
					"previous":    v.Prev().String(),
					"tables":      v.Declaration().Len(),
					"fingerprint": fp,
				})
			}

			if a.out.IsJSON() {
				return cli.WriteJSON(a.out.Writer, rows)
			}
			_, err = io.WriteString(a.out.Writer, t.String())
			return err
		},
	}
}

func (a *app) offlineOptions() []Option {
	opts := append([]Option{}, a.opts...)
	return append(opts, WithConfig(a.cfg), WithLogger(a.logger))
}

func (a *app) rehearseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rehearse",
		Short: "Replay the whole chain in a scratch in-memory database",
		Long: "Builds the root version in an in-memory SQLite database, then runs every " +
			"update procedure and verifies each version. The configured database is not used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := Rehearse(cmd.Context(), a.target, a.offlineOptions()...)
			if err != nil {
				return err
			}
			return cli.RenderRehearsal(a.out, r)
		},
	}
}

func (a *app) lockCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Pin the fingerprints of every version in the lock file",
		Long: "Without --check, writes the lock file for the current chain. With --check, " +
			"fails if a locked version's declaration changed or a locked version was removed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !check {
				lf, err := Lock(a.target, a.offlineOptions()...)
				if err != nil {
					return err
				}
				if a.out.IsJSON() {
					return cli.WriteJSON(a.out.Writer, map[string]any{
						"path":      a.cfg.LockFile,
						"aggregate": lf.Aggregate,
						"versions":  len(lf.Entries),
					})
				}
				_, err = io.WriteString(a.out.Writer, cli.FormatSuccess(fmt.Sprintf("locked %s in %s",
					cli.FormatCount(len(lf.Entries), "version", "versions"), a.cfg.LockFile)))
				return err
			}

			res, err := VerifyLock(a.target, a.offlineOptions()...)
			if err != nil {
				return err
			}
			if err := cli.RenderLockCheck(a.out, res); err != nil {
				return err
			}
			if !res.Valid {
				return &exitError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the chain against the lock file instead of writing it")
	return cmd
}
