package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/devdb"
	"github.com/hlop3z/schemaver/internal/drift"
	"github.com/hlop3z/schemaver/internal/lockfile"
	"github.com/hlop3z/schemaver/internal/migrate"
	"github.com/hlop3z/schemaver/internal/version"
)

type outcomeJSON struct {
	Status     string   `json:"status"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to"`
	Applied    []string `json:"applied"`
	Statements []string `json:"statements,omitempty"`
	RunID      string   `json:"run_id"`
	DurationMS int64    `json:"duration_ms"`
}

type reportJSON struct {
	Target              string   `json:"target"`
	Current             string   `json:"current,omitempty"`
	Recognized          bool     `json:"recognized"`
	UpToDate            bool     `json:"up_to_date"`
	Pending             []string `json:"pending"`
	Diagnostics         []string `json:"diagnostics"`
	Ambiguous           bool     `json:"ambiguous"`
	DeclaredFingerprint string   `json:"declared_fingerprint"`
	LiveFingerprint     string   `json:"live_fingerprint"`
}

type errorJSON struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Cause   string         `json:"cause,omitempty"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ids(vs []*version.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID()
	}
	return out
}

func idOrEmpty(v *version.Version) string {
	if v == nil {
		return ""
	}
	return v.ID()
}

// RenderOutcome prints the result of a migrate or init run.
func RenderOutcome(cfg *Config, o *migrate.Outcome) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, outcomeJSON{
			Status:     o.Status.String(),
			From:       idOrEmpty(o.From),
			To:         idOrEmpty(o.To),
			Applied:    append([]string{}, o.Applied...),
			Statements: o.Statements,
			RunID:      o.RunID.String(),
			DurationMS: o.Duration.Milliseconds(),
		})
	}

	var b strings.Builder
	switch o.Status {
	case migrate.DryRun:
		b.WriteString(Badge("DRY RUN", ColorPending) + " " + o.String() + "\n")
		for _, stmt := range o.Statements {
			b.WriteString(Indent(stmt, 2) + "\n")
		}
	default:
		b.WriteString(Badge("OK", ColorOK) + " " + o.String() + "\n")
		if len(o.Applied) > 0 {
			kv := &KeyValues{}
			kv.Add("applied", strings.Join(o.Applied, ", ")).
				Add("duration", o.Duration.Round(time.Millisecond)).
				Add("run", o.RunID)
			b.WriteString(kv.String())
		}
	}
	_, err := io.WriteString(cfg.Writer, b.String())
	return err
}

// RenderReport prints a status report.
func RenderReport(cfg *Config, r *migrate.Report) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, reportJSON{
			Target:              idOrEmpty(r.Target),
			Current:             idOrEmpty(r.Current),
			Recognized:          r.Recognized(),
			UpToDate:            r.UpToDate(),
			Pending:             ids(r.Pending),
			Diagnostics:         append([]string{}, r.Diagnostics...),
			Ambiguous:           r.Ambiguous,
			DeclaredFingerprint: r.DeclaredFingerprint,
			LiveFingerprint:     r.LiveFingerprint,
		})
	}

	var b strings.Builder
	switch {
	case r.UpToDate():
		b.WriteString(Badge("OK", ColorOK) + " database is at " + Highlight(r.Target.ID()) + "\n")
	case r.Recognized():
		fmt.Fprintf(&b, "%s database is at %s, %s behind %s\n", Badge("PENDING", ColorPending),
			Highlight(r.Current.ID()), FormatCount(len(r.Pending), "version", "versions"), r.Target.ID())
	default:
		b.WriteString(Badge("UNKNOWN", ColorFailed) + " database matches no version up to " + r.Target.ID() + "\n")
	}

	kv := &KeyValues{}
	kv.Add("target", r.Target.ID())
	if r.Recognized() {
		kv.Add("current", r.Current.ID())
	}
	kv.Add("declared", drift.ShortHash(r.DeclaredFingerprint)).
		Add("live", drift.ShortHash(r.LiveFingerprint))
	b.WriteString(kv.String())

	if len(r.Pending) > 0 {
		b.WriteString("\n")
		t := NewTable("#", "VERSION")
		for i, v := range r.Pending {
			t.AddRow(fmt.Sprint(i+1), v.ID())
		}
		b.WriteString(Indent(t.String(), 2))
	}

	if !r.UpToDate() && len(r.Diagnostics) > 0 {
		fmt.Fprintf(&b, "\n  %s\n", Header("differences from "+r.Target.ID()+":"))
		for _, d := range r.Diagnostics {
			b.WriteString("    " + d + "\n")
		}
	}
	if r.Ambiguous {
		b.WriteString(FormatWarning("a live column type was not recognized; the type mapping may be out of date"))
	}

	_, err := io.WriteString(cfg.Writer, b.String())
	return err
}

// RenderPlan prints the versions a migration would apply.
func RenderPlan(cfg *Config, p *migrate.Plan) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, map[string]any{
			"current": idOrEmpty(p.Current),
			"target":  idOrEmpty(p.Target),
			"pending": ids(p.Pending),
		})
	}
	if p.IsEmpty() {
		_, err := io.WriteString(cfg.Writer, FormatSuccess("nothing to do, database is at "+p.Target.ID()))
		return err
	}

	t := NewTable("STEP", "FROM", "TO")
	prev := p.Current
	for i, v := range p.Pending {
		t.AddRow(fmt.Sprint(i+1), prev.ID(), v.ID())
		prev = v
	}
	_, err := io.WriteString(cfg.Writer, t.String())
	return err
}

// RenderDrift prints a fingerprint comparison.
func RenderDrift(cfg *Config, res *drift.Result) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, map[string]any{
			"has_drift":     res.HasDrift,
			"expected_hash": res.ExpectedHash,
			"actual_hash":   res.ActualHash,
			"summary":       drift.Summarize(res),
		})
	}
	badge := Badge("OK", ColorOK)
	if res.HasDrift {
		badge = Badge("DRIFT", ColorFailed)
	}
	out := badge + " " + drift.FormatResult(res)
	if res.HasDrift {
		out += "\n" + Dim(drift.FormatSummary(drift.Summarize(res))) + "\n"
	}
	_, err := io.WriteString(cfg.Writer, out)
	return err
}

// RenderRehearsal prints the result of replaying a chain in a dev database.
func RenderRehearsal(cfg *Config, r *devdb.Rehearsal) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, map[string]any{
			"versions":    r.Versions,
			"applied":     append([]string{}, r.Applied...),
			"statements":  append([]string{}, r.Statements...),
			"duration_ms": r.Duration.Milliseconds(),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s rehearsed %s, every version verified\n", Badge("OK", ColorOK),
		FormatCount(len(r.Versions), "version", "versions"))
	kv := &KeyValues{}
	kv.Add("chain", strings.Join(r.Versions, " -> ")).
		Add("statements", len(r.Statements)).
		Add("duration", r.Duration.Round(time.Millisecond))
	b.WriteString(kv.String())
	_, err := io.WriteString(cfg.Writer, b.String())
	return err
}

// RenderLockCheck prints the comparison of a chain with its lock file.
func RenderLockCheck(cfg *Config, r *lockfile.VerificationResult) error {
	if cfg.IsJSON() {
		return WriteJSON(cfg.Writer, map[string]any{
			"valid":     r.Valid,
			"lock_file": r.LockFileExists,
			"verified":  nonNil(r.VerifiedVersions),
			"new":       nonNil(r.NewVersions),
			"modified":  nonNil(r.ModifiedVersions),
			"removed":   nonNil(r.RemovedVersions),
		})
	}

	var b strings.Builder
	switch {
	case !r.LockFileExists:
		b.WriteString(Badge("MISSING", ColorFailed) + " no lock file\n")
	case r.Valid:
		fmt.Fprintf(&b, "%s %s unchanged since locked\n", Badge("OK", ColorOK),
			FormatCount(len(r.VerifiedVersions), "version", "versions"))
	default:
		b.WriteString(Badge("CHANGED", ColorFailed) + " chain differs from the lock file\n")
	}

	t := NewTable("VERSION", "STATE")
	for _, id := range r.VerifiedVersions {
		t.AddRow(id, "locked")
	}
	for _, id := range r.ModifiedVersions {
		t.AddRow(id, Error("modified"))
	}
	for _, id := range r.RemovedVersions {
		t.AddRow(id, Error("removed"))
	}
	for _, id := range r.NewVersions {
		t.AddRow(id, Note("new"))
	}
	if t.Len() > 0 {
		b.WriteString(Indent(t.String(), 2))
	}
	_, err := io.WriteString(cfg.Writer, b.String())
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RenderError prints err. In JSON mode the error is written as an object
// under the "error" key.
func RenderError(cfg *Config, err error) error {
	if !cfg.IsJSON() {
		_, werr := io.WriteString(cfg.Writer, FormatError(err))
		return werr
	}

	out := errorJSON{Code: string(alerr.GetErrorCode(err)), Message: err.Error()}
	var ae *alerr.Error
	if errors.As(err, &ae) {
		out.Message = ae.GetMessage()
		out.Context = ae.GetContext()
		if c := ae.GetCause(); c != nil {
			out.Cause = causeMessage(c)
		}
	}
	return WriteJSON(cfg.Writer, map[string]any{"error": out})
}
