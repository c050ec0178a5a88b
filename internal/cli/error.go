package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
)

// Context keys rendered in their own blocks rather than as details.
var blockKeys = map[string]bool{
	"helps":       true,
	"diagnostics": true,
	"sql":         true,
}

// FormatError formats an error in rustc style:
//
//	error[E3002]: database matches no version in the chain
//	   |
//	   | furthest_version: v0
//	   | tested: v1, v0
//	   |
//	   = user.displayname (#4): missing column
//	help: initialize an empty database, or repair the schema by hand
//
// Errors other than *alerr.Error get a plain "error: msg" line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var ae *alerr.Error
	if !errors.As(err, &ae) {
		return Error("error") + ": " + err.Error() + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s\n", Error("error"), Code(string(ae.GetCode())), ae.GetMessage())

	ctx := ae.GetContext()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if !blockKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		gutter(&b, "")
		for _, k := range keys {
			gutter(&b, k+": "+formatValue(ctx[k]))
		}
	}

	if sql, ok := ctx["sql"].(string); ok && sql != "" {
		gutter(&b, "")
		gutter(&b, Dim(sql))
	}

	if diags, ok := ctx["diagnostics"].([]string); ok && len(diags) > 0 {
		gutter(&b, "")
		for _, d := range diags {
			fmt.Fprintf(&b, "   %s %s\n", paint(stylePipe, "="), d)
		}
	}

	if cause := ae.GetCause(); cause != nil {
		gutter(&b, "")
		fmt.Fprintf(&b, "%s: %s\n", Note("cause"), causeMessage(cause))
	}

	for _, h := range ae.Helps() {
		fmt.Fprintf(&b, "%s: %s\n", Help("help"), h)
	}

	return b.String()
}

func gutter(b *strings.Builder, s string) {
	b.WriteString("   ")
	b.WriteString(Pipe())
	if s != "" {
		b.WriteString(" ")
		b.WriteString(s)
	}
	b.WriteString("\n")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return "(none)"
		}
		return strings.Join(t, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// causeMessage returns the first line of the cause. Nested schemaver errors
// are reduced to code and message.
func causeMessage(err error) string {
	var ae *alerr.Error
	if errors.As(err, &ae) {
		msg := fmt.Sprintf("[%s] %s", ae.GetCode(), ae.GetMessage())
		if inner := ae.GetCause(); inner != nil {
			msg += ": " + causeMessage(inner)
		}
		return msg
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// FormatWarning formats a warning line.
func FormatWarning(msg string) string {
	return Warning("warning") + ": " + msg + "\n"
}

// FormatSuccess formats a success line.
func FormatSuccess(msg string) string {
	return Success("ok") + ": " + msg + "\n"
}
