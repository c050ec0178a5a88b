package drift

import (
	"fmt"
	"strings"
)

// FormatResult renders a fingerprint comparison for the terminal.
func FormatResult(result *Result) string {
	if result == nil {
		return "no fingerprint comparison available\n"
	}
	if !result.HasDrift {
		return formatInSync(result)
	}
	return formatDrift(result)
}

func formatInSync(result *Result) string {
	var b strings.Builder
	b.WriteString("fingerprints match\n\n")
	fmt.Fprintf(&b, "  tables:       %d\n", result.Tables)
	fmt.Fprintf(&b, "  fingerprint:  %s\n", ShortHash(result.ExpectedHash))
	return b.String()
}

func formatDrift(result *Result) string {
	var b strings.Builder
	b.WriteString("fingerprints differ\n\n")
	fmt.Fprintf(&b, "  declared:  %s\n", ShortHash(result.ExpectedHash))
	fmt.Fprintf(&b, "  live:      %s\n", ShortHash(result.ActualHash))

	comp := result.Comparison
	if len(comp.MissingTables) > 0 {
		b.WriteString("\n  not in database:\n")
		for _, name := range comp.MissingTables {
			fmt.Fprintf(&b, "    - %s\n", name)
		}
	}
	for _, name := range comp.ModifiedTables() {
		fmt.Fprintf(&b, "\n  %s:\n", name)
		formatTableDiff(&b, comp.TableDiffs[name], "    ")
	}
	return b.String()
}

// formatTableDiff lists column differences, one marker per line:
// "-" declared only, "+" live only, "~" different definition.
func formatTableDiff(b *strings.Builder, diff *TableDiff, indent string) {
	for _, col := range diff.MissingColumns {
		fmt.Fprintf(b, "%s- %s\n", indent, col)
	}
	for _, col := range diff.ExtraColumns {
		fmt.Fprintf(b, "%s+ %s\n", indent, col)
	}
	for _, col := range diff.ModifiedColumns {
		fmt.Fprintf(b, "%s~ %s\n", indent, col)
	}
	if diff.Reordered {
		fmt.Fprintf(b, "%scolumn order differs\n", indent)
	}
}

// FormatSummary renders a summary as one line.
func FormatSummary(summary *Summary) string {
	if summary == nil {
		return ""
	}
	if summary.MissingTables+summary.ModifiedTables == 0 {
		return fmt.Sprintf("%d of %d tables in sync", summary.Tables, summary.Tables)
	}

	var parts []string
	if summary.MissingTables > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", summary.MissingTables))
	}
	if summary.ModifiedTables > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", summary.ModifiedTables))
	}
	return fmt.Sprintf("%d tables: %s", summary.Tables, strings.Join(parts, ", "))
}

// FormatQuickStatus renders a comparison as a single status line.
func FormatQuickStatus(result *Result) string {
	if !result.HasDrift {
		return "in-sync " + ShortHash(result.ExpectedHash)
	}
	return fmt.Sprintf("drift declared=%s live=%s", ShortHash(result.ExpectedHash), ShortHash(result.ActualHash))
}

// ShortHash returns the first 12 characters of a hash for display.
func ShortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
