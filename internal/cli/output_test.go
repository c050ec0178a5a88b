package cli

import (
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	tbl := NewTable("STEP", "VERSION")
	tbl.AddRow("1", "v1")
	tbl.AddRow("2", "release-2024", "dropped")
	tbl.AddRow("3")

	want := "STEP  VERSION\n" +
		"----  ------------\n" +
		"1     v1\n" +
		"2     release-2024\n" +
		"3\n"
	if got := tbl.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	if got := NewTable().String(); got != "" {
		t.Errorf("String() = %q", got)
	}
}

func TestKeyValues(t *testing.T) {
	kv := &KeyValues{}
	kv.Add("target", "v1").Add("current", "v0")

	want := "  target:  v1\n  current: v0\n"
	if got := kv.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIndent(t *testing.T) {
	got := Indent("a\n\nb", 2)
	if got != "  a\n\n  b" {
		t.Errorf("Indent() = %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1, "version", "versions"); got != "1 version" {
		t.Errorf("got %q", got)
	}
	if got := FormatCount(0, "version", "versions"); !strings.HasPrefix(got, "0 versions") {
		t.Errorf("got %q", got)
	}
}
