package schema

import (
	"strings"
	"testing"

	"github.com/hlop3z/schemaver/internal/alerr"
)

func accountsUser() *Table {
	return NewTable("accounts", "user",
		Int("id").PK(),
		Str("email", 100).Unq(),
		Str("password", 100),
	)
}

// -----------------------------------------------------------------------------
// TypeTag Tests
// -----------------------------------------------------------------------------

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    TypeTag
		wantErr bool
	}{
		{"integer", Integer, false},
		{"STRING", String, false},
		{" datetime ", DateTime, false},
		{"text", Text, false},
		{"boolean", Boolean, false},
		{"float", Float, false},
		{"date", Date, false},
		{"unknown", Unknown, true},
		{"uuid", Unknown, true},
		{"", Unknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if err != nil && !alerr.Is(err, alerr.ErrDeclaration) {
				t.Errorf("expected ErrDeclaration, got %v", err)
			}
		})
	}
}

func TestParseTypeSuggestsClosest(t *testing.T) {
	_, err := ParseType("integr")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "did you mean 'integer'?") {
		t.Errorf("missing suggestion in %q", err.Error())
	}
}

func TestTypeTagValid(t *testing.T) {
	if Unknown.Valid() {
		t.Error("Unknown must not be valid")
	}
	for _, name := range TypeNames() {
		tag, err := ParseType(name)
		if err != nil || !tag.Valid() {
			t.Errorf("%s should be valid", name)
		}
	}
	if TypeTag(99).String() != "unknown" {
		t.Error("out-of-range tag should render as unknown")
	}
}

// -----------------------------------------------------------------------------
// Column Tests
// -----------------------------------------------------------------------------

func TestColumnDefaults(t *testing.T) {
	c := Str("email", 100)
	if !c.Nullable {
		t.Error("columns should be nullable by default")
	}
	if c.LengthValue() != 100 {
		t.Errorf("length = %d", c.LengthValue())
	}

	pk := Int("id").PK()
	if pk.Nullable {
		t.Error("primary key must not be nullable")
	}
	if got := Timestamp("at", true).TypeString(); got != "datetime(tz)" {
		t.Errorf("TypeString = %q", got)
	}
}

func TestColumnCloneIsDeep(t *testing.T) {
	orig := Str("name", 10).Default("'x'")
	cp := orig.Clone()
	*cp.Length = 20
	cp.ServerDefault.SQL = "'y'"

	if orig.LengthValue() != 10 {
		t.Error("clone shares Length with original")
	}
	if orig.ServerDefault.SQL != "'x'" {
		t.Error("clone shares ServerDefault with original")
	}
}

// -----------------------------------------------------------------------------
// Table / Declaration Tests
// -----------------------------------------------------------------------------

func TestTableExtend(t *testing.T) {
	tbl := accountsUser()

	if !tbl.Extend(Str("displayname", 1000)) {
		t.Fatal("expected displayname to be appended")
	}
	if tbl.Extend(Str("displayname", 1000)) {
		t.Error("second Extend should be a no-op")
	}
	names := strings.Join(tbl.ColumnNames(), ",")
	if names != "id,email,password,displayname" {
		t.Errorf("columns = %s", names)
	}
}

func TestDeclarationOrderAndSchemas(t *testing.T) {
	d := NewDeclaration(
		NewTable("b", "one", Int("id").PK()),
		NewTable("a", "two", Int("id").PK()),
		NewTable("b", "three", Int("id").PK()),
		NewTable("", "four", Int("id").PK()),
	)

	if got := strings.Join(d.Schemas(), ","); got != "b,a," {
		t.Errorf("Schemas() = %q", got)
	}
	if got := strings.Join(d.TablesIn("b"), ","); got != "one,three" {
		t.Errorf("TablesIn(b) = %q", got)
	}
	if d.Len() != 4 {
		t.Errorf("Len() = %d", d.Len())
	}
	if d.Lookup("", "four") == nil {
		t.Error("expected default-schema table")
	}
}

func TestDeclarationClone(t *testing.T) {
	d := NewDeclaration(accountsUser())
	cp := d.Clone()
	cp.Lookup("accounts", "user").Extend(Int("age"))

	if len(d.Lookup("accounts", "user").Columns) != 3 {
		t.Error("clone mutation leaked into original")
	}
}

// -----------------------------------------------------------------------------
// Validation Tests
// -----------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		decl    *Declaration
		wantErr string
	}{
		{"valid", NewDeclaration(accountsUser()), ""},
		{"empty table name", NewDeclaration(NewTable("s", "", Int("id"))), "table name is required"},
		{"no columns", NewDeclaration(NewTable("s", "t")), "at least one column"},
		{"duplicate column", NewDeclaration(NewTable("s", "t", Int("a"), Int("a"))), "duplicate column"},
		{"duplicate table", NewDeclaration(NewTable("s", "t", Int("a")), NewTable("s", "t", Int("b"))), "duplicate table"},
		{"string without length", NewDeclaration(NewTable("s", "t", Col("a", String))), "positive length"},
		{"length on integer", NewDeclaration(NewTable("s", "t", &Column{Name: "a", Type: Integer, Length: new(int)})), "only valid on string"},
		{"timezone on date", NewDeclaration(NewTable("s", "t", &Column{Name: "a", Type: Date, Timezone: new(bool)})), "only valid on datetime"},
		{"unknown type", NewDeclaration(NewTable("s", "t", Col("a", Unknown))), "unsupported column type"},
		{"autoincrement non-pk", NewDeclaration(NewTable("s", "t", Int("a").Auto())), "integer primary key"},
		{"empty column name", NewDeclaration(NewTable("s", "t", Int(""))), "column name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decl.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
			if !alerr.Is(err, alerr.ErrDeclaration) {
				t.Errorf("expected ErrDeclaration, got %v", alerr.GetErrorCode(err))
			}
		})
	}
}

func TestValidateAddsTableContext(t *testing.T) {
	d := NewDeclaration(NewTable("accounts", "user", Col("email", String)))
	err := d.Validate()
	if err == nil || !strings.Contains(err.Error(), "table: accounts.user") {
		t.Errorf("expected table context, got %v", err)
	}
}
