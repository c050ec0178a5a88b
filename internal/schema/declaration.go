package schema

// Declaration is an ordered set of tables keyed by (schema, name).
// Iteration order is insertion order.
type Declaration struct {
	order  []TableKey
	tables map[TableKey]*Table
	dupes  []TableKey
}

// NewDeclaration creates a declaration holding the given tables.
// Repeated keys keep the first table and are reported by Validate.
func NewDeclaration(tables ...*Table) *Declaration {
	d := &Declaration{tables: make(map[TableKey]*Table, len(tables))}
	for _, t := range tables {
		if !d.Add(t) {
			d.dupes = append(d.dupes, t.Key())
		}
	}
	return d
}

// Put adds or replaces a table.
func (d *Declaration) Put(t *Table) {
	if d.tables == nil {
		d.tables = make(map[TableKey]*Table)
	}
	key := t.Key()
	if _, ok := d.tables[key]; !ok {
		d.order = append(d.order, key)
	}
	d.tables[key] = t
}

// Add appends a table only if its key is not already declared.
// Reports whether the table was added.
func (d *Declaration) Add(t *Table) bool {
	if d.Has(t.Key()) {
		return false
	}
	d.Put(t)
	return true
}

// Table returns the table with the given key, or nil.
func (d *Declaration) Table(key TableKey) *Table {
	if d == nil {
		return nil
	}
	return d.tables[key]
}

// Lookup returns the table in schema with the given name, or nil.
func (d *Declaration) Lookup(schema, name string) *Table {
	return d.Table(TableKey{Schema: schema, Name: name})
}

// Has reports whether a table with the given key is declared.
func (d *Declaration) Has(key TableKey) bool {
	return d.Table(key) != nil
}

// Tables returns the declared tables in insertion order.
func (d *Declaration) Tables() []*Table {
	if d == nil {
		return nil
	}
	out := make([]*Table, len(d.order))
	for i, k := range d.order {
		out[i] = d.tables[k]
	}
	return out
}

// Keys returns the declared table keys in insertion order.
func (d *Declaration) Keys() []TableKey {
	if d == nil {
		return nil
	}
	return append([]TableKey(nil), d.order...)
}

// Len returns the number of declared tables.
func (d *Declaration) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

// Schemas returns the distinct schemas referenced by the declaration,
// in the order they are first seen.
func (d *Declaration) Schemas() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, k := range d.order {
		if !seen[k.Schema] {
			seen[k.Schema] = true
			out = append(out, k.Schema)
		}
	}
	return out
}

// TablesIn returns the names of the tables declared in schema, in insertion order.
func (d *Declaration) TablesIn(schema string) []string {
	if d == nil {
		return nil
	}
	var names []string
	for _, k := range d.order {
		if k.Schema == schema {
			names = append(names, k.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the declaration.
func (d *Declaration) Clone() *Declaration {
	out := NewDeclaration()
	for _, t := range d.Tables() {
		out.Put(t.Clone())
	}
	return out
}
