package models

// Record is one row, keyed by column name.
type Record = map[string]any

// Field is a column an entity exposes. Validate holds validator tags applied on write.
type Field struct {
	Name     string
	Validate string
	ReadOnly bool
}

// NestedField declares that payload key Field holds an object owned by another
// manager. The created object's primary key is written to Column.
type NestedField struct {
	Field   string
	Manager string
	Column  string
}

// Schema describes one entity table.
type Schema struct {
	Name         string
	Table        string
	PK           string
	Fields       []Field
	Nested       []NestedField
	Hidden       []string
	DefaultOrder string
	// Unique columns are checked for an existing row before create.
	Unique []string
}

func (s Schema) PrimaryKey() string {
	if s.PK == "" {
		return "id"
	}
	return s.PK
}

func (s Schema) Columns() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) HasColumn(name string) bool {
	_, ok := s.Field(name)
	return ok
}

func (s Schema) NestedFor(name string) (NestedField, bool) {
	for _, n := range s.Nested {
		if n.Field == name {
			return n, true
		}
	}
	return NestedField{}, false
}

func (s Schema) IsHidden(name string) bool {
	for _, h := range s.Hidden {
		if h == name {
			return true
		}
	}
	return false
}

// Public drops hidden columns from r.
func (s Schema) Public(r Record) Record {
	if r == nil || len(s.Hidden) == 0 {
		return r
	}
	out := make(Record, len(r))
	for k, v := range r {
		if !s.IsHidden(k) {
			out[k] = v
		}
	}
	return out
}

// LinkSchema describes a many-to-many link table.
type LinkSchema struct {
	Table       string
	PK          string
	LeftColumn  string
	RightColumn string
	// Extra lists the other writable columns a new link row may carry.
	Extra []string
}

// AllowsExtra reports whether col may be set through link defaults.
func (s LinkSchema) AllowsExtra(col string) bool {
	for _, c := range s.Extra {
		if c == col {
			return true
		}
	}
	return false
}

func (s LinkSchema) PrimaryKey() string {
	if s.PK == "" {
		return "id"
	}
	return s.PK
}

// LinkResult reports a link reconciliation pass.
type LinkResult struct {
	New       int      `json:"new"`
	Deleted   int      `json:"deleted"`
	Unchanged int      `json:"no_change"`
	Links     []Record `json:"links"`
}
