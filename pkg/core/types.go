package core

// Table describes one catalog table.
type Table struct {
	// Name is the table name as spelled in the catalog.
	Name string `json:"name" yaml:"name"`
	// Label is a human readable description, rendered as a note.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Module is the module (model) that owns the table.
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
	// Staging marks transient import/export tables.
	Staging bool `json:"staging,omitempty" yaml:"staging,omitempty"`
	// PrimaryKey lists the fields of the primary key, in key order.
	PrimaryKey []string `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	// Fields lists the table fields in declaration order.
	Fields []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Relations lists the outward relations of the table.
	Relations []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// Field describes a table field.
type Field struct {
	Name string `json:"name" yaml:"name"`
	// Type is the declared (extended) data type.
	Type string `json:"type" yaml:"type"`
	// BaseType is the primitive type behind Type. Empty means Type is already primitive.
	BaseType  string `json:"base_type,omitempty" yaml:"base_type,omitempty"`
	Mandatory bool   `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	// Extension names the extension that added the field, if any.
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// Relation is an outward foreign-key-like association to another table.
type Relation struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	RelatedTable string       `json:"related_table" yaml:"related_table"`
	Constraints  []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Constraint pairs a local field with the field it points at.
type Constraint struct {
	Field        string `json:"field" yaml:"field"`
	RelatedField string `json:"related_field" yaml:"related_field"`
}

// HasPrimaryKey reports whether the table declares a primary key.
func (t *Table) HasPrimaryKey() bool {
	return len(t.PrimaryKey) > 0
}

// IsKeyField reports whether the field is part of the primary key.
func (t *Table) IsKeyField(name string) bool {
	for _, k := range t.PrimaryKey {
		if EqualNames(k, name) {
			return true
		}
	}
	return false
}

// IsRelationField reports whether the field takes part in any relation constraint.
func (t *Table) IsRelationField(name string) bool {
	for _, rel := range t.Relations {
		for _, c := range rel.Constraints {
			if EqualNames(c.Field, name) {
				return true
			}
		}
	}
	return false
}

// EffectiveType returns the field type, or its base type when simplify is set.
func (f Field) EffectiveType(simplify bool) string {
	if simplify && f.BaseType != "" {
		return f.BaseType
	}
	return f.Type
}
