// Package ir defines the abstract schema representation (ASR): the canonical
// in-memory model of a PostgreSQL schema that the parser produces and the
// validator, emitter, rewriter, and hasher consume. Once constructed, an ASR
// value is treated as immutable; downstream components never mutate it.
package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Schema is the root ASR value. All collections are ordered for
// reproducibility; canonicalization sorts them by name when hashing.
type Schema struct {
	Name           string           `json:"name,omitempty"`
	Tables         []*Table         `json:"tables,omitempty"`
	Enums          []*Enum          `json:"enums,omitempty"`
	Domains        []*Domain        `json:"domains,omitempty"`
	CompositeTypes []*CompositeType `json:"composite_types,omitempty"`
	Sequences      []*Sequence      `json:"sequences,omitempty"`
	Views          []*View          `json:"views,omitempty"`
	Functions      []*Function      `json:"functions,omitempty"`
	Triggers       []*Trigger       `json:"triggers,omitempty"`
	Extensions     []string         `json:"extensions,omitempty"`

	// RawStatements holds statements the parser did not model structurally.
	// The validator scans them for pattern-based diagnostics.
	RawStatements []string `json:"raw_statements,omitempty"`
}

// Table represents a single CREATE TABLE entity.
type Table struct {
	Schema      string        `json:"schema,omitempty"`
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	Constraints []*Constraint `json:"constraints,omitempty"`
	Indexes     []*Index      `json:"indexes,omitempty"`

	Partitioning *Partitioning     `json:"partitioning,omitempty"`
	Partitions   []*ChildPartition `json:"partitions,omitempty"`

	Temporary   bool     `json:"temporary,omitempty"`
	Unlogged    bool     `json:"unlogged,omitempty"`
	IfNotExists bool     `json:"if_not_exists,omitempty"`
	Inherits    []string `json:"inherits,omitempty"`
	Tablespace  string   `json:"tablespace,omitempty"`
	WithOptions []string `json:"with_options,omitempty"`
	OnCommit    string   `json:"on_commit,omitempty"`

	Comment    string `json:"comment,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`

	// SkippedFragments are body fragments the parser could not model. They are
	// excluded from hashing and surfaced by the validator as warnings.
	SkippedFragments []string `json:"-"`
}

// QualifiedName returns the schema-qualified table name.
func (t *Table) QualifiedName() string {
	if t.Schema != "" && t.Schema != "public" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Nullability is tri-valued: a column may be explicitly NOT NULL, explicitly
// nullable, or carry no explicit marker (nullable by default).
type Nullability string

const (
	NullableDefault  Nullability = ""
	NullableExplicit Nullability = "NULL"
	NotNull          Nullability = "NOT_NULL"
)

// Column represents a table column.
type Column struct {
	// Name is the logical name as it appears in source. SQLName is set only
	// when a casing policy produced a different physical name.
	Name    string `json:"name"`
	SQLName string `json:"sql_name,omitempty"`

	Type        TypeDesc    `json:"type"`
	Nullability Nullability `json:"nullability,omitempty"`
	PrimaryKey  bool        `json:"primary_key,omitempty"`
	Unique      bool        `json:"unique,omitempty"`

	Default    *string      `json:"default,omitempty"`
	References *Reference   `json:"references,omitempty"`
	Check      *ColumnCheck `json:"check,omitempty"`
	Generated  *Generated   `json:"generated,omitempty"`
	Identity   *Identity    `json:"identity,omitempty"`

	Collation  string `json:"collation,omitempty"`
	Comment    string `json:"comment,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
}

// IsNullable reports whether the column admits NULL.
func (c *Column) IsNullable() bool {
	return c.Nullability != NotNull && !c.PrimaryKey
}

// Reference is a column-level foreign key. The target is stored by name, not
// by pointer, so schemas stay acyclic-by-construction; dangling targets are
// detected at validation time.
type Reference struct {
	Table    string `json:"table"`
	Column   string `json:"column,omitempty"`
	OnDelete string `json:"on_delete,omitempty"`
	OnUpdate string `json:"on_update,omitempty"`
}

// ColumnCheck is an inline check constraint. When the expression is a simple
// "col IN (...)" allow-list, AllowedValues carries the parsed list as well;
// the raw expression is always preserved for round-trip fidelity.
type ColumnCheck struct {
	Name          string   `json:"name,omitempty"`
	Expression    string   `json:"expression"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// Generated describes a GENERATED ALWAYS AS (...) column.
type Generated struct {
	Expression string `json:"expression"`
	Stored     bool   `json:"stored,omitempty"`
}

// IdentityKind distinguishes GENERATED ALWAYS from GENERATED BY DEFAULT.
type IdentityKind string

const (
	IdentityAlways    IdentityKind = "ALWAYS"
	IdentityByDefault IdentityKind = "BY_DEFAULT"
)

// Identity describes an identity column.
type Identity struct {
	Kind            IdentityKind `json:"kind"`
	SequenceOptions string       `json:"sequence_options,omitempty"`
}

// ConstraintKind is the discriminator of the Constraint sum type.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintCheck      ConstraintKind = "CHECK"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
	ConstraintExclusion  ConstraintKind = "EXCLUSION"
)

// Constraint is a table-level constraint. The populated fields depend on Kind:
// PrimaryKey/Unique use Columns; Check uses Expression; ForeignKey uses
// Columns, RefTable, RefColumns and the rule fields; Exclusion keeps Raw.
type Constraint struct {
	Kind ConstraintKind `json:"kind"`
	Name string         `json:"name,omitempty"`

	Columns          []string `json:"columns,omitempty"`
	Expression       string   `json:"expression,omitempty"`
	NullsNotDistinct bool     `json:"nulls_not_distinct,omitempty"`

	RefTable   string   `json:"ref_table,omitempty"`
	RefColumns []string `json:"ref_columns,omitempty"`
	OnDelete   string   `json:"on_delete,omitempty"`
	OnUpdate   string   `json:"on_update,omitempty"`
	Match      string   `json:"match,omitempty"`

	Deferrable        bool `json:"deferrable,omitempty"`
	InitiallyDeferred bool `json:"initially_deferred,omitempty"`

	Raw        string `json:"raw,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
}

// IndexMethod is the access method of an index.
type IndexMethod string

const (
	IndexBTree  IndexMethod = "BTREE"
	IndexHash   IndexMethod = "HASH"
	IndexGIN    IndexMethod = "GIN"
	IndexGiST   IndexMethod = "GIST"
	IndexBRIN   IndexMethod = "BRIN"
	IndexSPGiST IndexMethod = "SPGIST"
)

// Index represents a secondary index. An index is either over columns
// (Expression empty) or over an expression (Columns empty), never both.
type Index struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns,omitempty"`
	Expression string   `json:"expression,omitempty"`

	Unique        bool        `json:"unique,omitempty"`
	Method        IndexMethod `json:"method,omitempty"`
	Where         string      `json:"where,omitempty"`
	Include       []string    `json:"include,omitempty"`
	Opclass       string      `json:"opclass,omitempty"`
	StorageParams []string    `json:"storage_params,omitempty"`
	NullsOrdering string      `json:"nulls_ordering,omitempty"`
	SortOrder     string      `json:"sort_order,omitempty"`
	Concurrently  bool        `json:"concurrently,omitempty"`

	TrackingID string `json:"tracking_id,omitempty"`
}

// PartitionStrategy is the declarative partitioning strategy.
type PartitionStrategy string

const (
	PartitionList  PartitionStrategy = "LIST"
	PartitionRange PartitionStrategy = "RANGE"
	PartitionHash  PartitionStrategy = "HASH"
)

// Partitioning describes a PARTITION BY clause.
type Partitioning struct {
	Strategy     PartitionStrategy `json:"strategy"`
	Key          []string          `json:"key"`
	Subpartition *Partitioning     `json:"subpartition,omitempty"`
}

// PartitionKind discriminates child partition bounds.
type PartitionKind string

const (
	PartitionKindList    PartitionKind = "list"
	PartitionKindRange   PartitionKind = "range"
	PartitionKindHash    PartitionKind = "hash"
	PartitionKindDefault PartitionKind = "default"
)

// ChildPartition is a concrete partition of a partitioned table.
type ChildPartition struct {
	Name string        `json:"name"`
	Kind PartitionKind `json:"kind"`

	Values    []string `json:"values,omitempty"` // list
	From      string   `json:"from,omitempty"`   // range
	To        string   `json:"to,omitempty"`     // range
	Modulus   int      `json:"modulus,omitempty"`
	Remainder int      `json:"remainder,omitempty"` // hash

	TrackingID string `json:"tracking_id,omitempty"`
}

// Enum is a CREATE TYPE ... AS ENUM entity.
type Enum struct {
	Schema     string   `json:"schema,omitempty"`
	Name       string   `json:"name"`
	Values     []string `json:"values"`
	Comment    string   `json:"comment,omitempty"`
	TrackingID string   `json:"tracking_id,omitempty"`
}

// Domain is a CREATE DOMAIN entity.
type Domain struct {
	Schema     string   `json:"schema,omitempty"`
	Name       string   `json:"name"`
	BaseType   string   `json:"base_type"`
	NotNull    bool     `json:"not_null,omitempty"`
	Default    string   `json:"default,omitempty"`
	Checks     []string `json:"checks,omitempty"`
	Comment    string   `json:"comment,omitempty"`
	TrackingID string   `json:"tracking_id,omitempty"`
}

// CompositeField is one attribute of a composite type.
type CompositeField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CompositeType is a CREATE TYPE ... AS (...) entity.
type CompositeType struct {
	Schema     string           `json:"schema,omitempty"`
	Name       string           `json:"name"`
	Fields     []CompositeField `json:"fields"`
	Comment    string           `json:"comment,omitempty"`
	TrackingID string           `json:"tracking_id,omitempty"`
}

// Sequence is a CREATE SEQUENCE entity.
type Sequence struct {
	Schema     string `json:"schema,omitempty"`
	Name       string `json:"name"`
	DataType   string `json:"data_type,omitempty"`
	Start      *int64 `json:"start,omitempty"`
	Increment  *int64 `json:"increment,omitempty"`
	MinValue   *int64 `json:"min_value,omitempty"`
	MaxValue   *int64 `json:"max_value,omitempty"`
	Cache      *int64 `json:"cache,omitempty"`
	Cycle      bool   `json:"cycle,omitempty"`
	OwnedBy    string `json:"owned_by,omitempty"`
	Comment    string `json:"comment,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
}

// View is a CREATE [MATERIALIZED] VIEW entity.
type View struct {
	Schema       string `json:"schema,omitempty"`
	Name         string `json:"name"`
	Definition   string `json:"definition"`
	Materialized bool   `json:"materialized,omitempty"`
	Comment      string `json:"comment,omitempty"`
	TrackingID   string `json:"tracking_id,omitempty"`
}

// Function is a CREATE FUNCTION entity. Only the attributes the validator
// cares about are modeled; the definition body is kept verbatim.
type Function struct {
	Schema         string `json:"schema,omitempty"`
	Name           string `json:"name"`
	Language       string `json:"language,omitempty"`
	Returns        string `json:"returns,omitempty"`
	Definition     string `json:"definition,omitempty"`
	IsProcedure    bool   `json:"is_procedure,omitempty"`
	ReturnsTrigger bool   `json:"returns_trigger,omitempty"`
	Comment        string `json:"comment,omitempty"`
	TrackingID     string `json:"tracking_id,omitempty"`
}

// Trigger is a CREATE TRIGGER entity.
type Trigger struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Timing     string   `json:"timing,omitempty"` // BEFORE, AFTER, INSTEAD OF
	Events     []string `json:"events,omitempty"` // INSERT, UPDATE, DELETE, TRUNCATE
	Level      string   `json:"level,omitempty"`  // ROW, STATEMENT
	Function   string   `json:"function,omitempty"`
	Condition  string   `json:"condition,omitempty"`
	Drop       bool     `json:"drop,omitempty"` // DROP TRIGGER statement
	Comment    string   `json:"comment,omitempty"`
	TrackingID string   `json:"tracking_id,omitempty"`
}

// NewTrackingID mints an opaque identity token for rename detection. Tracking
// ids never participate in equality or hashing.
func NewTrackingID() string {
	return uuid.NewString()
}

// SchemaOf wraps a single table in a Schema value.
func SchemaOf(tables ...*Table) *Schema {
	return &Schema{Tables: tables}
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the table-level primary key constraint, if any.
func (t *Table) PrimaryKey() (*Constraint, bool) {
	for _, c := range t.Constraints {
		if c.Kind == ConstraintPrimaryKey {
			return c, true
		}
	}
	return nil, false
}

// CheckInvariants verifies the structural invariants a legally constructed
// Table must satisfy. It returns a descriptive error naming the offending
// entity on the first violation.
func (t *Table) CheckInvariants() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}

	// At most one table-level primary key, agreeing with any inline one.
	var pk *Constraint
	for _, c := range t.Constraints {
		if c.Kind != ConstraintPrimaryKey {
			continue
		}
		if pk != nil {
			return fmt.Errorf("table %q has more than one primary key constraint", t.Name)
		}
		pk = c
	}
	var inline []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			inline = append(inline, c.Name)
		}
	}
	if len(inline) > 1 {
		return fmt.Errorf("table %q has multiple inline primary key columns (%s)", t.Name, strings.Join(inline, ", "))
	}
	if len(inline) == 1 && pk != nil {
		if len(pk.Columns) != 1 || pk.Columns[0] != inline[0] {
			return fmt.Errorf("table %q: inline primary key column %q disagrees with table-level primary key (%s)",
				t.Name, inline[0], strings.Join(pk.Columns, ", "))
		}
	}

	for _, c := range t.Columns {
		if c.PrimaryKey && c.Nullability == NullableExplicit {
			return fmt.Errorf("table %q: column %q is primary key but explicitly nullable", t.Name, c.Name)
		}
		if c.Type.Array != (c.Type.Dimensions >= 1) {
			return fmt.Errorf("table %q: column %q has inconsistent array dimensions", t.Name, c.Name)
		}
	}

	for _, c := range t.Constraints {
		if c.Kind != ConstraintForeignKey {
			continue
		}
		if len(c.Columns) != len(c.RefColumns) && len(c.RefColumns) > 0 {
			return fmt.Errorf("table %q: foreign key %s references %d column(s) from %d local column(s)",
				t.Name, fkLabel(c), len(c.RefColumns), len(c.Columns))
		}
		for _, col := range c.Columns {
			if _, ok := t.Column(col); !ok {
				return fmt.Errorf("table %q: foreign key %s names unknown column %q", t.Name, fkLabel(c), col)
			}
		}
	}

	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && idx.Expression != "" {
			return fmt.Errorf("table %q: index %q has both columns and an expression", t.Name, idx.Name)
		}
	}

	return nil
}

// CheckInvariants validates every table in the schema.
func (s *Schema) CheckInvariants() error {
	for _, t := range s.Tables {
		if err := t.CheckInvariants(); err != nil {
			return err
		}
	}
	return nil
}

func fkLabel(c *Constraint) string {
	if c.Name != "" {
		return fmt.Sprintf("%q", c.Name)
	}
	return "(" + strings.Join(c.Columns, ", ") + ")"
}
