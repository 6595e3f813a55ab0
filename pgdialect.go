// Package pgdialect analyzes PostgreSQL DDL for dialect compatibility. It
// parses CREATE TABLE statements (and whole scripts) into an abstract schema
// representation, validates the result against per-dialect rule catalogs,
// rewrites incompatible SQL for DSQL, generates schema-builder code, and
// computes stable content hashes.
//
// Typical usage:
//
//	table, err := pgdialect.ParseDDL(`CREATE TABLE users (id SERIAL PRIMARY KEY)`)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := pgdialect.ValidateTable(table, pgdialect.DSQL, pgdialect.ValidateOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, d := range res.Diagnostics {
//		fmt.Println(d.Format())
//	}
package pgdialect

import (
	"github.com/pgdialect/pgdialect/internal/emit"
	"github.com/pgdialect/pgdialect/internal/fingerprint"
	"github.com/pgdialect/pgdialect/internal/rewrite"
	"github.com/pgdialect/pgdialect/internal/validate"
	"github.com/pgdialect/pgdialect/ir"
)

// ParseDDL parses a single CREATE TABLE statement.
func ParseDDL(sql string) (*ir.Table, error) {
	return ir.ParseCreateTable(sql)
}

// ParseSQL parses a multi-statement SQL script into a schema. Statements the
// parser cannot model are kept raw and still reach the validator's pattern
// rules; a malformed statement never aborts the batch.
func ParseSQL(script string) (*ir.Schema, error) {
	return ir.ParseScript(script)
}

// Validate checks a schema against a dialect's rule catalog.
func Validate(s *ir.Schema, d Dialect, opts ValidateOptions) (*ValidationResult, error) {
	return validate.Schema(s, d, opts)
}

// ValidateTable checks a single table against a dialect's rule catalog.
func ValidateTable(t *ir.Table, d Dialect, opts ValidateOptions) (*ValidationResult, error) {
	return validate.Table(t, d, opts)
}

// RewriteForDSQL rewrites PostgreSQL DDL into DSQL-compatible DDL. The
// operation is textual, ordered, and idempotent.
func RewriteForDSQL(sql string) *RewriteResult {
	return rewrite.ForDSQL(sql)
}

// EmitBuilderCode renders a schema as builder source code.
func EmitBuilderCode(s *ir.Schema, opts EmitOptions) (*EmitResult, error) {
	return emit.Schema(s, opts)
}

// EmitTableCode renders a single table as builder source code.
func EmitTableCode(t *ir.Table, opts EmitOptions) (*EmitResult, error) {
	return emit.Table(t, opts)
}

// Hash returns the hex SHA-256 fingerprint of a schema. Tracking ids,
// comments, and top-level entity order do not affect the hash.
func Hash(s *ir.Schema) (string, error) {
	return fingerprint.Hash(s)
}

// HashTable returns the fingerprint of a single table.
func HashTable(t *ir.Table) (string, error) {
	return fingerprint.Hash(t)
}

// SchemasEqual reports whether two schemas share a fingerprint.
func SchemasEqual(a, b *ir.Schema) (bool, error) {
	return fingerprint.Equal(a, b)
}
