package pgdialect

import (
	"github.com/pgdialect/pgdialect/internal/dialect"
	"github.com/pgdialect/pgdialect/internal/emit"
	"github.com/pgdialect/pgdialect/internal/rewrite"
	"github.com/pgdialect/pgdialect/internal/validate"
)

// Dialect identifies a validation target.
type Dialect = dialect.ID

// Supported dialects.
const (
	Postgres    = dialect.Postgres
	CockroachDB = dialect.CockroachDB
	Nile        = dialect.Nile
	DSQL        = dialect.DSQL
)

// Dialects lists the supported dialects in a stable order.
func Dialects() []Dialect {
	return dialect.All()
}

// ValidateOptions tunes a validation run.
type ValidateOptions = validate.Options

// ValidationResult is the outcome of a validation run.
type ValidationResult = validate.Result

// RewriteResult is the outcome of a DSQL rewrite.
type RewriteResult = rewrite.Result

// EmitOptions tunes builder-code generation.
type EmitOptions = emit.Options

// EmitResult is generated builder code plus warnings.
type EmitResult = emit.Result
