// Package query provides the CEL-Go based ad-hoc incident filter.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/typeboard/typeboard/internal/domain"
)

// ErrInvalidExpression is returned when an expression fails to compile or type-check.
var ErrInvalidExpression = errors.New("invalid query expression")

// MaxExpressionLength bounds the accepted expression size.
const MaxExpressionLength = 1024

// Compiler compiles predicates against the incident variables.
type Compiler struct {
	env *cel.Env
}

// Predicate is a compiled boolean expression over one incident.
type Predicate struct {
	expr    string
	program cel.Program
}

// NewCompiler creates the CEL environment exposing incident fields.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("year", cel.IntType),
		cel.Variable("month", cel.IntType),
		cel.Variable("country", cel.StringType),
		cel.Variable("attack_type", cel.StringType),
		cel.Variable("sector", cel.StringType),
		cel.Variable("severity", cel.StringType),
		cel.Variable("financial_impact", cel.DoubleType),
		cel.Variable("affected_users", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compile parses and type-checks expr. The expression must evaluate to bool.
func (c *Compiler) Compile(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidExpression)
	}
	if len(expr) > MaxExpressionLength {
		return nil, fmt.Errorf("%w: expression longer than %d bytes", ErrInvalidExpression, MaxExpressionLength)
	}

	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("%w: expression must return bool, got %s", ErrInvalidExpression, ast.OutputType())
	}

	program, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	return &Predicate{expr: expr, program: program}, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate for inc. Runtime errors (e.g. division by zero)
// count as no match.
func (p *Predicate) Match(inc domain.Incident) bool {
	out, _, err := p.program.Eval(map[string]any{
		"year":             int64(inc.Year),
		"month":            int64(inc.Month),
		"country":          inc.Country,
		"attack_type":      inc.AttackType,
		"sector":           inc.Sector,
		"severity":         string(inc.Severity),
		"financial_impact": inc.FinancialImpact,
		"affected_users":   inc.AffectedUsers,
	})
	if err != nil {
		return false
	}
	b, ok := out.(types.Bool)
	return ok && bool(b)
}
