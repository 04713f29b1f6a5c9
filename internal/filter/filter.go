// Package filter provides the CEL-based post-filter applied to anomaly
// results. Callers attach an expression to a request or profile; entries
// the expression rejects are dropped before the result is returned.
package filter

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Filter is a compiled CEL predicate over flagged anomalies.
//
// Threshold results expose: index (int), score (double), z (double),
// amount (double). Graph results expose: path (list of string),
// total (double), hops (int).
type Filter struct {
	expr    string
	program cel.Program
}

// New compiles a filter expression. An invalid expression fails with a
// ConfigurationError before any data is processed.
func New(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("index", cel.IntType),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("z", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("path", cel.ListType(cel.StringType)),
		cel.Variable("total", cel.DoubleType),
		cel.Variable("hops", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, domain.NewConfigurationError("filter", "invalid expression %q: %v", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, domain.NewConfigurationError("filter", "expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, domain.NewConfigurationError("filter", "cannot plan expression %q: %v", expr, err)
	}

	return &Filter{expr: expr, program: program}, nil
}

// Expression returns the source expression.
func (f *Filter) Expression() string { return f.expr }

// Apply returns a new result holding only the entries the predicate
// accepts. The input result is not modified. amounts is the dataset's
// raw amount series, used to bind the threshold-path amount variable.
func (f *Filter) Apply(result *domain.AnomalyResult, amounts []float64) (*domain.AnomalyResult, error) {
	switch result.Kind {
	case domain.KindThreshold:
		return f.applyThreshold(result.Threshold, amounts)
	case domain.KindGraph:
		return f.applyGraph(result.Graph)
	default:
		return nil, fmt.Errorf("unknown result kind %q", result.Kind)
	}
}

func (f *Filter) applyThreshold(res *domain.ThresholdResult, amounts []float64) (*domain.AnomalyResult, error) {
	indices := []int{}
	scores := []float64{}

	for i, idx := range res.Indices {
		amount := 0.0
		if idx >= 0 && idx < len(amounts) {
			amount = amounts[idx]
		}
		keep, err := f.eval(map[string]any{
			"index":  idx,
			"score":  res.Scores[i],
			"z":      res.ZScores[idx],
			"amount": amount,
			"path":   []string{},
			"total":  0.0,
			"hops":   0,
		})
		if err != nil {
			return nil, err
		}
		if keep {
			indices = append(indices, idx)
			scores = append(scores, res.Scores[i])
		}
	}

	zScores := make([]float64, len(res.ZScores))
	copy(zScores, res.ZScores)

	return &domain.AnomalyResult{
		Kind:      domain.KindThreshold,
		Threshold: &domain.ThresholdResult{Indices: indices, Scores: scores, ZScores: zScores},
	}, nil
}

func (f *Filter) applyGraph(res *domain.GraphResult) (*domain.AnomalyResult, error) {
	paths := []domain.SuspiciousPath{}

	for _, sp := range res.SuspiciousPaths {
		keep, err := f.eval(map[string]any{
			"index":  0,
			"score":  0.0,
			"z":      0.0,
			"amount": 0.0,
			"path":   sp.Path,
			"total":  sp.TotalAmount,
			"hops":   len(sp.Path) - 1,
		})
		if err != nil {
			return nil, err
		}
		if keep {
			paths = append(paths, sp)
		}
	}

	return &domain.AnomalyResult{
		Kind:  domain.KindGraph,
		Graph: &domain.GraphResult{SuspiciousPaths: paths},
	}, nil
}

func (f *Filter) eval(vars map[string]any) (bool, error) {
	out, _, err := f.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.expr, err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned non-bool %v", f.expr, out)
	}
	return bool(b), nil
}
