package rules

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Condition is a boolean expr expression compiled against Env, used as a
// transition guard.
type Condition struct {
	Src     string // expr source (preserved for diagnostics)
	program *vm.Program
}

// CompileCondition compiles src into bytecode. Type errors (unknown helper,
// non-boolean result) are reported here rather than at tick time.
func CompileCondition(src string) (*Condition, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", src, err)
	}
	return &Condition{Src: src, program: prog}, nil
}

func (c *Condition) Eval(env Env) (bool, error) {
	result, err := vm.Run(c.program, env)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", c.Src, err)
	}
	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q: got %T, want bool", c.Src, result)
	}
	return match, nil
}

// Score is a numeric expr expression compiled against Env. Higher means
// more applicable; NotApplicable() rules a play out.
type Score struct {
	Src     string
	program *vm.Program
}

func CompileScore(src string) (*Score, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compile score %q: %w", src, err)
	}
	return &Score{Src: src, program: prog}, nil
}

func (s *Score) Eval(env Env) (float64, error) {
	result, err := vm.Run(s.program, env)
	if err != nil {
		return 0, fmt.Errorf("score %q: %w", s.Src, err)
	}
	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("score %q: got %T, want float64", s.Src, result)
}
