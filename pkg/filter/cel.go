package filter

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/google/cel-go/common/types"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
)

// Variables visible to expressions:
//
//	node   payload of the current node
//	edge   payload of the edge being crossed, or null
//	next   payload of the neighbor, or null
//	slot   position of the neighbor in the edge, or -1
//	depth  repeat depth of the candidate
//	labels payloads of the current node's labels
//	props  payloads of the current node's properties

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Declarations(
				decls.NewVar("node", decls.Dyn),
				decls.NewVar("edge", decls.Dyn),
				decls.NewVar("next", decls.Dyn),
				decls.NewVar("slot", decls.Int),
				decls.NewVar("depth", decls.Int),
				decls.NewVar("labels", decls.NewListType(decls.Dyn)),
				decls.NewVar("props", decls.NewListType(decls.Dyn)),
			),
		)
	})
	return env, envErr
}

// Expression is a compiled boolean CEL expression over a hop
type Expression struct {
	source string
	prg    cel.Program
}

// Compile parses and checks a CEL expression
func Compile(source string) (*Expression, error) {
	e, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := e.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expression %q compilation error: %w", source, issues.Err())
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expression %q program creation error: %w", source, err)
	}
	return &Expression{source: source, prg: prg}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(source string) *Expression {
	x, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return x
}

// String returns the expression source
func (x *Expression) String() string {
	return x.source
}

// Eval runs the expression against a set of variables
func (x *Expression) Eval(vars map[string]interface{}) (bool, error) {
	out, _, err := x.prg.Eval(vars)
	if err != nil {
		return false, err
	}
	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %s, not bool", x.source, out.Type().TypeName())
	}
	return match, nil
}

// Expr turns an expression into a predicate. Evaluation errors reject the
// hop and are logged at debug level.
func Expr[T comparable](x *Expression) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		match, err := x.Eval(HopVars(h))
		if err != nil {
			logger := h.Graph.Logger()
			if logger.IsLevelEnabled(model.LogLevelDebug) {
				logger.Debug("expression %q failed: %v", x.source, err)
			}
			return false
		}
		return match
	}
}

// HopVars builds the expression variables for a hop
func HopVars[T comparable](h query.Hop[T]) map[string]interface{} {
	g := h.Graph
	vars := map[string]interface{}{
		"node":   types.NullValue,
		"edge":   types.NullValue,
		"next":   types.NullValue,
		"slot":   int64(slotOf(h)),
		"depth":  int64(h.Depth),
		"labels": []interface{}{},
		"props":  []interface{}{},
	}
	if v, ok := g.NodeValue(h.Node); ok {
		vars["node"] = v
	}
	if v, ok := g.EdgeValue(h.Edge); ok {
		vars["edge"] = v
	}
	if v, ok := g.NodeValue(h.Next); ok {
		vars["next"] = v
	}

	labels := []interface{}{}
	for _, l := range g.NodeLabels(h.Node) {
		if v, ok := g.LabelValue(l); ok {
			labels = append(labels, v)
		}
	}
	vars["labels"] = labels

	props := []interface{}{}
	for _, p := range g.NodeProps(h.Node) {
		if v, ok := g.PropValue(p); ok {
			props = append(props, v)
		}
	}
	vars["props"] = props
	return vars
}
