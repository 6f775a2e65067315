package plan

import (
	"fmt"
	"strings"
)

// Optimizer rewrites plans before they are compiled
type Optimizer struct {
	// Configuration options for optimization
	EnableDepthLimit bool
	DefaultMaxDepth  int
}

// NewOptimizer creates a new plan optimizer
func NewOptimizer() *Optimizer {
	return &Optimizer{
		EnableDepthLimit: true,
		DefaultMaxDepth:  5,
	}
}

var opAliases = map[string]Op{
	"vertex":      OpVertex,
	"vertices":    OpVertex,
	"all":         OpVertexAll,
	"label":       OpVertexLabel,
	"edges":       OpEdge,
	"where":       OpFilter,
	"dedup":       OpUnique,
	"limit":       OpTake,
	"mark":        OpAs,
	"repeat":      OpRepeatBreadth,
	"repeat_bfs":  OpRepeatBreadth,
	"repeat_dfs":  OpRepeatDepth,
	"passthrough": OpPass,
}

func normalizeOp(op Op) Op {
	s := strings.ToLower(strings.TrimSpace(string(op)))
	s = strings.ReplaceAll(s, "-", "_")
	if alias, ok := opAliases[s]; ok {
		return alias
	}
	return Op(s)
}

// Optimize returns a rewritten copy of the plan. The input is left untouched.
func (o *Optimizer) Optimize(p *Plan) (*Plan, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}

	return &Plan{
		Name:  p.Name,
		Steps: o.optimizeSteps(p.Steps),
	}, nil
}

func (o *Optimizer) optimizeSteps(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		s.Op = normalizeOp(s.Op)
		s.Where = strings.TrimSpace(s.Where)

		switch s.Op {
		case OpOptional:
			s.Body = o.optimizeSteps(s.Body)
		case OpRepeatBreadth, OpRepeatDepth:
			s.Body = o.optimizeSteps(s.Body)
			o.limitDepth(&s)
		case OpFilter:
			// Adjacent filters collapse into one CEL program
			if n := len(out); n > 0 && out[n-1].Op == OpFilter {
				out[n-1].Where = fmt.Sprintf("(%s) && (%s)", out[n-1].Where, s.Where)
				continue
			}
		case OpPass:
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		// A plan of only pass steps still needs one pipe
		out = append(out, Step{Op: OpPass})
	}
	return out
}

// limitDepth bounds a repeat step so a cyclic graph cannot expand forever
func (o *Optimizer) limitDepth(s *Step) {
	if !o.EnableDepthLimit {
		return
	}
	switch {
	case s.MaxDepth <= 0:
		s.MaxDepth = o.DefaultMaxDepth
	case s.MaxDepth > o.DefaultMaxDepth*2:
		s.MaxDepth = o.DefaultMaxDepth * 2
	}
}
