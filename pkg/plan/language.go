// Package plan runs traversal queries described as YAML or JSON documents.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Op names a plan step
type Op string

const (
	OpVertex        Op = "v"
	OpVertexAll     Op = "v_all"
	OpVertexLabel   Op = "v_label"
	OpEdge          Op = "e"
	OpIn            Op = "in"
	OpOut           Op = "out"
	OpFilter        Op = "filter"
	OpUnique        Op = "unique"
	OpTake          Op = "take"
	OpAs            Op = "as"
	OpBack          Op = "back"
	OpExcept        Op = "except"
	OpMerge         Op = "merge"
	OpOptional      Op = "optional"
	OpRepeatBreadth Op = "repeat_breadth"
	OpRepeatDepth   Op = "repeat_depth"
	OpPass          Op = "pass"
)

// Plan is a named sequence of steps
type Plan struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one pipe in a plan. Which fields apply depends on Op.
type Step struct {
	Op       Op       `yaml:"op" json:"op"`
	Nodes    []string `yaml:"nodes,omitempty" json:"nodes,omitempty"`       // v
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`       // v_label
	Edge     string   `yaml:"edge,omitempty" json:"edge,omitempty"`         // e, in, out: edge payload
	Where    string   `yaml:"where,omitempty" json:"where,omitempty"`       // e, in, out, filter: CEL
	Neighbor string   `yaml:"neighbor,omitempty" json:"neighbor,omitempty"` // e, in, out: CEL
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`         // as, back, except
	Names    []string `yaml:"names,omitempty" json:"names,omitempty"`       // merge
	N        *int     `yaml:"n,omitempty" json:"n,omitempty"`               // take
	Body     []Step   `yaml:"body,omitempty" json:"body,omitempty"`         // optional, repeat_*
	Repeat   string   `yaml:"repeat,omitempty" json:"repeat,omitempty"`     // repeat_*: CEL
	Emit     string   `yaml:"emit,omitempty" json:"emit,omitempty"`         // repeat_*: CEL
	MaxDepth int      `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
}

// ErrInvalidPlan indicates that the plan is invalid
var ErrInvalidPlan = errors.New("invalid plan")

// Parse decodes a plan document. JSON documents are accepted as YAML.
func Parse(data []byte) (*Plan, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidPlan)
	}

	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses a plan file
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Validate checks that every step has the parameters its op needs
func Validate(p *Plan) error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPlan)
	}
	return validateSteps(p.Steps, "steps")
}

func validateSteps(steps []Step, path string) error {
	for i := range steps {
		if err := validateStep(&steps[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s *Step, path string) error {
	switch normalizeOp(s.Op) {
	case OpVertex:
		if len(s.Nodes) == 0 {
			return fmt.Errorf("%w: %s: missing required parameter 'nodes'", ErrInvalidPlan, path)
		}
	case OpVertexLabel:
		if s.Label == "" {
			return fmt.Errorf("%w: %s: missing required parameter 'label'", ErrInvalidPlan, path)
		}
	case OpFilter:
		if s.Where == "" {
			return fmt.Errorf("%w: %s: missing required parameter 'where'", ErrInvalidPlan, path)
		}
	case OpTake:
		if s.N == nil || *s.N < 0 {
			return fmt.Errorf("%w: %s: parameter 'n' must be a non-negative integer", ErrInvalidPlan, path)
		}
	case OpAs, OpBack, OpExcept:
		if s.Name == "" {
			return fmt.Errorf("%w: %s: missing required parameter 'name'", ErrInvalidPlan, path)
		}
	case OpMerge:
		if len(s.Names) == 0 {
			return fmt.Errorf("%w: %s: missing required parameter 'names'", ErrInvalidPlan, path)
		}
	case OpOptional, OpRepeatBreadth, OpRepeatDepth:
		if len(s.Body) == 0 {
			return fmt.Errorf("%w: %s: missing required parameter 'body'", ErrInvalidPlan, path)
		}
		if s.MaxDepth < 0 {
			return fmt.Errorf("%w: %s: parameter 'max_depth' must not be negative", ErrInvalidPlan, path)
		}
		return validateSteps(s.Body, path+".body")
	case OpVertexAll, OpEdge, OpIn, OpOut, OpUnique, OpPass:
	default:
		return fmt.Errorf("%w: %s: unknown op %q", ErrInvalidPlan, path, s.Op)
	}
	return nil
}

// String renders the plan as a chain of op names
func (p *Plan) String() string {
	var sb strings.Builder
	writeSteps(&sb, p.Steps)
	return sb.String()
}

func writeSteps(sb *strings.Builder, steps []Step) {
	for i, s := range steps {
		if i > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(string(normalizeOp(s.Op)))
		sb.WriteString("(")
		switch {
		case len(s.Body) > 0:
			writeSteps(sb, s.Body)
		case len(s.Nodes) > 0:
			sb.WriteString(strings.Join(s.Nodes, ", "))
		case len(s.Names) > 0:
			sb.WriteString(strings.Join(s.Names, ", "))
		case s.Edge != "":
			sb.WriteString(s.Edge)
		case s.Name != "":
			sb.WriteString(s.Name)
		case s.Label != "":
			sb.WriteString(s.Label)
		case s.N != nil:
			fmt.Fprintf(sb, "%d", *s.N)
		case s.Where != "":
			sb.WriteString(s.Where)
		}
		sb.WriteString(")")
	}
}
