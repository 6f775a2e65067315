// Package loader populates a graph from YAML or JSON documents.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// ErrInvalidDocument indicates that a graph document cannot be loaded
var ErrInvalidDocument = errors.New("invalid graph document")

// Document is the on-disk form of a graph. Nodes are referred to by name.
type Document struct {
	Labels []string   `yaml:"labels" json:"labels"`
	Nodes  []NodeSpec `yaml:"nodes" json:"nodes"`
	Edges  []EdgeSpec `yaml:"edges" json:"edges"`
}

// NodeSpec describes one node
type NodeSpec struct {
	Name   string   `yaml:"name" json:"name"`
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Props  []string `yaml:"props,omitempty" json:"props,omitempty"`
}

// EdgeSpec describes one edge. The first node is the source.
type EdgeSpec struct {
	Value    string   `yaml:"value" json:"value"`
	Nodes    []string `yaml:"nodes" json:"nodes"`
	Inverted bool     `yaml:"inverted,omitempty" json:"inverted,omitempty"`
	Props    []string `yaml:"props,omitempty" json:"props,omitempty"`
}

// Decode reads a document. JSON is accepted as a subset of YAML.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read graph document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document from bytes
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// LoadFile reads a document from path and loads it into g
func LoadFile(g *storage.Graph[string], path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Load(g, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load adds every entity in doc to g, in document order: labels, then nodes
// with their labels and properties, then edges with their properties.
// The document is validated before anything is added.
func Load(g *storage.Graph[string], doc *Document) error {
	if err := Validate(doc); err != nil {
		return err
	}

	labels := make(map[string]model.LabelID)
	label := func(name string) model.LabelID {
		if id, ok := labels[name]; ok {
			return id
		}
		id, ok := g.FindLabel(name)
		if !ok {
			id = g.AddLabel(name)
		}
		labels[name] = id
		return id
	}
	for _, name := range doc.Labels {
		label(name)
	}

	nodes := make(map[string]model.NodeID, len(doc.Nodes))
	for _, spec := range doc.Nodes {
		id := g.AddNode(spec.Name)
		nodes[spec.Name] = id
		for _, l := range spec.Labels {
			if err := g.AttachLabel(id, label(l)); err != nil {
				return err
			}
		}
		for _, p := range spec.Props {
			if _, err := g.AddProp(p, model.NodeRef(id)); err != nil {
				return err
			}
		}
	}

	for i, spec := range doc.Edges {
		ids := make([]model.NodeID, len(spec.Nodes))
		for j, name := range spec.Nodes {
			ids[j] = nodes[name]
		}

		var (
			id  model.EdgeID
			err error
		)
		if spec.Inverted {
			id, err = g.AddInvertedEdge(spec.Value, ids...)
		} else {
			id, err = g.AddEdge(spec.Value, ids...)
		}
		if err != nil {
			return fmt.Errorf("edge %d (%s): %w", i, spec.Value, err)
		}
		for _, p := range spec.Props {
			if _, err := g.AddProp(p, model.EdgeRef(id)); err != nil {
				return err
			}
		}
	}

	g.Logger().Debug("loaded %d nodes, %d edges, %d labels", len(doc.Nodes), len(doc.Edges), len(labels))
	return nil
}

// Validate checks node names and edge references
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}

	names := make(map[string]struct{}, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%w: node %d has no name", ErrInvalidDocument, i)
		}
		if _, dup := names[n.Name]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidDocument, n.Name)
		}
		names[n.Name] = struct{}{}
	}

	for i, e := range doc.Edges {
		if len(e.Nodes) < 2 {
			return fmt.Errorf("%w: edge %d (%s): %w", ErrInvalidDocument, i, e.Value, &model.ErrInvalidArity{Count: len(e.Nodes)})
		}
		for _, name := range e.Nodes {
			if _, ok := names[name]; !ok {
				return fmt.Errorf("%w: edge %d (%s) references unknown node %q", ErrInvalidDocument, i, e.Value, name)
			}
		}
	}
	return nil
}
