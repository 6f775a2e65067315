package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
)

const (
	// SnapshotMagic identifies a serialized graph ("PGSF")
	SnapshotMagic uint32 = 0x50475346

	// SnapshotVersion is the current snapshot layout
	SnapshotVersion uint16 = 1

	// maxPayload bounds a single encoded payload
	maxPayload = 1 << 24
)

var (
	// ErrInvalidSnapshot is returned when snapshot data is malformed
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrUnsupportedVersion is returned for snapshots written by a newer layout
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrChecksumMismatch is returned when the trailer hash does not match the data
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// Codec converts payloads to and from bytes
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// StringCodec stores string payloads as raw bytes
type StringCodec struct{}

// Encode returns the bytes of v
func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }

// Decode returns data as a string
func (StringCodec) Decode(data []byte) (string, error) { return string(data), nil }

// WriteSnapshot serializes the whole graph, relation order included, followed
// by an xxhash trailer
func (g *Graph[T]) WriteSnapshot(w io.Writer, codec Codec[T]) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	digest := xxhash.New()
	sw := &snapshotWriter[T]{w: io.MultiWriter(w, digest), codec: codec}

	sw.put(SnapshotMagic)
	sw.put(SnapshotVersion)
	sw.put(uint32(g.labels.len()))
	sw.put(uint32(g.nodes.len()))
	sw.put(uint32(g.edges.len()))
	sw.put(uint32(g.props.len()))

	for i := range g.labels.items {
		sw.payload(g.labels.items[i].value)
	}
	for i := range g.nodes.items {
		sw.payload(g.nodes.items[i].value)
	}
	for i := range g.edges.items {
		e := &g.edges.items[i]
		sw.payload(e.value)
		sw.put(e.inverted)
		writeIDs(sw, e.nodes)
	}
	for i := range g.props.items {
		p := &g.props.items[i]
		sw.payload(p.value)
		sw.put(uint8(p.owner.Kind))
		sw.put(p.owner.ID)
	}

	// Relation lists keep their order, which traversal results depend on
	for i := range g.nodes.items {
		writeIDs(sw, g.nodes.items[i].edges)
		writeIDs(sw, g.nodes.items[i].labels)
	}
	for i := range g.labels.items {
		writeIDs(sw, g.labels.items[i].nodes)
	}

	if sw.err != nil {
		return sw.err
	}
	return binary.Write(w, binary.LittleEndian, digest.Sum64())
}

// ReadSnapshot rebuilds a graph written by WriteSnapshot
func ReadSnapshot[T comparable](r io.Reader, codec Codec[T], opts ...GraphOption) (*Graph[T], error) {
	digest := xxhash.New()
	sr := &snapshotReader[T]{r: io.TeeReader(r, digest), codec: codec}

	var (
		magic                           uint32
		version                         uint16
		nLabels, nNodes, nEdges, nProps uint32
	)
	sr.get(&magic)
	if sr.err == nil && magic != SnapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrInvalidSnapshot, magic)
	}
	sr.get(&version)
	if sr.err == nil && version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	sr.get(&nLabels)
	sr.get(&nNodes)
	sr.get(&nEdges)
	sr.get(&nProps)
	if sr.err != nil {
		return nil, sr.failure()
	}
	for _, n := range []uint32{nLabels, nNodes, nEdges, nProps} {
		if n > maxPayload {
			return nil, fmt.Errorf("%w: entity count %d", ErrInvalidSnapshot, n)
		}
	}

	// Arenas grow as records arrive so the header counts cannot force a
	// large allocation on their own
	g := NewGraph[T](opts...)
	for i := uint32(0); i < nLabels && sr.err == nil; i++ {
		g.labels.add(labelRecord[T]{value: sr.payload()})
	}
	for i := uint32(0); i < nNodes && sr.err == nil; i++ {
		v := sr.payload()
		g.nodes.add(nodeRecord[T]{value: v})
		g.remember(v)
	}
	for i := uint32(0); i < nEdges && sr.err == nil; i++ {
		e := edgeRecord[T]{value: sr.payload()}
		sr.get(&e.inverted)
		e.nodes = readIDs[model.NodeID](sr, nNodes)
		g.edges.add(e)
	}
	for i := uint32(0); i < nProps && sr.err == nil; i++ {
		p := propRecord[T]{value: sr.payload()}
		var kind uint8
		sr.get(&kind)
		sr.get(&p.owner.ID)
		p.owner.Kind = model.Kind(kind)
		if sr.err != nil {
			break
		}
		id := model.PropID(g.props.add(p))
		if err := g.linkProp(id, p.owner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}
	for i := range g.nodes.items {
		if sr.err != nil {
			break
		}
		g.nodes.items[i].edges = readIDs[model.EdgeID](sr, nEdges)
		g.nodes.items[i].labels = readIDs[model.LabelID](sr, nLabels)
	}
	for i := range g.labels.items {
		if sr.err != nil {
			break
		}
		g.labels.items[i].nodes = readIDs[model.NodeID](sr, nNodes)
	}
	if sr.err != nil {
		return nil, sr.failure()
	}

	want := digest.Sum64()
	var got uint64
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return nil, fmt.Errorf("%w: missing checksum: %v", ErrInvalidSnapshot, err)
	}
	if got != want {
		return nil, ErrChecksumMismatch
	}
	if err := g.checkRelations(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if g.logger.IsLevelEnabled(model.LogLevelDebug) {
		g.logger.Debug("restored snapshot: %d nodes, %d edges, %d labels, %d props", nNodes, nEdges, nLabels, nProps)
	}
	return g, nil
}

// checkRelations verifies edge arity and that every relation is recorded on
// both of its sides
func (g *Graph[T]) checkRelations() error {
	for i := range g.edges.items {
		e := &g.edges.items[i]
		id := model.EdgeID(i + 1)
		if len(e.nodes) < 2 {
			return fmt.Errorf("edge %d: %w", id, &model.ErrInvalidArity{Count: len(e.nodes)})
		}
		for _, n := range e.nodes {
			if !contains(g.nodes.items[n-1].edges, id) {
				return fmt.Errorf("edge %d lists node %d, which does not list it back", id, n)
			}
		}
	}
	for i := range g.nodes.items {
		n := &g.nodes.items[i]
		id := model.NodeID(i + 1)
		for _, e := range n.edges {
			if !contains(g.edges.items[e-1].nodes, id) {
				return fmt.Errorf("node %d lists edge %d, which does not list it back", id, e)
			}
		}
		for _, l := range n.labels {
			if !contains(g.labels.items[l-1].nodes, id) {
				return fmt.Errorf("node %d lists label %d, which does not list it back", id, l)
			}
		}
	}
	for i := range g.labels.items {
		id := model.LabelID(i + 1)
		for _, n := range g.labels.items[i].nodes {
			if !contains(g.nodes.items[n-1].labels, id) {
				return fmt.Errorf("label %d lists node %d, which does not list it back", id, n)
			}
		}
	}
	return nil
}

// linkProp appends a restored property to its owner's list
func (g *Graph[T]) linkProp(id model.PropID, owner model.Ref) error {
	switch owner.Kind {
	case model.KindNode:
		if rec, ok := g.nodes.get(owner.ID); ok {
			rec.props = append(rec.props, id)
			return nil
		}
	case model.KindEdge:
		if rec, ok := g.edges.get(owner.ID); ok {
			rec.props = append(rec.props, id)
			return nil
		}
	}
	return &model.ErrInvalidOwner{Owner: owner}
}

type snapshotWriter[T any] struct {
	w     io.Writer
	codec Codec[T]
	err   error
}

func (sw *snapshotWriter[T]) put(v any) {
	if sw.err != nil {
		return
	}
	sw.err = binary.Write(sw.w, binary.LittleEndian, v)
}

func (sw *snapshotWriter[T]) payload(v T) {
	if sw.err != nil {
		return
	}
	data, err := sw.codec.Encode(v)
	if err != nil {
		sw.err = fmt.Errorf("failed to encode payload: %w", err)
		return
	}
	if len(data) > maxPayload {
		sw.err = fmt.Errorf("payload of %d bytes exceeds %d", len(data), maxPayload)
		return
	}
	sw.put(uint32(len(data)))
	if sw.err == nil {
		_, sw.err = sw.w.Write(data)
	}
}

func writeIDs[T any, ID ~uint32](sw *snapshotWriter[T], ids []ID) {
	sw.put(uint32(len(ids)))
	for _, id := range ids {
		sw.put(uint32(id))
	}
}

type snapshotReader[T any] struct {
	r     io.Reader
	codec Codec[T]
	err   error
}

func (sr *snapshotReader[T]) get(v any) {
	if sr.err != nil {
		return
	}
	sr.err = binary.Read(sr.r, binary.LittleEndian, v)
}

// failure wraps a read error, treating truncation as a malformed snapshot
func (sr *snapshotReader[T]) failure() error {
	if errors.Is(sr.err, io.EOF) || errors.Is(sr.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated", ErrInvalidSnapshot)
	}
	return sr.err
}

func (sr *snapshotReader[T]) payload() T {
	var zero T
	var n uint32
	sr.get(&n)
	if sr.err != nil {
		return zero
	}
	if n > maxPayload {
		sr.err = fmt.Errorf("%w: payload of %d bytes", ErrInvalidSnapshot, n)
		return zero
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(sr.r, data); err != nil {
		sr.err = err
		return zero
	}
	v, err := sr.codec.Decode(data)
	if err != nil {
		sr.err = fmt.Errorf("%w: failed to decode payload: %v", ErrInvalidSnapshot, err)
		return zero
	}
	return v
}

// readIDs reads a handle list, rejecting handles outside [1, limit]
func readIDs[ID ~uint32, T any](sr *snapshotReader[T], limit uint32) []ID {
	var n uint32
	sr.get(&n)
	if sr.err != nil || n == 0 {
		return nil
	}
	if n > maxPayload {
		sr.err = fmt.Errorf("%w: list of %d handles", ErrInvalidSnapshot, n)
		return nil
	}
	ids := make([]ID, 0, min(n, 64))
	for i := uint32(0); i < n; i++ {
		var id uint32
		sr.get(&id)
		if sr.err != nil {
			return nil
		}
		if id == 0 || id > limit {
			sr.err = fmt.Errorf("%w: handle %d out of range", ErrInvalidSnapshot, id)
			return nil
		}
		ids = append(ids, ID(id))
	}
	return ids
}
