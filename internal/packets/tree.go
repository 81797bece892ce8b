package packets

import (
	"errors"
	"time"

	"hearthlog.gg/internal/entities"
)

// ErrNoOpenBlock is returned by EndBlock when every block is already closed,
// which means the producer emitted a stray end marker.
var ErrNoOpenBlock = errors.New("no open block")

// PacketTree holds every packet of one game in a single flat slice, in
// arrival order. Nesting is kept as parent/child indexes into that slice
// rather than blocks owning sub-slices, so arrival order is depth-first
// order and a full replay is a plain forward walk with no recursion.
//
// The tree is append-only while the tokenizer owns it and must be treated as
// immutable once handed to Export.
type PacketTree struct {
	packets  []Packet
	parent   []int   // parent[i] = node index of the enclosing block, -1 at top level
	children [][]int // children[i] = direct child node indexes, blocks only
	top      []int   // top-level node indexes in order
	open     []int   // unclosed block node indexes, innermost last
}

func NewTree() *PacketTree {
	return &PacketTree{}
}

// Append adds p to the innermost open scope: the tree root, or the most
// recently opened block that has not seen its end marker. Appending a *Block
// opens a new scope until EndBlock.
func (t *PacketTree) Append(p Packet) {
	idx := len(t.packets)
	parent := -1
	if n := len(t.open); n > 0 {
		parent = t.open[n-1]
	}
	t.packets = append(t.packets, p)
	t.parent = append(t.parent, parent)
	t.children = append(t.children, nil)
	if parent == -1 {
		t.top = append(t.top, idx)
	} else {
		t.children[parent] = append(t.children[parent], idx)
	}
	if b, ok := p.(*Block); ok {
		b.node = idx
		t.open = append(t.open, idx)
	}
}

// EndBlock closes the innermost open block and returns it.
func (t *PacketTree) EndBlock() (*Block, error) {
	n := len(t.open)
	if n == 0 {
		return nil, ErrNoOpenBlock
	}
	idx := t.open[n-1]
	t.open = t.open[:n-1]
	b := t.packets[idx].(*Block)
	b.End()
	return b, nil
}

// Len is the total number of packets, nested ones included.
func (t *PacketTree) Len() int { return len(t.packets) }

// Packets returns the direct top-level packets in stored order. Block
// children are reached through Children, never inlined here.
func (t *PacketTree) Packets() []Packet {
	out := make([]Packet, len(t.top))
	for i, idx := range t.top {
		out[i] = t.packets[idx]
	}
	return out
}

// Children returns b's direct children in arrival order. b must belong to
// this tree.
func (t *PacketTree) Children(b *Block) []Packet {
	if b.node >= len(t.packets) || t.packets[b.node] != Packet(b) {
		return nil
	}
	idxs := t.children[b.node]
	out := make([]Packet, len(idxs))
	for i, idx := range idxs {
		out[i] = t.packets[idx]
	}
	return out
}

// StartTime is the first non-zero timestamp among top-level packets, in
// stored order. Block children are never inspected.
func (t *PacketTree) StartTime() (time.Time, bool) {
	for _, idx := range t.top {
		if ts := t.packets[idx].Timestamp(); !ts.IsZero() {
			return ts, true
		}
	}
	return time.Time{}, false
}

// EndTime is the last non-zero timestamp among top-level packets.
func (t *PacketTree) EndTime() (time.Time, bool) {
	for i := len(t.top) - 1; i >= 0; i-- {
		if ts := t.packets[t.top[i]].Timestamp(); !ts.IsZero() {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Export replays the whole tree into a fresh entity graph and returns it.
//
// The first packet must be a CreateGame; the producer guarantees this and
// Export does not re-validate it (the type assertion panics on a malformed
// tree). Because storage is flat in arrival order, replay is one forward
// walk: every block's children apply before the block's following siblings,
// exactly the stream order the engine emitted. The first consistency
// violation aborts the pass; no partial graph escapes.
func (t *PacketTree) Export() (*entities.Game, error) {
	g := t.packets[0].(*CreateGame).materialize()
	for _, p := range t.packets[1:] {
		if err := p.Apply(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}
