// Package circuit implements the typed directed circuit graph (C3):
// nodes referenced by stable indices, port-typed directed edges, and
// the five role-membership sets (inputs, clocks, resets, outputs,
// registers) plus the two-slot constant table.
//
// Indices are never reused once assigned, even after the node they
// named is removed: a slice of pointers grows monotonically and
// removal only tombstones a slot, so long-lived tables keyed by
// NodeIndex stay valid across arbitrary removals elsewhere in the
// graph.
package circuit

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/gomasq/gomasq/pkg/maskerr"
)

// NodeIndex is a stable reference to a node. It remains valid for the
// lifetime of the Circuit even after the node is removed (the slot is
// tombstoned, never recycled).
type NodeIndex int

// Node is the mutable payload attached to a graph position: the kind
// descriptor from pkg/gate plus the two fields the masking pass
// rewrites in place (Name, Secure).
type Node struct {
	Gate   gate.Node
	Name   string
	Secure bool
}

// Edge is a directed connection between two node ports.
type Edge struct {
	Src     NodeIndex
	SrcPort int
	Dst     NodeIndex
	DstPort int
}

type nodeSlot struct {
	used bool
	data Node
	out  []Edge
	in   []Edge
}

// Circuit is a directed multigraph: the data model of §3.
type Circuit struct {
	Name string

	nodes []*nodeSlot

	inputs    *bitset.BitSet
	clocks    *bitset.BitSet
	resets    *bitset.BitSet
	outputs   *bitset.BitSet
	registers *bitset.BitSet

	constIdx   [2]NodeIndex
	constValid [2]bool

	inputOrderingMap map[string][]string
	Blackboxes       map[string]gate.Blackbox
}

// New creates an empty circuit and immediately interns the two
// canonical constant nodes, per invariant 1 of §3.
func New(name string) *Circuit {
	c := &Circuit{
		Name:             name,
		inputs:           bitset.New(0),
		clocks:           bitset.New(0),
		resets:           bitset.New(0),
		outputs:          bitset.New(0),
		registers:        bitset.New(0),
		inputOrderingMap: make(map[string][]string),
		Blackboxes:       make(map[string]gate.Blackbox),
	}
	c.AddNode(Node{Gate: gate.Const(false)})
	c.AddNode(Node{Gate: gate.Const(true)})
	return c
}

// AddNode appends a new node and returns its stable index. Role-set
// membership (and the constant table, for constants) is updated
// atomically with the node's creation; a duplicate constant
// registration is an invariant violation.
func (c *Circuit) AddNode(n Node) NodeIndex {
	idx := NodeIndex(len(c.nodes))
	c.nodes = append(c.nodes, &nodeSlot{used: true, data: n})

	switch n.Gate.Kind {
	case gate.KindInput:
		c.inputs.Set(uint(idx))
	case gate.KindClock:
		c.clocks.Set(uint(idx))
	case gate.KindReset:
		c.resets.Set(uint(idx))
	case gate.KindOutput:
		c.outputs.Set(uint(idx))
	case gate.KindRegister:
		c.registers.Set(uint(idx))
	case gate.KindConstant:
		slot := 0
		if n.Gate.Value {
			slot = 1
		}
		if c.constValid[slot] {
			maskerr.Panic(fmt.Sprint(idx), n.Gate.String(), "duplicate constant registration")
		}
		c.constIdx[slot] = idx
		c.constValid[slot] = true
	}
	return idx
}

// RemoveNode tombstones a node, refusing to remove a constant. It
// clears role membership and every edge incident on the node (both
// directions). The index is never handed back out by future AddNode
// calls.
func (c *Circuit) RemoveNode(nx NodeIndex) bool {
	if !c.exists(nx) {
		return false
	}
	slot := c.nodes[nx]
	if slot.data.Gate.Kind == gate.KindConstant {
		return false
	}

	switch slot.data.Gate.Kind {
	case gate.KindInput:
		c.inputs.Clear(uint(nx))
	case gate.KindClock:
		c.clocks.Clear(uint(nx))
	case gate.KindReset:
		c.resets.Clear(uint(nx))
	case gate.KindOutput:
		c.outputs.Clear(uint(nx))
	case gate.KindRegister:
		c.registers.Clear(uint(nx))
	}

	for _, e := range slot.out {
		c.pruneIncoming(e.Dst, nx)
	}
	for _, e := range slot.in {
		c.pruneOutgoing(e.Src, nx)
	}

	slot.used = false
	slot.data = Node{}
	slot.out = nil
	slot.in = nil
	return true
}

func (c *Circuit) pruneIncoming(nx, src NodeIndex) {
	if !c.exists(nx) {
		return
	}
	slot := c.nodes[nx]
	kept := slot.in[:0]
	for _, e := range slot.in {
		if e.Src != src {
			kept = append(kept, e)
		}
	}
	slot.in = kept
}

func (c *Circuit) pruneOutgoing(nx, dst NodeIndex) {
	if !c.exists(nx) {
		return
	}
	slot := c.nodes[nx]
	kept := slot.out[:0]
	for _, e := range slot.out {
		if e.Dst != dst {
			kept = append(kept, e)
		}
	}
	slot.out = kept
}

func (c *Circuit) exists(nx NodeIndex) bool {
	return nx >= 0 && int(nx) < len(c.nodes) && c.nodes[nx].used
}

// Exists reports whether nx currently names a live node.
func (c *Circuit) Exists(nx NodeIndex) bool { return c.exists(nx) }

// Connect adds a directed edge. There is no uniqueness constraint on
// (dst, dst_port): multiple edges into the same port are explicitly
// used during share expansion.
func (c *Circuit) Connect(src NodeIndex, srcPort int, dst NodeIndex, dstPort int) {
	if !c.exists(src) {
		maskerr.Panic(fmt.Sprint(src), "?", "connect from nonexistent node")
	}
	if !c.exists(dst) {
		maskerr.Panic(fmt.Sprint(dst), "?", "connect to nonexistent node")
	}
	e := Edge{Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort}
	c.nodes[src].out = append(c.nodes[src].out, e)
	c.nodes[dst].in = append(c.nodes[dst].in, e)
}

// RemoveEdge removes a single matching edge (by full tuple) from both
// endpoints' adjacency lists, if present.
func (c *Circuit) RemoveEdge(e Edge) {
	if c.exists(e.Src) {
		slot := c.nodes[e.Src]
		for i, o := range slot.out {
			if o == e {
				slot.out = append(slot.out[:i], slot.out[i+1:]...)
				break
			}
		}
	}
	if c.exists(e.Dst) {
		slot := c.nodes[e.Dst]
		for i, o := range slot.in {
			if o == e {
				slot.in = append(slot.in[:i], slot.in[i+1:]...)
				break
			}
		}
	}
}

// ConstNode returns the interned constant node for v, creating it if
// somehow absent (it is always present from New onward).
func (c *Circuit) ConstNode(v bool) NodeIndex {
	slot := 0
	if v {
		slot = 1
	}
	if c.constValid[slot] {
		return c.constIdx[slot]
	}
	idx := c.AddNode(Node{Gate: gate.Const(v)})
	return idx
}

// Incoming yields the edges driving nx, ordered by dst_port ascending
// with source-index tie-break, per §4.3.
func (c *Circuit) Incoming(nx NodeIndex) []Edge {
	if !c.exists(nx) {
		return nil
	}
	out := make([]Edge, len(c.nodes[nx].in))
	copy(out, c.nodes[nx].in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].DstPort != out[j].DstPort {
			return out[i].DstPort < out[j].DstPort
		}
		return out[i].Src < out[j].Src
	})
	return out
}

// Outgoing yields the edges nx drives, in no particular guaranteed
// order (callers that need determinism should sort explicitly).
func (c *Circuit) Outgoing(nx NodeIndex) []Edge {
	if !c.exists(nx) {
		return nil
	}
	out := make([]Edge, len(c.nodes[nx].out))
	copy(out, c.nodes[nx].out)
	return out
}

// FanOut returns the number of outgoing edges from nx.
func (c *Circuit) FanOut(nx NodeIndex) int {
	if !c.exists(nx) {
		return 0
	}
	return len(c.nodes[nx].out)
}

// NodeAt returns a pointer to nx's mutable payload for in-place
// rewriting by the masking pass. Panics (invariant violation) if nx
// does not name a live node.
func (c *Circuit) NodeAt(nx NodeIndex) *Node {
	if !c.exists(nx) {
		maskerr.Panic(fmt.Sprint(nx), "?", "NodeAt on nonexistent node")
	}
	return &c.nodes[nx].data
}

func roleIndices(bs *bitset.BitSet) []NodeIndex {
	out := make([]NodeIndex, 0, bs.Count())
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, NodeIndex(i))
	}
	return out
}

// Inputs returns every Input-role node index, ascending.
func (c *Circuit) Inputs() []NodeIndex { return roleIndices(c.inputs) }

// Clocks returns every Clock-role node index, ascending.
func (c *Circuit) Clocks() []NodeIndex { return roleIndices(c.clocks) }

// Resets returns every Reset-role node index, ascending.
func (c *Circuit) Resets() []NodeIndex { return roleIndices(c.resets) }

// Outputs returns every Output-role node index, ascending.
func (c *Circuit) Outputs() []NodeIndex { return roleIndices(c.outputs) }

// Registers returns every Register-role node index, ascending.
func (c *Circuit) Registers() []NodeIndex { return roleIndices(c.registers) }

// IsInput, IsClock, IsReset, IsOutput, IsRegister report whether nx is
// a member of the corresponding role set — used by invariant checks
// to confirm role-set membership agrees with node kind (§3 invariant 2).
func (c *Circuit) IsInput(nx NodeIndex) bool    { return c.inputs.Test(uint(nx)) }
func (c *Circuit) IsClock(nx NodeIndex) bool    { return c.clocks.Test(uint(nx)) }
func (c *Circuit) IsReset(nx NodeIndex) bool    { return c.resets.Test(uint(nx)) }
func (c *Circuit) IsOutput(nx NodeIndex) bool   { return c.outputs.Test(uint(nx)) }
func (c *Circuit) IsRegister(nx NodeIndex) bool { return c.registers.Test(uint(nx)) }

// SecureInputs filters the input role set by the secure flag.
func (c *Circuit) SecureInputs() []NodeIndex {
	var out []NodeIndex
	for _, nx := range c.Inputs() {
		if c.nodes[nx].data.Secure {
			out = append(out, nx)
		}
	}
	return out
}

// SecureOutputs filters the output role set by the secure flag.
func (c *Circuit) SecureOutputs() []NodeIndex {
	var out []NodeIndex
	for _, nx := range c.Outputs() {
		if c.nodes[nx].data.Secure {
			out = append(out, nx)
		}
	}
	return out
}

// AllNodes returns every live node index, ascending. Callers that
// mutate the graph while iterating must collect this working set
// first (§9 "stable indices across mutation").
func (c *Circuit) AllNodes() []NodeIndex {
	out := make([]NodeIndex, 0, len(c.nodes))
	for i, s := range c.nodes {
		if s.used {
			out = append(out, NodeIndex(i))
		}
	}
	return out
}

// kindKey canonicalizes a gate.Node's kind+family+inversion into a
// string key for the persisted input-port-ordering map, so that it
// survives being looked up by kind alone (independent of name/secure).
func kindKey(n gate.Node) string {
	return fmt.Sprintf("%d:%d:%t", n.Kind, n.Family, n.Inverted)
}

// SetInputPortOrder persists the ordered input-port-name list for a
// node kind, so that later passes (reconnection, gadget expansion) can
// recover port semantics (§4.4).
func (c *Circuit) SetInputPortOrder(n gate.Node, order []string) {
	c.inputOrderingMap[kindKey(n)] = order
}

// InputPortOrder returns the persisted ordered input-port-name list for
// a node kind, if one was recorded during ingestion.
func (c *Circuit) InputPortOrder(n gate.Node) ([]string, bool) {
	order, ok := c.inputOrderingMap[kindKey(n)]
	return order, ok
}

// String renders a NodeIndex for diagnostics.
func (nx NodeIndex) String() string { return fmt.Sprintf("n%d", int(nx)) }
