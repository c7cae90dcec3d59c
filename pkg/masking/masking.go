// Package masking implements the masking transformation pass (C5):
// sensitivity propagation, OR-to-AND normalization, the
// replicate-or-gadget rewrite decision, and share-aware reconnection.
// This is the hard engineering piece of the pipeline (spec.md §4.5);
// every exported entry point here mutates the circuit in place and is
// not safe to call concurrently with anything else touching the same
// *circuit.Circuit.
package masking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/gomasq/gomasq/pkg/maskerr"
	"github.com/sirupsen/logrus"
)

// ReplicaEntry is one share's worth of bookkeeping for a rewritten
// node: which node index now represents that share, and the src/dst
// port-block offsets to add when reconnecting edges into/out of it.
// For a replicated node the offsets are always 0 (Node is a distinct
// sibling node). For a gadget-substituted node, Node is the same index
// for every share and the offsets select the share's port block.
type ReplicaEntry struct {
	Node          circuit.NodeIndex
	SrcPortOffset int
	DstPortOffset int
}

// Mask applies order-th order Boolean masking in place: num_shares =
// order+1. Programming-error-grade faults (missing replica tables,
// non-expandable nodes inside the secure cone) are raised via
// maskerr.Panic and are the caller's responsibility to recover at the
// outermost boundary — this pass makes no partial-failure attempt.
func Mask(c *circuit.Circuit, order int, log *logrus.Logger) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	numShares := order + 1

	PropagateSecure(c)
	log.WithField("secure_inputs", len(c.SecureInputs())).Info("sensitivity propagated")

	ConvertSecureOrs(c)
	log.Info("OR gates normalized to inverted-AND")

	replicaMap := decideReplicasAndGadgets(c, numShares)
	log.WithField("rewritten_nodes", len(replicaMap)).Info("replicate/gadget decisions made")

	reconnect(c, replicaMap, numShares)
	log.WithField("num_shares", numShares).Info("share-aware reconnection complete")
}

// PropagateSecure performs forward reachability from every node marked
// secure on the input side, marking every reachable node's Secure flag
// true (§4.5.1). Re-running it after itself is a no-op (property 7).
func PropagateSecure(c *circuit.Circuit) {
	visited := make(map[circuit.NodeIndex]bool)
	var stack []circuit.NodeIndex
	stack = append(stack, c.SecureInputs()...)

	for len(stack) > 0 {
		nx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[nx] {
			continue
		}
		visited[nx] = true
		c.NodeAt(nx).Secure = true
		for _, e := range c.Outgoing(nx) {
			if !visited[e.Dst] {
				stack = append(stack, e.Dst)
			}
		}
	}
}

// ConvertSecureOrs rewrites every secure OR gate into an inverted-AND
// (De Morgan), flipping the inversion of each single-fanout source in
// place or inserting an inverting BUF on a shared-fanout edge (§4.5.2).
func ConvertSecureOrs(c *circuit.Circuit) {
	for _, nx := range c.AllNodes() {
		convertOr(c, nx)
	}
}

func convertOr(c *circuit.Circuit, nx circuit.NodeIndex) bool {
	if !c.Exists(nx) {
		return false
	}
	node := c.NodeAt(nx)
	if !node.Secure || node.Gate.Kind != gate.KindGate || node.Gate.Family != gate.OR {
		return false
	}
	node.Gate.Inverted = !node.Gate.Inverted

	incoming := c.Incoming(nx)
	for _, e := range incoming {
		singleFanout := c.FanOut(e.Src) == 1
		src := c.NodeAt(e.Src)
		if singleFanout && src.Gate.Kind == gate.KindGate {
			src.Gate.Inverted = !src.Gate.Inverted
			continue
		}
		notGate := c.AddNode(circuit.Node{
			Gate:   gate.Gate(gate.BUF, true),
			Secure: src.Secure,
		})
		c.RemoveEdge(e)
		c.Connect(e.Src, e.SrcPort, notGate, 0)
		c.Connect(notGate, 0, nx, e.DstPort)
	}
	return true
}

// decideReplicasAndGadgets walks the secure cone backward from every
// secure output, deciding for each newly-visited secure node whether
// to replicate or gadget-substitute it, and returns the resulting
// replica table keyed by original node index (§4.5.3).
func decideReplicasAndGadgets(c *circuit.Circuit, numShares int) map[circuit.NodeIndex][]ReplicaEntry {
	replicaMap := make(map[circuit.NodeIndex][]ReplicaEntry)
	visited := make(map[circuit.NodeIndex]bool)

	var stack []circuit.NodeIndex
	stack = append(stack, c.SecureOutputs()...)

	for len(stack) > 0 {
		nx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[nx] {
			continue
		}
		visited[nx] = true

		node := c.NodeAt(nx)
		if !node.Secure {
			continue
		}
		if _, done := replicaMap[nx]; done {
			continue
		}

		isLinear := isLinearReplicated(node.Gate)
		isNL := isNonLinear(node.Gate)
		switch {
		case numShares <= 1 && (isLinear || isNL):
			// order=0: num_shares=1, every replica table is empty and no
			// gadget substitution occurs — the graph is structurally
			// unchanged (spec.md §4.5, boundary behavior 10).
			replicaMap[nx] = nil
		case isLinear:
			replicaMap[nx] = replicateNode(c, numShares, nx)
		case isNL:
			replicaMap[nx] = replaceOrReplicate(c, numShares, nx)
		default:
			maskerr.Panic(nx.String(), node.Gate.String(), "non-expandable node kind found inside secure cone")
		}

		for _, e := range c.Incoming(nx) {
			if !visited[e.Src] {
				stack = append(stack, e.Src)
			}
		}
	}
	return replicaMap
}

func isLinearReplicated(n gate.Node) bool {
	if n.Kind == gate.KindInput || n.Kind == gate.KindOutput || n.Kind == gate.KindRegister {
		return true
	}
	return n.Kind == gate.KindGate && (n.Family == gate.XOR || n.Family == gate.BUF)
}

func isNonLinear(n gate.Node) bool {
	return n.Kind == gate.KindGate && (n.Family == gate.AND || n.Family == gate.OR || n.Family == gate.MUX)
}

// splitNameForShares decomposes a node's name around its final '[' into
// (prefix, suffix) for share-name interpolation. A name with no '[' is
// treated as a single prefix with an empty suffix (§9 design note).
func splitNameForShares(name string) (prefix, suffix string) {
	i := strings.LastIndex(name, "[")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func shareName(prefix, suffix string, share int) string {
	return fmt.Sprintf("%s_s%d%s", prefix, share, suffix)
}

// replicateNode duplicates nx into numShares-1 sibling nodes (linear
// replication). Gate nodes have their inversion cleared on the
// replicas — the original node alone carries it — since an inverted
// linear gate applied independently per share still reconstructs the
// correct XOR of shares.
func replicateNode(c *circuit.Circuit, numShares int, nx circuit.NodeIndex) []ReplicaEntry {
	node := c.NodeAt(nx)
	prefix, suffix := splitNameForShares(node.Name)

	replicaGate := node.Gate
	if replicaGate.Kind == gate.KindGate {
		replicaGate = gate.Gate(replicaGate.Family, false)
	}

	var replicas []ReplicaEntry
	for share := 1; share < numShares; share++ {
		idx := c.AddNode(circuit.Node{
			Gate:   replicaGate,
			Name:   shareName(prefix, suffix, share),
			Secure: true,
		})
		replicas = append(replicas, ReplicaEntry{Node: idx, SrcPortOffset: 0, DstPortOffset: 0})
	}
	node.Name = shareName(prefix, suffix, 0)
	return replicas
}

// replaceOrReplicate implements §4.5.3's non-linear decision: fall
// back to replication if any input (or, for a MUX, the select input
// specifically) is not secure; otherwise substitute the gate in place
// with a Gadget.
func replaceOrReplicate(c *circuit.Circuit, numShares int, nx circuit.NodeIndex) []ReplicaEntry {
	incoming := c.Incoming(nx)
	numInPorts := len(incoming)

	allSecure := true
	for _, e := range incoming {
		if !c.NodeAt(e.Src).Secure {
			allSecure = false
			break
		}
	}

	node := c.NodeAt(nx)
	if node.Gate.Family == gate.MUX {
		selectSecure := numInPorts > 0 && c.NodeAt(incoming[0].Src).Secure
		if !selectSecure {
			return replicateNode(c, numShares, nx)
		}
	}
	if !allSecure {
		return replicateNode(c, numShares, nx)
	}

	const numOutPorts = 1 // open question in spec.md §9: multi-output gadgets are out of scope
	base := node.Gate
	node.Gate = gate.GadgetOf(base.Family, base.Inverted, numShares)

	var entries []ReplicaEntry
	for s := 1; s < numShares; s++ {
		entries = append(entries, ReplicaEntry{
			Node:          nx,
			SrcPortOffset: gate.ShareOffset(s, numOutPorts, 0),
			DstPortOffset: gate.ShareOffset(s, numInPorts, 0),
		})
	}
	return entries
}

// reconnect walks every rewritten node's original incoming edges and
// wires them to the share-indexed replica tables (§4.5.4).
func reconnect(c *circuit.Circuit, replicaMap map[circuit.NodeIndex][]ReplicaEntry, numShares int) {
	keys := make([]circuit.NodeIndex, 0, len(replicaMap))
	for nx := range replicaMap {
		keys = append(keys, nx)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, nx := range keys {
		replicas := replicaMap[nx]
		for _, e := range c.Incoming(nx) {
			srcNode := c.NodeAt(e.Src)
			if !srcNode.Secure {
				for _, r := range replicas {
					c.Connect(e.Src, e.SrcPort, r.Node, e.DstPort+r.DstPortOffset)
				}
				continue
			}
			srcReplicas, ok := replicaMap[e.Src]
			if !ok {
				maskerr.Panic(e.Src.String(), srcNode.Gate.String(), "secure predecessor has no replica table")
			}
			if len(srcReplicas) != len(replicas) {
				maskerr.Panic(nx.String(), c.NodeAt(nx).Gate.String(), "share count mismatch between predecessor and successor")
			}
			for i, sr := range srcReplicas {
				dr := replicas[i]
				c.Connect(sr.Node, e.SrcPort+sr.SrcPortOffset, dr.Node, e.DstPort+dr.DstPortOffset)
			}
		}
	}
}
