// Package dotdump renders a circuit.Circuit as a Graphviz DOT graph:
// secure nodes and edges in red, gates/registers as record shapes,
// constants as octagons, primary inputs ranked as sources and primary
// outputs as sinks. This is a presentation-only sink (spec.md §6); it
// has no bearing on the masking transformation itself and is grounded
// on original_source/src/circuit/dot.rs.
package dotdump

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/gate"
)

// Write renders c to w as a single DOT digraph named graphName.
func Write(w io.Writer, c *circuit.Circuit, graphName string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", graphName)
	b.WriteString("  rankdir=\"LR\";\n")
	b.WriteString("  remincross=true;\n")

	for _, nx := range c.AllNodes() {
		b.WriteString(nodeLine(c, nx))
	}
	for _, nx := range c.AllNodes() {
		for _, e := range c.Incoming(nx) {
			b.WriteString(edgeLine(c, e))
		}
	}

	b.WriteString(rankLine("source", c.Inputs()))
	b.WriteString(rankLine("sink", c.Outputs()))
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func shapeFor(n gate.Node) (string, bool) {
	switch n.Kind {
	case gate.KindGate, gate.KindGadget, gate.KindRegister:
		return "record", true
	case gate.KindConstant:
		return "octagon", true
	default:
		return "", false
	}
}

func nodeLine(c *circuit.Circuit, nx circuit.NodeIndex) string {
	node := c.NodeAt(nx)
	label := node.Name
	if label == "" {
		label = node.Gate.String()
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if shape, ok := shapeFor(node.Gate); ok {
		attrs = append(attrs, fmt.Sprintf("shape=%q", shape))
	}
	if node.Secure {
		attrs = append(attrs, `color="red"`)
	}
	sort.Strings(attrs)
	return fmt.Sprintf("  %q [%s];\n", nx.String(), strings.Join(attrs, ", "))
}

func edgeLine(c *circuit.Circuit, e circuit.Edge) string {
	var attrs []string
	if c.NodeAt(e.Src).Secure {
		attrs = append(attrs, `color="red"`)
	}
	attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprintf("%d,%d", e.SrcPort, e.DstPort)))
	return fmt.Sprintf("  %q -> %q [%s];\n", e.Src.String(), e.Dst.String(), strings.Join(attrs, ", "))
}

func rankLine(rank string, nodes []circuit.NodeIndex) string {
	if len(nodes) == 0 {
		return fmt.Sprintf("  {rank=%q;}\n", rank)
	}
	names := make([]string, len(nodes))
	for i, nx := range nodes {
		names[i] = fmt.Sprintf("%q", nx.String())
	}
	return fmt.Sprintf("  {rank=%q; %s;}\n", rank, strings.Join(names, "; "))
}
