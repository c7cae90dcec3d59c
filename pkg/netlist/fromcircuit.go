package netlist

import (
	"fmt"

	"github.com/gomasq/gomasq/pkg/circuit"
)

// FromCircuit re-serializes a masked circuit back into a netlist
// Document. This mirrors original_source/src/circuit/into_netlist.rs
// exactly in scope: only the primary input ports are re-emitted (no
// cells, outputs, or netnames) — a deliberately limited round-trip that
// the original implementation never extended past, kept here as a
// supplemented feature (spec.md §9, §12) rather than a full serializer.
func FromCircuit(c *circuit.Circuit) (*Document, error) {
	top := Module{
		Attributes: map[string]AttributeVal{
			"top": {IsNumber: true, Number: 1},
		},
		Ports: make(map[string]Port),
	}

	for _, nx := range c.Inputs() {
		node := c.NodeAt(nx)
		if node.Name == "" {
			return nil, fmt.Errorf("netlist: input node %s has no name to re-emit", nx)
		}
		top.Ports[node.Name] = Port{
			Direction: DirInput,
			Bits:      nil,
		}
	}

	return &Document{
		Creator: "gomasq",
		Modules: map[string]Module{
			c.Name: top,
		},
	}, nil
}
