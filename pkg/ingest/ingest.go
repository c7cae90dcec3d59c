// Package ingest builds a circuit graph (pkg/circuit) from a parsed
// netlist document (pkg/netlist), resolving cell types through a
// cell-library (pkg/celllib). This is component C4 of the pipeline: a
// deterministic two-pass construction — allocate nodes, then wire
// edges — described in spec.md §4.4.
package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomasq/gomasq/pkg/celllib"
	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/gomasq/gomasq/pkg/maskerr"
	"github.com/gomasq/gomasq/pkg/netlist"
	"github.com/sirupsen/logrus"
)

// driverRef names a (node, output-port) pair driving a signal.
type driverRef struct {
	node circuit.NodeIndex
	port int
}

// Build ingests doc's top module (or the module named top, if
// non-empty) into a fresh circuit.Circuit. log may be nil, in which
// case logrus.StandardLogger() is used.
func Build(doc *netlist.Document, lib *celllib.Library, top string, log *logrus.Logger) (*circuit.Circuit, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	blackboxes := harvestBlackboxes(doc)

	modName, mod, ok := doc.FindTop(top)
	if !ok {
		return nil, maskerr.NewUnresolvedModule(top)
	}
	log.WithField("module", modName).Info("ingesting top module")

	c := circuit.New(modName)
	for name, bb := range blackboxes {
		c.Blackboxes[name] = bb
	}

	signalDriver := make(map[netlist.SignalId]driverRef)
	nodeInBits := make(map[circuit.NodeIndex][]netlist.BitVal)

	if err := allocatePorts(c, mod, modName, signalDriver, nodeInBits); err != nil {
		return nil, err
	}
	if err := allocateCells(c, mod, lib, signalDriver, nodeInBits); err != nil {
		return nil, err
	}
	if err := wireEdges(c, nodeInBits, signalDriver); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"module": modName,
		"nodes":  len(c.AllNodes()),
	}).Info("ingestion complete")
	return c, nil
}

func harvestBlackboxes(doc *netlist.Document) map[string]gate.Blackbox {
	out := make(map[string]gate.Blackbox)
	for name, mod := range doc.Modules {
		if !mod.IsBlackbox() {
			continue
		}
		out[name] = gate.Blackbox{
			Name:    name,
			Inputs:  mod.Inputs(),
			Outputs: mod.Outputs(),
		}
	}
	return out
}

// maskAttr reads the MASQ attribute off a netname, case-insensitively,
// returning the lower-cased value (or "" if absent).
func maskAttr(net netlist.Netname) string {
	for k, v := range net.Attributes {
		if strings.EqualFold(k, "MASQ") {
			return strings.ToLower(v.AsString())
		}
	}
	return ""
}

func sortedPortNames(mod *netlist.Module) []string {
	names := make([]string, 0, len(mod.Ports))
	for n := range mod.Ports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ioNodeName(portName string, width, idx int) string {
	if width > 1 {
		return fmt.Sprintf("%s[%d]", portName, idx)
	}
	return portName
}

// allocatePorts is pass A's port half: every primary input/output gets
// one node per bit.
func allocatePorts(c *circuit.Circuit, mod *netlist.Module, modName string, signalDriver map[netlist.SignalId]driverRef, nodeInBits map[circuit.NodeIndex][]netlist.BitVal) error {
	for _, portName := range sortedPortNames(mod) {
		port := mod.Ports[portName]
		net, ok := mod.Netnames[portName]
		if !ok {
			return maskerr.NewInputFormatError(modName, fmt.Sprintf("netname %q not found", portName))
		}
		masq := maskAttr(net)
		width := len(net.Bits)

		switch port.Direction {
		case netlist.DirInput:
			var node gate.Node
			secure := false
			switch masq {
			case "secure":
				node, secure = gate.Input(), true
			case "clock":
				node = gate.Clock()
			case "reset":
				node = gate.Reset()
			default:
				node = gate.Input()
			}
			for idx, bit := range net.Bits {
				if !bit.IsSignal {
					return maskerr.NewInputFormatError(modName, fmt.Sprintf("input port %q bit %d is bound to a constant", portName, idx))
				}
				nx := c.AddNode(circuit.Node{Gate: node, Name: ioNodeName(portName, width, idx), Secure: secure})
				if _, dup := signalDriver[bit.Signal]; dup {
					maskerr.Panic(nx.String(), node.String(), fmt.Sprintf("duplicate driver for signal %d", bit.Signal))
				}
				signalDriver[bit.Signal] = driverRef{node: nx, port: 0}
			}
		case netlist.DirOutput:
			// Secure status on an output arises only from forward
			// sensitivity propagation (spec.md §4.5.1), never from the
			// port's own MASQ attribute — matching from_netlist.rs's
			// Output arm, which never calls .secure(...) on the
			// NodeBuilder.
			for idx, bit := range net.Bits {
				nx := c.AddNode(circuit.Node{Gate: gate.Output(), Name: ioNodeName(portName, width, idx)})
				nodeInBits[nx] = append(nodeInBits[nx], bit)
			}
		default:
			return maskerr.NewInputFormatError(modName, fmt.Sprintf("port %q: InOut ports are not supported", portName))
		}
	}
	return nil
}

// allocateCells is pass A's cell half: resolve each cell's kind,
// record its output driver(s), and stage its input bits for pass B.
func allocateCells(c *circuit.Circuit, mod *netlist.Module, lib *celllib.Library, signalDriver map[netlist.SignalId]driverRef, nodeInBits map[circuit.NodeIndex][]netlist.BitVal) error {
	names := make([]string, 0, len(mod.Cells))
	for n := range mod.Cells {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, cellName := range names {
		cell := mod.Cells[cellName]
		kind := lib.NodeKindForCell(cell.Type)

		name := cellName
		if bool(cell.HideName) {
			name = ""
		}
		nx := c.AddNode(circuit.Node{Gate: kind, Name: name})

		for outIdx, out := range cell.OutputPorts() {
			for _, bit := range out.Bits {
				if !bit.IsSignal {
					continue
				}
				if _, dup := signalDriver[bit.Signal]; dup {
					maskerr.Panic(nx.String(), kind.String(), fmt.Sprintf("duplicate driver for signal %d", bit.Signal))
				}
				signalDriver[bit.Signal] = driverRef{node: nx, port: outIdx}
			}
		}

		inBits, ibErr := cell.InputBits()
		if ibErr != nil {
			return maskerr.NewInputFormatError(cellName, ibErr.Error())
		}

		var inputNames []string
		if order, ok := lib.InputPortOrder(cell.Type); ok {
			inputNames = order
			c.SetInputPortOrder(kind, order)
		} else {
			inputNames = cell.InputPortNamesSorted()
		}

		for _, portName := range inputNames {
			bit, ok := inBits[portName]
			if !ok {
				continue
			}
			nodeInBits[nx] = append(nodeInBits[nx], bit)
		}
	}
	return nil
}

// wireEdges is pass B: connect every staged input bit to its driver,
// in port-index order.
func wireEdges(c *circuit.Circuit, nodeInBits map[circuit.NodeIndex][]netlist.BitVal, signalDriver map[netlist.SignalId]driverRef) error {
	dsts := make([]circuit.NodeIndex, 0, len(nodeInBits))
	for nx := range nodeInBits {
		dsts = append(dsts, nx)
	}
	sort.Slice(dsts, func(i, j int) bool { return dsts[i] < dsts[j] })

	for _, nx := range dsts {
		for dstPort, bit := range nodeInBits[nx] {
			if bit.IsSignal {
				driver, ok := signalDriver[bit.Signal]
				if !ok {
					return maskerr.NewUnresolvedSignal(fmt.Sprintf("%d", bit.Signal))
				}
				c.Connect(driver.node, driver.port, nx, dstPort)
				continue
			}
			v, concrete := bit.Const.ToBool()
			if !concrete {
				return maskerr.NewInputFormatError("", fmt.Sprintf("bit bound to unsupported const token %q", bit.Const))
			}
			c.Connect(c.ConstNode(v), 0, nx, dstPort)
		}
	}
	return nil
}
