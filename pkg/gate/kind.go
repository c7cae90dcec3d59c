// Package gate defines the closed set of node kinds that make up a
// circuit: primary IO roles, registers, gates, masking gadgets,
// blackboxes, and constants.
package gate

import (
	"fmt"
	"strconv"
	"strings"
)

// Family identifies a gate's boolean function, independent of its
// output inversion.
type Family int

const (
	BUF Family = iota
	XOR
	AND
	OR
	MUX
)

func (f Family) String() string {
	switch f {
	case BUF:
		return "BUF"
	case XOR:
		return "XOR"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case MUX:
		return "MUX"
	default:
		return "UNKNOWN"
	}
}

// invertedAlias is the name the original cell-library vocabulary uses
// for a family when its output is inverted, e.g. AND(inverted) prints
// as NAND. MUX has no inverted alias: a select-driven mux does not
// commonly get a dedicated vendor name, so it falls back to "N"+name.
func (f Family) invertedAlias() string {
	switch f {
	case BUF:
		return "NOT"
	case XOR:
		return "XNOR"
	case AND:
		return "NAND"
	case OR:
		return "NOR"
	default:
		return "N" + f.String()
	}
}

// Kind is the closed tagged sum of node kinds a circuit may contain.
// The zero Kind is KindInput.
type Kind int

const (
	KindInput Kind = iota
	KindClock
	KindReset
	KindOutput
	KindRegister
	KindGate
	KindGadget
	KindBlackbox
	KindConstant
)

// Blackbox records the port names of an unresolved cell. Blackboxes are
// pass-through: their bodies are never inspected and they are never
// masked.
type Blackbox struct {
	Name    string
	Inputs  []string
	Outputs []string
}

// Node describes one node's immutable kind-specific payload. Family/
// Inverted/NumShares apply to KindGate and KindGadget; Value applies to
// KindConstant; Blackbox applies to KindBlackbox.
type Node struct {
	Kind      Kind
	Family    Family
	Inverted  bool
	NumShares int // only meaningful for KindGadget; num_shares = order+1
	Value     bool
	Blackbox  Blackbox
}

// HasInput reports whether nodes of this kind accept incoming edges.
func (n Node) HasInput() bool {
	switch n.Kind {
	case KindGate, KindGadget, KindRegister, KindOutput, KindBlackbox:
		return true
	default:
		return false
	}
}

// HasOutput reports whether nodes of this kind drive outgoing edges.
func (n Node) HasOutput() bool {
	switch n.Kind {
	case KindInput, KindClock, KindReset, KindGate, KindGadget, KindRegister, KindBlackbox, KindConstant:
		return true
	default:
		return false
	}
}

// String renders the node kind the way the circuit's original cell
// library would: inverted gates print their vendor alias (NAND, NOR,
// XNOR, NOT) rather than "AND(inverted)".
func (n Node) String() string {
	switch n.Kind {
	case KindInput:
		return "IN"
	case KindClock:
		return "CLOCK"
	case KindReset:
		return "RESET"
	case KindOutput:
		return "OUT"
	case KindRegister:
		return "FF"
	case KindConstant:
		if n.Value {
			return "1"
		}
		return "0"
	case KindBlackbox:
		return n.Blackbox.Name
	case KindGate:
		if n.Inverted {
			return n.Family.invertedAlias()
		}
		return n.Family.String()
	case KindGadget:
		base := Node{Kind: KindGate, Family: n.Family, Inverted: n.Inverted}
		return base.String() + " Gadget"
	default:
		return "UNKNOWN"
	}
}

// Input constructs a plain (non-secure) primary-input node.
func Input() Node { return Node{Kind: KindInput} }

// Clock constructs a clock primary-input node.
func Clock() Node { return Node{Kind: KindClock} }

// Reset constructs a reset primary-input node.
func Reset() Node { return Node{Kind: KindReset} }

// Output constructs a primary-output sink node.
func Output() Node { return Node{Kind: KindOutput} }

// Register constructs a clocked state-element node.
func Register() Node { return Node{Kind: KindRegister} }

// Gate constructs a gate node of the given family and inversion.
func Gate(f Family, inverted bool) Node { return Node{Kind: KindGate, Family: f, Inverted: inverted} }

// GadgetOf constructs a multi-share gadget node replacing a gate of the
// given base family/inversion.
func GadgetOf(f Family, inverted bool, numShares int) Node {
	return Node{Kind: KindGadget, Family: f, Inverted: inverted, NumShares: numShares}
}

// Const constructs a constant-value source node.
func Const(v bool) Node { return Node{Kind: KindConstant, Value: v} }

// BlackboxNode constructs an unresolved-cell node carrying the recorded
// port names.
func BlackboxNode(name string, inputs, outputs []string) Node {
	return Node{Kind: KindBlackbox, Blackbox: Blackbox{Name: name, Inputs: inputs, Outputs: outputs}}
}

// invertedAliases maps an inverted-output cell name to the family it
// expands to with inverted=true. Kept alongside ResolveName so the
// alias list lives in exactly one place.
var invertedAliases = map[string]Family{
	"NOT":  BUF,
	"XNOR": XOR,
	"NAND": AND,
	"NOR":  OR,
}

var plainNames = map[string]Family{
	"BUF": BUF,
	"XOR": XOR,
	"AND": AND,
	"OR":  OR,
	"MUX": MUX,
}

// ResolveName parses a short cell name into a Node, case-insensitively.
// DFF maps to Register, decimal literals map to Constant, inverted
// aliases (NOT/XNOR/NAND/NOR) normalize to (family, inverted=true), and
// anything unrecognized becomes a Blackbox carrying the original name.
func ResolveName(name string) Node {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "DFF" {
		return Register()
	}
	if f, ok := plainNames[upper]; ok {
		return Gate(f, false)
	}
	if f, ok := invertedAliases[upper]; ok {
		return Gate(f, true)
	}
	if v, err := strconv.ParseUint(upper, 10, 64); err == nil {
		return Const(v != 0)
	}
	return BlackboxNode(name, nil, nil)
}

// ShareOffset computes the linear port-block offset for share s within
// a node replicated/expanded to numPorts ports per share:
// s*numPorts + originalPort. Kept as the single place this arithmetic
// is performed, per spec's port-offset layout invariant.
func ShareOffset(share, numPorts, originalPort int) int {
	return share*numPorts + originalPort
}

// DebugString renders a Node for diagnostics, independent of its
// normal DOT/display string.
func (n Node) DebugString() string {
	return fmt.Sprintf("Node{kind=%v %s}", n.Kind, n.String())
}
