// Package netlist models the structured netlist document the masking
// pipeline ingests: a Yosys-style JSON export of modules, ports,
// cells, and netnames (see original_source/src/netlist/json_netlist.rs,
// the Rust implementation this model is translated from). Concrete
// parsing of other HDL/netlist dialects is explicitly out of this
// package's scope (spec.md §1); this is only the contact surface (§6).
package netlist

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SignalId names a one-bit wire in the netlist document.
type SignalId int

// ConstBit is one of the four const-bit tokens a netlist bit position
// may carry instead of a signal id.
type ConstBit string

const (
	Const0 ConstBit = "0"
	Const1 ConstBit = "1"
	ConstX ConstBit = "x"
	ConstZ ConstBit = "z"
)

// ToBool reports the boolean value of a const-bit, if it has one
// ("x"/"z" do not).
func (b ConstBit) ToBool() (bool, bool) {
	switch b {
	case Const0:
		return false, true
	case Const1:
		return true, true
	default:
		return false, false
	}
}

// BitVal is either a signal id or a constant-bit token — the untagged
// union json_netlist.rs calls BitVal.
type BitVal struct {
	IsSignal bool
	Signal   SignalId
	Const    ConstBit
}

// UnmarshalJSON decodes a bit position the way Yosys emits it: a JSON
// number is a signal id, a JSON string is one of "0"/"1"/"x"/"z".
func (b *BitVal) UnmarshalJSON(data []byte) error {
	var asNum int
	if err := json.Unmarshal(data, &asNum); err == nil {
		*b = BitVal{IsSignal: true, Signal: SignalId(asNum)}
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err == nil {
		*b = BitVal{IsSignal: false, Const: ConstBit(asStr)}
		return nil
	}
	return fmt.Errorf("bitval: neither signal id nor const-bit token: %s", string(data))
}

// MarshalJSON round-trips a BitVal in the same untagged shape.
func (b BitVal) MarshalJSON() ([]byte, error) {
	if b.IsSignal {
		return json.Marshal(int(b.Signal))
	}
	return json.Marshal(string(b.Const))
}

// AttributeVal is either a number or a string attribute value.
type AttributeVal struct {
	IsNumber bool
	Number   int
	Str      string
}

func (a *AttributeVal) UnmarshalJSON(data []byte) error {
	var asNum int
	if err := json.Unmarshal(data, &asNum); err == nil {
		*a = AttributeVal{IsNumber: true, Number: asNum}
		return nil
	}
	var asStr string
	if err := json.Unmarshal(data, &asStr); err == nil {
		*a = AttributeVal{Str: asStr}
		return nil
	}
	return fmt.Errorf("attributeval: neither number nor string: %s", string(data))
}

func (a AttributeVal) MarshalJSON() ([]byte, error) {
	if a.IsNumber {
		return json.Marshal(a.Number)
	}
	return json.Marshal(a.Str)
}

// ToBool mirrors Yosys's truthiness rule for attribute values: a
// nonzero number, or a non-empty string parsed as a binary number, is
// true.
func (a AttributeVal) ToBool() bool {
	if a.IsNumber {
		return a.Number != 0
	}
	if a.Str == "" {
		return false
	}
	var n int64
	_, err := fmt.Sscanf(a.Str, "%b", &n)
	if err != nil {
		// Non-binary strings (e.g. "secure") are truthy as attribute
		// presence; callers needing the literal string use AsString.
		return true
	}
	return n != 0
}

// AsString returns the attribute as a string for comparisons like MASQ
// attribute matching, regardless of whether it decoded as a JSON string
// or number. The string is returned with its case unchanged.
func (a AttributeVal) AsString() string {
	if a.IsNumber {
		return fmt.Sprintf("%d", a.Number)
	}
	return a.Str
}

// PortDirection is the direction of a module port or cell connection.
type PortDirection string

const (
	DirInput  PortDirection = "input"
	DirOutput PortDirection = "output"
	DirInOut  PortDirection = "inout"
)

// Port is a module's interface to the outside world.
type Port struct {
	Direction PortDirection `json:"direction"`
	Bits      []BitVal      `json:"bits"`
	Offset    int           `json:"offset,omitempty"`
}

// Cell is one gate/register instance inside a module.
type Cell struct {
	HideName       boolFromInt              `json:"hide_name,omitempty"`
	Type           string                   `json:"type"`
	Parameters     map[string]AttributeVal  `json:"parameters,omitempty"`
	Attributes     map[string]AttributeVal  `json:"attributes,omitempty"`
	PortDirections map[string]PortDirection `json:"port_directions,omitempty"`
	Connections    map[string][]BitVal      `json:"connections"`
}

// boolFromInt decodes Yosys's 0/1-as-bool convention for hide_name.
type boolFromInt bool

func (b *boolFromInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = boolFromInt(v)
		return nil
	}
	return fmt.Errorf("hide_name: not an int or bool: %s", string(data))
}

func (b boolFromInt) MarshalJSON() ([]byte, error) {
	if b {
		return json.Marshal(1)
	}
	return json.Marshal(0)
}

// InputBits returns the single-bit input connections of the cell,
// keyed by port name. A multi-bit input connection is an
// InputFormatError-grade condition the caller should surface.
func (c *Cell) InputBits() (map[string]BitVal, error) {
	out := make(map[string]BitVal)
	for name, dir := range c.PortDirections {
		if dir != DirInput {
			continue
		}
		bits, ok := c.Connections[name]
		if !ok {
			continue
		}
		if len(bits) != 1 {
			return nil, fmt.Errorf("cell input port %q has %d bits, want 1", name, len(bits))
		}
		out[name] = bits[0]
	}
	return out, nil
}

// namedBits pairs a connection name with its bit vector, used for
// deterministic (lexicographic) iteration.
type namedBits struct {
	Name string
	Bits []BitVal
}

// OutputPorts returns the cell's output-direction connections, sorted
// lexicographically by port name — the fallback ordering §4.4 calls
// for when the cell library provides none.
func (c *Cell) OutputPorts() []namedBits {
	var out []namedBits
	for name, dir := range c.PortDirections {
		if dir != DirOutput {
			continue
		}
		if bits, ok := c.Connections[name]; ok {
			out = append(out, namedBits{Name: name, Bits: bits})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InputPortNamesSorted returns the cell's input port names in
// lexicographic order — the fallback ordering when no cell-library
// order is known.
func (c *Cell) InputPortNamesSorted() []string {
	var names []string
	for name, dir := range c.PortDirections {
		if dir == DirInput {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Memory entries are parsed but never consumed by the masking
// pipeline.
type Memory struct {
	Width  int `json:"width"`
	Size   int `json:"size"`
	Offset int `json:"start_offset,omitempty"`
}

// Netname names a bit vector inside a module and carries its
// attributes (in particular MASQ).
type Netname struct {
	Bits       []BitVal                `json:"bits"`
	Attributes map[string]AttributeVal `json:"attributes,omitempty"`
}

// Module is one entry in the document's module map.
type Module struct {
	Attributes             map[string]AttributeVal `json:"attributes,omitempty"`
	ParameterDefaultValues map[string]AttributeVal `json:"parameter_default_values,omitempty"`
	Ports                  map[string]Port         `json:"ports,omitempty"`
	Cells                  map[string]Cell         `json:"cells,omitempty"`
	Memories               map[string]Memory       `json:"memories,omitempty"`
	Netnames               map[string]Netname      `json:"netnames,omitempty"`
}

// IsTop reports whether the module's "top" attribute is truthy.
func (m Module) IsTop() bool {
	a, ok := m.Attributes["top"]
	return ok && a.ToBool()
}

// IsBlackbox reports whether the module's "blackbox" attribute is
// truthy.
func (m Module) IsBlackbox() bool {
	a, ok := m.Attributes["blackbox"]
	return ok && a.ToBool()
}

// Inputs returns the module's input port names.
func (m Module) Inputs() []string { return m.filterPorts(DirInput) }

// Outputs returns the module's output port names.
func (m Module) Outputs() []string { return m.filterPorts(DirOutput) }

func (m Module) filterPorts(dir PortDirection) []string {
	var out []string
	for name, p := range m.Ports {
		if p.Direction == dir {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Document is an entire netlist document.
type Document struct {
	Creator string            `json:"creator,omitempty"`
	Modules map[string]Module `json:"modules"`
}

// Decode parses a netlist document from JSON bytes.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode serializes a netlist document to JSON bytes.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// FindTop returns the module flagged top, preferring it over any
// blackbox fallback. If name is non-empty it is used directly instead
// of searching.
func (d *Document) FindTop(name string) (string, *Module, bool) {
	if name != "" {
		if m, ok := d.Modules[name]; ok {
			return name, &m, true
		}
		return "", nil, false
	}
	// Deterministic search order: current behavior in the original
	// implementation processes "the first discovered" top module,
	// which was non-deterministic without a stable module ordering
	// (spec.md §9 open question). We resolve that here by scanning
	// module names in sorted order.
	var names []string
	for n := range d.Modules {
		names = append(names, n)
	}
	sort.Strings(names)
	var firstBlackbox string
	haveBlackbox := false
	for _, n := range names {
		m := d.Modules[n]
		if m.IsTop() {
			return n, &m, true
		}
		if !haveBlackbox && m.IsBlackbox() {
			firstBlackbox = n
			haveBlackbox = true
		}
	}
	if haveBlackbox {
		m := d.Modules[firstBlackbox]
		return firstBlackbox, &m, true
	}
	return "", nil, false
}
