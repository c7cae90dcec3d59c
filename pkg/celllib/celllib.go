// Package celllib resolves vendor cell-library names into canonical
// node kinds and port orderings. It is a pure value object: lookups
// fail soft (the importer turns a miss into a Blackbox node).
package celllib

import (
	"strings"

	"github.com/gomasq/gomasq/pkg/gate"
)

// Library maps vendor cell type names to canonical gate-package kinds
// and to the ordered input-port-name list a multi-input cell expects.
type Library struct {
	vendorToCanonical map[string]string
	inputPortOrder    map[string][]string
}

// New returns a Library pre-populated with the two port orderings the
// masking pass depends on (MUX select-first, DFF clock-before-data),
// matching the default of the reference cell library regardless of any
// vendor names configured on top.
func New() *Library {
	return &Library{
		vendorToCanonical: make(map[string]string),
		inputPortOrder: map[string][]string{
			"MUX": {"S", "A", "B"},
			"DFF": {"C", "D"},
		},
	}
}

// AddVendorMapping registers a vendor cell name that should resolve as
// if it were named canonicalName (e.g. "sky130_fd_sc_hd__mux2_1" ↦
// "MUX").
func (l *Library) AddVendorMapping(vendorName, canonicalName string) {
	l.vendorToCanonical[strings.ToUpper(vendorName)] = strings.ToUpper(canonicalName)
}

// AddInputPortOrder registers (or overrides) the ordered input port
// names for a canonical cell name.
func (l *Library) AddInputPortOrder(canonicalName string, order []string) {
	l.inputPortOrder[strings.ToUpper(canonicalName)] = order
}

// InputPortOrder returns the ordered input port names for a cell name,
// if known. A miss means the importer should fall back to lexicographic
// port-name ordering.
func (l *Library) InputPortOrder(cellName string) ([]string, bool) {
	order, ok := l.inputPortOrder[strings.ToUpper(cellName)]
	return order, ok
}

// NodeKindForCell resolves a vendor cell name to a canonical node,
// consulting the vendor→canonical map first and falling back to the
// gate-name resolver on either the mapped name or the original name.
func (l *Library) NodeKindForCell(cellName string) gate.Node {
	canonical, ok := l.vendorToCanonical[strings.ToUpper(cellName)]
	if !ok {
		canonical = cellName
	}
	return gate.ResolveName(canonical)
}
