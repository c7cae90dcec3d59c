package celllib

import (
	"testing"

	"github.com/gomasq/gomasq/pkg/gate"
)

func TestDefaultPortOrders(t *testing.T) {
	l := New()
	order, ok := l.InputPortOrder("MUX")
	if !ok || len(order) != 3 || order[0] != "S" {
		t.Fatalf("MUX order = %v, %v", order, ok)
	}
	order, ok = l.InputPortOrder("DFF")
	if !ok || len(order) != 2 || order[0] != "C" {
		t.Fatalf("DFF order = %v, %v", order, ok)
	}
}

func TestVendorMapping(t *testing.T) {
	l := New()
	l.AddVendorMapping("sky130_fd_sc_hd__and2_1", "AND")
	n := l.NodeKindForCell("sky130_fd_sc_hd__and2_1")
	if n.Kind != gate.KindGate || n.Family != gate.AND {
		t.Fatalf("got %+v", n)
	}
}

func TestUnknownCellFallsBackToBlackbox(t *testing.T) {
	l := New()
	n := l.NodeKindForCell("some_weird_cell")
	if n.Kind != gate.KindBlackbox {
		t.Fatalf("expected blackbox, got %+v", n)
	}
}
