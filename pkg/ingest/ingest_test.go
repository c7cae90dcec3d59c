package ingest

import (
	"testing"

	"github.com/gomasq/gomasq/pkg/celllib"
	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/gomasq/gomasq/pkg/netlist"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) *netlist.Document {
	t.Helper()
	doc, err := netlist.Decode([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestBuildSecureBufferChain(t *testing.T) {
	doc := mustDecode(t, `{
		"modules": {
			"top": {
				"attributes": {"top": 1},
				"ports": {
					"a": {"direction": "input", "bits": [2]},
					"y": {"direction": "output", "bits": [3]}
				},
				"cells": {
					"g1": {
						"type": "BUF",
						"port_directions": {"A": "input", "Y": "output"},
						"connections": {"A": [2], "Y": [3]}
					}
				},
				"netnames": {
					"a": {"bits": [2], "attributes": {"MASQ": "secure"}},
					"y": {"bits": [3], "attributes": {"MASQ": "secure"}}
				}
			}
		}
	}`)

	c, err := Build(doc, celllib.New(), "", nil)
	require.NoError(t, err)

	in := c.Inputs()
	require.Len(t, in, 1)
	require.True(t, c.NodeAt(in[0]).Secure)

	out := c.Outputs()
	require.Len(t, out, 1)
	incoming := c.Incoming(out[0])
	require.Len(t, incoming, 1)
	bufIncoming := c.Incoming(incoming[0].Src)
	require.Len(t, bufIncoming, 1)
	require.Equal(t, in[0], bufIncoming[0].Src)
}

func TestBuildConstantDrivenOutput(t *testing.T) {
	doc := mustDecode(t, `{
		"modules": {
			"top": {
				"attributes": {"top": 1},
				"ports": {
					"y": {"direction": "output", "bits": ["1"]}
				},
				"netnames": {
					"y": {"bits": ["1"]}
				}
			}
		}
	}`)

	c, err := Build(doc, celllib.New(), "", nil)
	require.NoError(t, err)
	out := c.Outputs()
	require.Len(t, out, 1)

	incoming := c.Incoming(out[0])
	require.Len(t, incoming, 1)
	require.Equal(t, c.ConstNode(true), incoming[0].Src)
}

func TestBuildRejectsConstantBoundInput(t *testing.T) {
	doc := mustDecode(t, `{
		"modules": {
			"top": {
				"attributes": {"top": 1},
				"ports": {
					"a": {"direction": "input", "bits": ["0"]}
				},
				"netnames": {
					"a": {"bits": ["0"]}
				}
			}
		}
	}`)
	_, err := Build(doc, celllib.New(), "", nil)
	require.Error(t, err)
}

func TestBuildRejectsInOut(t *testing.T) {
	doc := mustDecode(t, `{
		"modules": {
			"top": {
				"attributes": {"top": 1},
				"ports": {
					"a": {"direction": "inout", "bits": [1]}
				},
				"netnames": {
					"a": {"bits": [1]}
				}
			}
		}
	}`)
	_, err := Build(doc, celllib.New(), "", nil)
	require.Error(t, err)
}

func TestBuildMuxPortOrdering(t *testing.T) {
	doc := mustDecode(t, `{
		"modules": {
			"top": {
				"attributes": {"top": 1},
				"ports": {
					"s": {"direction": "input", "bits": [1]},
					"a": {"direction": "input", "bits": [2]},
					"b": {"direction": "input", "bits": [3]},
					"y": {"direction": "output", "bits": [4]}
				},
				"cells": {
					"m1": {
						"type": "MUX",
						"port_directions": {"S": "input", "A": "input", "B": "input", "Y": "output"},
						"connections": {"S": [1], "A": [2], "B": [3], "Y": [4]}
					}
				},
				"netnames": {
					"s": {"bits": [1]},
					"a": {"bits": [2]},
					"b": {"bits": [3]},
					"y": {"bits": [4]}
				}
			}
		}
	}`)
	c, err := Build(doc, celllib.New(), "", nil)
	require.NoError(t, err)

	var mux circuit.NodeIndex
	found := false
	for _, nx := range c.AllNodes() {
		n := c.NodeAt(nx)
		if n.Gate.Kind == gate.KindGate && n.Gate.Family == gate.MUX {
			mux = nx
			found = true
		}
	}
	require.True(t, found)
	incoming := c.Incoming(mux)
	require.Len(t, incoming, 3)
	// Port 0 must be S (select), matching the MUX->[S,A,B] cell-library order.
	require.Equal(t, 0, incoming[0].DstPort)
	require.Equal(t, "s", c.NodeAt(incoming[0].Src).Name)
}
