package netlist

import (
	"testing"

	"github.com/gomasq/gomasq/pkg/circuit"
	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCircuitReemitsInputPortsOnly(t *testing.T) {
	c := circuit.New("top")
	c.AddNode(circuit.Node{Gate: gate.Input(), Name: "a", Secure: true})
	c.AddNode(circuit.Node{Gate: gate.Output(), Name: "y"})

	doc, err := FromCircuit(c)
	require.NoError(t, err)

	mod, ok := doc.Modules["top"]
	require.True(t, ok)
	assert.True(t, mod.IsTop())
	assert.Len(t, mod.Ports, 1)
	p, ok := mod.Ports["a"]
	require.True(t, ok)
	assert.Equal(t, DirInput, p.Direction)
}

func TestFromCircuitRejectsUnnamedInput(t *testing.T) {
	c := circuit.New("top")
	c.AddNode(circuit.Node{Gate: gate.Input()})
	_, err := FromCircuit(c)
	assert.Error(t, err)
}
