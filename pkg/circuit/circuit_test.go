package circuit

import (
	"testing"

	"github.com/gomasq/gomasq/pkg/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHasTwoConstants(t *testing.T) {
	c := New("top")
	require.Equal(t, NodeIndex(0), c.ConstNode(false))
	require.Equal(t, NodeIndex(1), c.ConstNode(true))
	assert.True(t, c.Exists(0))
	assert.True(t, c.Exists(1))
}

func TestAddNodeUpdatesRoleSets(t *testing.T) {
	c := New("top")
	in := c.AddNode(Node{Gate: gate.Input(), Name: "a"})
	assert.True(t, c.IsInput(in))
	assert.False(t, c.IsOutput(in))

	out := c.AddNode(Node{Gate: gate.Output(), Name: "y"})
	assert.True(t, c.IsOutput(out))
}

func TestDuplicateConstantPanics(t *testing.T) {
	c := New("top")
	assert.Panics(t, func() {
		c.AddNode(Node{Gate: gate.Const(false)})
	})
}

func TestRemoveNodeRefusesConstant(t *testing.T) {
	c := New("top")
	assert.False(t, c.RemoveNode(c.ConstNode(false)))
	assert.True(t, c.Exists(c.ConstNode(false)))
}

func TestRemoveNodeClearsEdgesAndNeverReusesIndex(t *testing.T) {
	c := New("top")
	a := c.AddNode(Node{Gate: gate.Input()})
	b := c.AddNode(Node{Gate: gate.Gate(gate.BUF, false)})
	c.Connect(a, 0, b, 0)

	require.True(t, c.RemoveNode(a))
	assert.False(t, c.Exists(a))
	assert.Empty(t, c.Incoming(b))

	next := c.AddNode(Node{Gate: gate.Input()})
	assert.NotEqual(t, a, next)
	assert.Greater(t, int(next), int(a))
}

func TestIncomingOrderedByDstPortThenSource(t *testing.T) {
	c := New("top")
	s1 := c.AddNode(Node{Gate: gate.Input()})
	s2 := c.AddNode(Node{Gate: gate.Input()})
	s3 := c.AddNode(Node{Gate: gate.Input()})
	dst := c.AddNode(Node{Gate: gate.Gate(gate.AND, false)})

	c.Connect(s3, 0, dst, 1)
	c.Connect(s1, 0, dst, 0)
	c.Connect(s2, 0, dst, 1)

	got := c.Incoming(dst)
	require.Len(t, got, 3)
	assert.Equal(t, s1, got[0].Src)
	assert.Equal(t, 0, got[0].DstPort)
	assert.Equal(t, 1, got[1].DstPort)
	assert.Equal(t, 1, got[2].DstPort)
	// tie-break by source index ascending among dst_port==1
	assert.True(t, got[1].Src < got[2].Src)
}

func TestSecureFilters(t *testing.T) {
	c := New("top")
	a := c.AddNode(Node{Gate: gate.Input(), Secure: true})
	c.AddNode(Node{Gate: gate.Input(), Secure: false})
	o := c.AddNode(Node{Gate: gate.Output(), Secure: true})

	assert.Equal(t, []NodeIndex{a}, c.SecureInputs())
	assert.Equal(t, []NodeIndex{o}, c.SecureOutputs())
}

func TestConnectAllowsMultipleEdgesIntoSamePort(t *testing.T) {
	c := New("top")
	s1 := c.AddNode(Node{Gate: gate.Input()})
	s2 := c.AddNode(Node{Gate: gate.Input()})
	dst := c.AddNode(Node{Gate: gate.Output()})

	c.Connect(s1, 0, dst, 0)
	c.Connect(s2, 0, dst, 0)
	assert.Len(t, c.Incoming(dst), 2)
}

func TestInputPortOrderPersistence(t *testing.T) {
	c := New("top")
	mux := gate.Gate(gate.MUX, false)
	c.SetInputPortOrder(mux, []string{"S", "A", "B"})
	order, ok := c.InputPortOrder(mux)
	require.True(t, ok)
	assert.Equal(t, []string{"S", "A", "B"}, order)
}
