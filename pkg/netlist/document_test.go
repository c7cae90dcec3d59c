package netlist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitValUnmarshal(t *testing.T) {
	var b BitVal
	require.NoError(t, json.Unmarshal([]byte("42"), &b))
	assert.True(t, b.IsSignal)
	assert.Equal(t, SignalId(42), b.Signal)

	require.NoError(t, json.Unmarshal([]byte(`"1"`), &b))
	assert.False(t, b.IsSignal)
	assert.Equal(t, Const1, b.Const)
}

func TestAttributeValToBool(t *testing.T) {
	secure := AttributeVal{Str: "secure"}
	assert.True(t, secure.ToBool())
	assert.Equal(t, "secure", secure.AsString())

	zero := AttributeVal{IsNumber: true, Number: 0}
	assert.False(t, zero.ToBool())

	one := AttributeVal{IsNumber: true, Number: 1}
	assert.True(t, one.ToBool())
}

func TestModuleIsTopIsBlackbox(t *testing.T) {
	m := Module{Attributes: map[string]AttributeVal{
		"top": {IsNumber: true, Number: 1},
	}}
	assert.True(t, m.IsTop())
	assert.False(t, m.IsBlackbox())
}

func TestDecodeSimpleDocument(t *testing.T) {
	raw := `{
		"creator": "test",
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
					"y": {"bits": [3]}
				}
			}
		}
	}`
	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	name, mod, ok := doc.FindTop("")
	require.True(t, ok)
	assert.Equal(t, "top", name)
	assert.True(t, mod.IsTop())

	cell := mod.Cells["g1"]
	bits, err := cell.InputBits()
	require.NoError(t, err)
	assert.Equal(t, SignalId(2), bits["A"].Signal)

	outs := cell.OutputPorts()
	require.Len(t, outs, 1)
	assert.Equal(t, "Y", outs[0].Name)
}

func TestFindTopMissingName(t *testing.T) {
	doc := &Document{Modules: map[string]Module{}}
	_, _, ok := doc.FindTop("nope")
	assert.False(t, ok)
}
