package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBlockTypeNames(t *testing.T) {
	for _, bt := range BlockTypes() {
		parsed, err := ParseBlockType(bt.String())
		require.NoError(t, err)
		assert.Equal(t, bt, parsed)
	}
	bt, err := ParseBlockType(" Grass ")
	require.NoError(t, err)
	assert.Equal(t, Grass, bt)

	_, err = ParseBlockType("lava")
	assert.Error(t, err)
	assert.Equal(t, "blocktype(200)", BlockType(200).String())
}

func TestBlockTypeEncoding(t *testing.T) {
	type doc struct {
		T BlockType `yaml:"t" json:"t"`
	}
	out, err := yaml.Marshal(doc{T: Water})
	require.NoError(t, err)
	assert.Equal(t, "t: water\n", string(out))

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("t: leaves\n"), &d))
	assert.Equal(t, Leaves, d.T)
	assert.Error(t, yaml.Unmarshal([]byte("t: lava\n"), &d))

	out, err = json.Marshal(doc{T: Sand})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"sand"}`, string(out))
}

func TestColors(t *testing.T) {
	c := RGBA(1, 2, 3, 4)
	r, g, b, a := UnpackRGBA(c)
	assert.Equal(t, []uint8{1, 2, 3, 4}, []uint8{r, g, b, a})

	parsed, err := ParseColor("#010203")
	require.NoError(t, err)
	assert.Equal(t, RGBA(1, 2, 3, 255), parsed)

	parsed, err = ParseColor("ff000080")
	require.NoError(t, err)
	assert.Equal(t, RGBA(255, 0, 0, 128), parsed)

	_, err = ParseColor("#12")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)

	assert.Equal(t, ColorForBlockType(Debug), ColorForBlockType(BlockType(99)))
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette(map[string]string{"stone": "#000000"})
	require.NoError(t, err)
	assert.Equal(t, RGBA(0, 0, 0, 255), p.Color(Stone))
	assert.Equal(t, ColorForBlockType(Dirt), p.Color(Dirt))

	_, err = ParsePalette(map[string]string{"lava": "#000000"})
	assert.Error(t, err)
	_, err = ParsePalette(map[string]string{"stone": "black"})
	assert.Error(t, err)
}
