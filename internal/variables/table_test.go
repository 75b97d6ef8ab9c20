package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/valuestore"
)

func testGraph() *rendergraph.RenderGraph {
	return &rendergraph.RenderGraph{
		Enums: []*rendergraph.Enum{
			{OriginalName: "BlendMode", Items: []string{"Additive", "Alpha", "Opaque"}},
		},
		Variables: []*rendergraph.Variable{
			{Name: "radius", Type: datatype.Int, Default: "3", EnumIndex: -1},
			{Name: "blendMode", Type: datatype.Int, Default: "2", EnumIndex: 0},
			{Name: "tint", Type: datatype.Float3, Default: "0.5, 0.25, 1", EnumIndex: -1},
			{Name: "enabled", Type: datatype.Bool, Default: "true", EnumIndex: -1},
		},
	}
}

func TestBuild_DeclarationOrder(t *testing.T) {
	tbl := Build(testGraph(), valuestore.New())

	require.Equal(t, 4, tbl.Count())
	assert.Equal(t, 0, tbl.Index("radius"))
	assert.Equal(t, 3, tbl.Index("enabled"))
	assert.Equal(t, -1, tbl.Index("missing"))

	e, err := tbl.At(1)
	require.NoError(t, err)
	assert.Equal(t, "blendMode", e.Variable.Name)
	require.NotNil(t, e.Enum)
	assert.Equal(t, "BlendMode", e.Enum.OriginalName)

	_, err = tbl.At(4)
	assert.ErrorIs(t, err, ErrUnknownVariable)
	_, err = tbl.ByName("nope")
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func TestDefaultsRoundTrip(t *testing.T) {
	g := testGraph()
	tbl := Build(g, valuestore.New())

	want := []string{"3", "2", "0.5,0.25,1", "true"}
	for i, w := range want {
		got, err := tbl.ValueString(i)
		require.NoError(t, err)
		assert.Equal(t, w, got, g.Variables[i].Name)
	}
}

func TestSetFromString(t *testing.T) {
	tests := []struct {
		name  string
		index int
		text  string
		want  string
	}{
		{"plain int", 0, "17", "17"},
		{"malformed int degrades", 0, "seventeen", "0"},
		{"enum label", 1, "alpha", "1"},
		{"enum prefixed label", 1, "BlendMode::Opaque", "2"},
		{"enum numeric fallback", 1, "0", "0"},
		{"enum unknown label degrades", 1, "Multiply", "0"},
		{"vector partial", 2, "2", "2,0,0"},
		{"bool", 3, "false", "false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl := Build(testGraph(), valuestore.New())
			require.NoError(t, tbl.SetFromString(tc.index, tc.text))
			got, err := tbl.ValueString(tc.index)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSetToDefault(t *testing.T) {
	tbl := Build(testGraph(), valuestore.New())
	require.NoError(t, tbl.SetFromString(2, "9,9,9"))
	require.NoError(t, tbl.SetToDefault(2))

	got, err := tbl.ValueString(2)
	require.NoError(t, err)
	assert.Equal(t, "0.5,0.25,1", got)
	assert.ErrorIs(t, tbl.SetToDefault(-1), ErrUnknownVariable)
}

func TestRawAndUint32Components(t *testing.T) {
	tbl := Build(testGraph(), valuestore.New())

	raw, err := tbl.Raw(0)
	require.NoError(t, err)
	raw[0] = 0xFF
	got, _ := tbl.ValueString(0)
	assert.Equal(t, "3", got, "Raw must return a copy")

	require.NoError(t, tbl.SetRaw(0, datatype.Parse("42", datatype.Int)))
	got, _ = tbl.ValueString(0)
	assert.Equal(t, "42", got)
	assert.Error(t, tbl.SetRaw(0, []byte{1}))

	comps, err := tbl.Uint32Components(2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 1}, comps)
}

func TestLabelToIndex(t *testing.T) {
	e := &rendergraph.Enum{OriginalName: "BlendMode", Items: []string{"Additive", "Alpha", "Opaque"}}

	for i, label := range e.Items {
		assert.Equal(t, i, LabelToIndex(e, label))
		assert.Equal(t, i, LabelToIndex(e, "blendmode::"+label))
		assert.Equal(t, i, LabelToIndex(e, "BLENDMODE::"+label))
	}
	assert.Equal(t, -1, LabelToIndex(e, "Subtract"))
	assert.Equal(t, -1, LabelToIndex(e, "Other::Alpha"))
	assert.Equal(t, -1, LabelToIndex(nil, "Alpha"))
}
