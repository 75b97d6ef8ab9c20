package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/valuestore"
	"github.com/vk/rendergraph/internal/variables"
)

func newTable() *variables.Table {
	g := &rendergraph.RenderGraph{
		Enums: []*rendergraph.Enum{{OriginalName: "Mode", Items: []string{"Fast", "Quality"}}},
		Variables: []*rendergraph.Variable{
			{Name: "radius", Type: datatype.Int, Default: "3", EnumIndex: -1},
			{Name: "mode", Type: datatype.Int, Default: "0", EnumIndex: 0},
			{Name: "tint", Type: datatype.Float3, Default: "1, 1, 1", EnumIndex: -1},
			{Name: "enabled", Type: datatype.Bool, Default: "false", EnumIndex: -1},
		},
	}
	return variables.Build(g, valuestore.New())
}

func value(t *testing.T, tbl *variables.Table, name string) string {
	t.Helper()
	s, err := tbl.ValueString(tbl.Index(name))
	require.NoError(t, err)
	return s
}

const highQuality = `
name = "HighQuality"

[variables]
radius  = 8
mode    = "Quality"
tint    = [0.5, 0.25, 1]
enabled = true
`

func TestApply(t *testing.T) {
	p, err := Parse([]byte(highQuality))
	require.NoError(t, err)
	assert.Equal(t, "HighQuality", p.Name)

	tbl := newTable()
	require.NoError(t, p.Apply(tbl))

	assert.Equal(t, "8", value(t, tbl, "radius"))
	assert.Equal(t, "1", value(t, tbl, "mode"))
	assert.Equal(t, "0.5,0.25,1", value(t, tbl, "tint"))
	assert.Equal(t, "true", value(t, tbl, "enabled"))
}

func TestApply_ReportsProblems(t *testing.T) {
	p, err := Parse([]byte(`
[variables]
radius = 5
ghost  = 1
table  = { a = 1 }
`))
	require.NoError(t, err)

	tbl := newTable()
	err = p.Apply(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "- ghost: unknown variable")
	assert.Contains(t, err.Error(), "- table: unsupported value map[string]interface {}")
	assert.Equal(t, "5", value(t, tbl, "radius"), "known variables are still applied")
}

func TestCaptureRoundTrip(t *testing.T) {
	tbl := newTable()
	require.NoError(t, tbl.SetFromString(tbl.Index("radius"), "-7"))
	require.NoError(t, tbl.SetFromString(tbl.Index("tint"), "0.1, 2, 3"))
	require.NoError(t, tbl.SetFromString(tbl.Index("enabled"), "true"))

	p, err := Capture("Saved", tbl)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), p.Variables["radius"])
	assert.Equal(t, true, p.Variables["enabled"])

	path := filepath.Join(t.TempDir(), "saved.toml")
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Saved", loaded.Name)

	fresh := newTable()
	require.NoError(t, loaded.Apply(fresh))
	for _, name := range []string{"radius", "mode", "tint", "enabled"} {
		assert.Equal(t, value(t, tbl, name), value(t, fresh, name), name)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[variables\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse error in")
}
