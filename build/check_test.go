package build

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/plugin"
)

type pluginMap map[string]plugin.Plugin

func (m pluginMap) Load(_ context.Context, input string) (plugin.Plugin, error) {
	if p, ok := m[input]; ok {
		return p, nil
	}
	return nil, errors.Newf("unknown plugin %s", input)
}

func checkFixture(t *testing.T) (*dts.Emitter, afero.Fs, []dts.BuildTarget) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/src/index.d.ts", []byte(`export * from "./document/public.js";`+"\n"), 0o644))

	plugins := pluginMap{
		"src/plugins/babel.json": plugin.New(plugin.Manifest{
			Capabilities: plugin.CapabilitySet{Parsers: plugin.NewGroup("babel")},
		}),
	}
	targets := []dts.BuildTarget{
		{Input: "src/index.d.ts", Output: dts.Output{File: "index.d.ts"}},
		{Input: "src/plugins/babel.json", Output: dts.Output{File: "plugins/babel.d.ts", IsPlugin: true}},
	}
	return dts.NewEmitter(fs, "/repo", "/repo/dist", plugins), fs, targets
}

func TestCheck_UpToDate(t *testing.T) {
	em, fs, targets := checkFixture(t)
	_, err := NewRunner(em, 2).Run(context.Background(), targets)
	require.NoError(t, err)

	result, err := Check(context.Background(), em, fs, targets, 2)
	require.NoError(t, err)
	assert.True(t, result.UpToDate)
	assert.Empty(t, result.Drifts)
}

func TestCheck_Drift(t *testing.T) {
	em, fs, targets := checkFixture(t)
	require.NoError(t, afero.WriteFile(fs, "/repo/dist/index.d.ts", []byte(`export * from "./document/public.js";`+"\n"), 0o644))

	result, err := Check(context.Background(), em, fs, targets, 1)
	require.NoError(t, err)
	assert.False(t, result.UpToDate)
	require.Len(t, result.Drifts, 2)

	assert.Equal(t, StatusDiffers, result.Drifts[0].Status)
	assert.Equal(t, "/repo/dist/index.d.ts", result.Drifts[0].Path)
	assert.Equal(t,
		`-export * from "./document/public.js";`+"\n"+`+export * from "./doc.js";`+"\n",
		result.Drifts[0].Diff)

	assert.Equal(t, StatusMissing, result.Drifts[1].Status)
	assert.Equal(t, "plugins/babel.d.ts", result.Drifts[1].Target.Output.File)

	// Check never writes
	exists, _ := afero.Exists(fs, "/repo/dist/plugins/babel.d.ts")
	assert.False(t, exists)
}

func TestCheck_RenderFailure(t *testing.T) {
	em, fs, _ := checkFixture(t)
	targets := []dts.BuildTarget{{Input: "src/missing.d.ts", Output: dts.Output{File: "missing.d.ts"}}}

	_, err := Check(context.Background(), em, fs, targets, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dts.ErrReadInput))
}

func TestLineDiff(t *testing.T) {
	assert.Equal(t, "-b\n+B\n", LineDiff("a\nb\nc\n", "a\nB\nc\n"))
	assert.Equal(t, "+d\n", LineDiff("a\n", "a\nd\n"))
	assert.Equal(t, "", LineDiff("a\nb\n", "a\nb\n"))
}
