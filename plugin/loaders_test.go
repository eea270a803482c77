package plugin

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

func writeMem(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestDescriptorLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/repo/plugins/babel.json", `{"parsers": {"babel": {}, "babel-ts": {}}, "printers": {"estree": {}}}`)
	writeMem(t, fs, "/repo/plugins/md.yaml", "default:\n  name: markdown\n  parsers:\n    markdown: {}\n    mdx: {}\n")

	l := NewDescriptorLoader(fs)
	assert.True(t, l.Supports("/repo/plugins/babel.json"))
	assert.True(t, l.Supports("/repo/plugins/md.YML"))
	assert.False(t, l.Supports("/repo/plugins/babel.js"))

	p, err := l.Load(context.Background(), "/repo/plugins/babel.json")
	require.NoError(t, err)
	assert.Equal(t, "babel", p.Manifest().Name)
	assert.Equal(t, []string{"babel", "babel-ts"}, p.Manifest().Capabilities.Parsers.Names())

	p, err = l.Load(context.Background(), "/repo/plugins/md.yaml")
	require.NoError(t, err)
	assert.Equal(t, "markdown", p.Manifest().Name)
	assert.Equal(t, []string{"markdown", "mdx"}, p.Manifest().Capabilities.Parsers.Names())
}

func TestDescriptorLoader_Missing(t *testing.T) {
	l := NewDescriptorLoader(afero.NewMemMapFs())
	_, err := l.Load(context.Background(), "/repo/plugins/nope.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestTOMLDescriptorLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMem(t, fs, "/repo/plugins/babel.toml", `
name = "babel"
core = "^3"

[parsers.babel]
[parsers.babel-flow]
astFormat = "estree"
[parsers.acorn]

[printers.estree]
`)

	l := NewTOMLDescriptorLoader(fs)
	assert.True(t, l.Supports("/repo/plugins/babel.toml"))
	assert.False(t, l.Supports("/repo/plugins/babel.json"))

	p, err := l.Load(context.Background(), "/repo/plugins/babel.toml")
	require.NoError(t, err)

	m := p.Manifest()
	assert.Equal(t, "babel", m.Name)
	assert.Equal(t, "^3", m.Core)
	assert.Equal(t, []string{"babel", "babel-flow", "acorn"}, m.Capabilities.Parsers.Names())
	assert.Equal(t, []string{"estree"}, m.Capabilities.Printers.Names())
}

func TestDecodeTOMLManifest(t *testing.T) {
	t.Run("default table", func(t *testing.T) {
		m, err := DecodeTOMLManifest([]byte("[default.parsers.zeta]\n[default.parsers.alpha]\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha"}, m.Capabilities.Parsers.Names())
	})

	t.Run("no parsers", func(t *testing.T) {
		m, err := DecodeTOMLManifest([]byte("name = \"empty\"\n"))
		require.NoError(t, err)
		assert.Nil(t, m.Capabilities.Parsers)
	})

	t.Run("parsers not a table", func(t *testing.T) {
		_, err := DecodeTOMLManifest([]byte("parsers = [\"babel\"]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `group "parsers" must be a table`)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := DecodeTOMLManifest([]byte("[parsers\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse TOML manifest")
	})
}

// wasmModule assembles a module exporting memory and dts_manifest, which
// returns the packed location of manifest placed at offset 8.
func wasmModule(manifest string) []byte {
	const offset = 8
	packed := int64(offset)<<32 | int64(len(manifest))

	section := func(id byte, content []byte) []byte {
		return append(append([]byte{id}, uleb128(uint64(len(content)))...), content...)
	}
	name := func(s string) []byte {
		return append(uleb128(uint64(len(s))), s...)
	}

	mod := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// type 0: () -> i64
	mod = append(mod, section(1, []byte{0x01, 0x60, 0x00, 0x01, 0x7e})...)
	// func 0 has type 0
	mod = append(mod, section(3, []byte{0x01, 0x00})...)
	// one memory, min 1 page
	mod = append(mod, section(5, []byte{0x01, 0x00, 0x01})...)

	exports := []byte{0x02}
	exports = append(exports, name("memory")...)
	exports = append(exports, 0x02, 0x00)
	exports = append(exports, name(WasmManifestExport)...)
	exports = append(exports, 0x00, 0x00)
	mod = append(mod, section(7, exports)...)

	body := []byte{0x00, 0x42} // no locals, i64.const
	body = append(body, sleb128(packed)...)
	body = append(body, 0x0b)
	code := append([]byte{0x01}, uleb128(uint64(len(body)))...)
	mod = append(mod, section(10, append(code, body...))...)

	data := []byte{0x01, 0x00, 0x41, offset, 0x0b} // active segment at i32.const 8
	data = append(data, name(manifest)...)
	mod = append(mod, section(11, data)...)

	return mod
}

func uleb128(v uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	return buf[:n]
}

func sleb128(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func TestWasmLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	manifest := `{"name": "wasm-parsers", "parsers": {"glimmer": {}, "angular-html": {}}}`
	require.NoError(t, afero.WriteFile(fs, "/repo/plugins/glimmer.wasm", wasmModule(manifest), 0o644))

	l := NewWasmLoader(fs)
	assert.True(t, l.Supports("/repo/plugins/glimmer.wasm"))
	assert.False(t, l.Supports("/repo/plugins/glimmer.js"))

	p, err := l.Load(context.Background(), "/repo/plugins/glimmer.wasm")
	require.NoError(t, err)
	assert.Equal(t, "wasm-parsers", p.Manifest().Name)
	assert.Equal(t, []string{"glimmer", "angular-html"}, p.Manifest().Capabilities.Parsers.Names())
}

// traceLogs routes the global logger into an observer at -vvv for one test
func traceLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prevLogger, prevVerbosity := logger.Logger, logger.Verbosity
	logger.Logger = zap.New(core).Sugar()
	logger.Verbosity = logger.VerbosityTrace
	t.Cleanup(func() {
		logger.Logger = prevLogger
		logger.Verbosity = prevVerbosity
	})
	return logs
}

func TestWasmLoader_TraceExports(t *testing.T) {
	logs := traceLogs(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/plugins/glimmer.wasm", wasmModule(`{"parsers": {"glimmer": {}}}`), 0o644))

	_, err := NewWasmLoader(fs).Load(logger.WithRunID(context.Background(), "run-1"), "/repo/plugins/glimmer.wasm")
	require.NoError(t, err)

	entries := logs.FilterMessage("Compiled wasm plugin").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields[logger.FieldRunID])
	assert.Contains(t, fields["exports"], WasmManifestExport)
}

func TestWasmLoader_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/garbage.wasm", []byte("not wasm"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/empty.wasm", []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, 0o644))

	l := NewWasmLoader(fs)

	_, err := l.Load(context.Background(), "/garbage.wasm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wasm compile")

	_, err = l.Load(context.Background(), "/empty.wasm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), WasmManifestExport)

	_, err = l.Load(context.Background(), "/missing.wasm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestExecLoader(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	dir := t.TempDir()
	pluginPath := filepath.Join(dir, "babel.js")
	require.NoError(t, os.WriteFile(pluginPath, []byte(`{"parsers": {"babel": {}, "babel-flow": {}}}`), 0o644))

	// Prints the plugin file itself, found through the appended file URL
	l := NewExecLoader(`sh -c 'cat "${1#file://}"' sh`, dir)
	assert.True(t, l.Supports(pluginPath))
	assert.False(t, l.Supports(filepath.Join(dir, "babel.json")))

	p, err := l.Load(context.Background(), pluginPath)
	require.NoError(t, err)
	assert.Equal(t, "babel", p.Manifest().Name)
	assert.Equal(t, []string{"babel", "babel-flow"}, p.Manifest().Capabilities.Parsers.Names())
}

func TestExecLoader_TraceStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	logs := traceLogs(t)

	dir := t.TempDir()
	pluginPath := filepath.Join(dir, "babel.js")
	require.NoError(t, os.WriteFile(pluginPath, []byte(`{"parsers": {"babel": {}}}`), 0o644))

	l := NewExecLoader(`sh -c 'echo "experimental loader" >&2; cat "${1#file://}"' sh`, dir)
	_, err := l.Load(context.Background(), pluginPath)
	require.NoError(t, err)

	entries := logs.FilterMessage("Plugin command finished").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "experimental loader", entries[0].ContextMap()["stderr"])
}

func TestExecLoader_Errors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	dir := t.TempDir()
	pluginPath := filepath.Join(dir, "broken.mjs")
	require.NoError(t, os.WriteFile(pluginPath, []byte("export default {}"), 0o644))

	t.Run("command fails", func(t *testing.T) {
		l := NewExecLoader(`sh -c 'echo "cannot import plugin" >&2; exit 3' sh`, dir)
		_, err := l.Load(context.Background(), pluginPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot import plugin")
	})

	t.Run("bad output", func(t *testing.T) {
		l := NewExecLoader(`sh -c 'echo "[1, 2]"' sh`, dir)
		_, err := l.Load(context.Background(), pluginPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid manifest printed")
	})

	t.Run("missing plugin", func(t *testing.T) {
		l := NewExecLoader("true", dir)
		_, err := l.Load(context.Background(), filepath.Join(dir, "nope.js"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("empty command disables", func(t *testing.T) {
		l := NewExecLoader("  ", dir)
		assert.False(t, l.Supports(pluginPath))
	})
}

func TestFileURL(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	assert.Equal(t, "file:///repo/src/plugins/babel.js", FileURL("/repo/src/plugins/babel.js"))
	assert.Equal(t, "file:///repo/my%20plugins/a.js", FileURL("/repo/my plugins/a.js"))
}
