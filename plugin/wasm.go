package plugin

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
	"github.com/teranos/dtsgen/logger"
)

// Exports a WebAssembly plugin provides.
const (
	WasmManifestExport = "dts_manifest"
	WasmFreeExport     = "wasm_free"
)

// WasmLoader runs .wasm plugins with wazero.
//
// Memory protocol: dts_manifest takes no arguments and returns the manifest
// JSON as (ptr << 32) | len in a u64. wasm_free(ptr, len) is called on the
// result when exported. Reactor modules get _initialize run before the call.
type WasmLoader struct {
	Fs afero.Fs
}

// NewWasmLoader creates a WebAssembly loader reading modules from fs
func NewWasmLoader(fs afero.Fs) *WasmLoader {
	return &WasmLoader{Fs: fs}
}

func (l *WasmLoader) Name() string { return "wasm" }

func (l *WasmLoader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wasm")
}

// Load compiles and instantiates the module in a fresh runtime, reads its
// manifest and closes the runtime again.
func (l *WasmLoader) Load(ctx context.Context, path string) (Plugin, error) {
	wasmBytes, err := fsutil.ReadFile(l.Fs, path)
	if err != nil {
		return nil, err
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	defer r.Close(ctx)

	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "wasm compile %s", path)
	}
	if logger.TraceEnabled() {
		logger.LoggerFromContext(ctx).Debugw("Compiled wasm plugin",
			logger.FieldLoader, l.Name(),
			logger.FieldPlugin, path,
			logger.FieldSize, len(wasmBytes),
			"exports", exportNames(compiled),
		)
	}

	mod, err := r.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().
			WithName(filepath.Base(path)).
			WithStartFunctions("_initialize"))
	if err != nil {
		return nil, errors.Wrapf(err, "wasm instantiate %s", path)
	}

	data, err := callManifest(ctx, mod)
	if err != nil {
		return nil, errors.Wrapf(err, "wasm plugin %s", path)
	}

	m, err := DecodeManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest from %s", path)
	}
	return New(withDefaultName(m, path)), nil
}

func exportNames(compiled wazero.CompiledModule) []string {
	names := make([]string, 0, len(compiled.ExportedFunctions()))
	for name := range compiled.ExportedFunctions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// callManifest calls dts_manifest and copies the returned bytes out of
// linear memory.
func callManifest(ctx context.Context, mod api.Module) ([]byte, error) {
	manifestFn := mod.ExportedFunction(WasmManifestExport)
	if manifestFn == nil {
		return nil, errors.WithHint(
			errors.Newf("missing export %q", WasmManifestExport),
			"a WebAssembly plugin must export dts_manifest() -> i64",
		)
	}

	results, err := manifestFn.Call(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "wasm call %s", WasmManifestExport)
	}
	if len(results) != 1 {
		return nil, errors.Newf("%s returned %d values, want 1", WasmManifestExport, len(results))
	}

	// Unpack result: (ptr << 32) | len
	packed := results[0]
	resultPtr := uint32(packed >> 32)
	resultLen := uint32(packed & 0xFFFFFFFF)

	if resultPtr == 0 || resultLen == 0 {
		return nil, errors.Newf("%s returned null result (ptr=%d, len=%d)", WasmManifestExport, resultPtr, resultLen)
	}

	mem := mod.Memory()
	if mem == nil {
		return nil, errors.New("module exports no memory")
	}
	resultBytes, ok := mem.Read(resultPtr, resultLen)
	if !ok {
		return nil, errors.Newf("%s memory read out of range at ptr=%d len=%d", WasmManifestExport, resultPtr, resultLen)
	}

	// Copy before freeing (memory invalidated after free)
	output := make([]byte, len(resultBytes))
	copy(output, resultBytes)

	if freeFn := mod.ExportedFunction(WasmFreeExport); freeFn != nil {
		if _, err := freeFn.Call(ctx, uint64(resultPtr), uint64(resultLen)); err != nil {
			return nil, errors.Wrapf(err, "%s failed for ptr=%d len=%d", WasmFreeExport, resultPtr, resultLen)
		}
	}

	return output, nil
}
