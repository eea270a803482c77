// Package dts emits the TypeScript declaration artifacts of a build.
//
// Every BuildTarget takes one of two paths:
//   - plain declaration targets are copied with a fixed list of import-path
//     rewrites applied (Rewrite)
//   - plugin targets load the plugin, read the names of its parsers and
//     synthesize a declaration typing exactly those names (Synthesize)
//
// Emitter.Emit routes a target to its path and writes the result.
package dts

// BuildTarget identifies one declaration artifact to produce.
type BuildTarget struct {
	// Input is the project-relative source path, e.g. "src/index.d.ts"
	// or "src/plugins/babel.js". It is also the ReplacementMap key.
	Input string `json:"input"`

	Output Output `json:"output"`
}

// Output describes where and how an artifact is produced.
type Output struct {
	// File is the dist-relative artifact path, e.g. "plugins/babel.d.ts"
	File string `json:"file"`

	// IsPlugin selects plugin synthesis instead of rewriting
	IsPlugin bool `json:"isPlugin"`
}

// Mode names the transform a target uses, for logs and reports.
func (t BuildTarget) Mode() string {
	if t.Output.IsPlugin {
		return "plugin"
	}
	return "rewrite"
}

func (t BuildTarget) String() string {
	return t.Input + " -> " + t.Output.File
}
