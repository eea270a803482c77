// Package plugin loads plugin modules and reports the capabilities they export.
//
// Plugins are never evaluated ad hoc. Each one is reached through a Loader
// registered on a Registry and answers with an explicit Manifest:
//   - in-process plugins are registered directly (Registry.RegisterPlugin)
//   - descriptor files (.json, .yaml, .yml, .toml) are decoded in document order
//   - WebAssembly modules (.wasm) export dts_manifest
//   - script plugins (.js, .mjs, .cjs) are run through a configured command
//     that prints the manifest
package plugin

import (
	"context"
)

// Plugin is a loaded plugin module.
type Plugin interface {
	Manifest() Manifest
}

// Manifest describes a plugin module
type Manifest struct {
	// Name is the plugin identifier (e.g., "babel"). Defaults to the file
	// name without extension.
	Name string

	// Version is the plugin version (semver, optional)
	Version string

	// Core is the required core version (semver constraint, optional)
	Core string

	// Capabilities is what the module exports
	Capabilities CapabilitySet
}

// Loader turns a plugin location into a Plugin.
type Loader interface {
	// Name identifies the loader in logs and errors
	Name() string

	// Supports reports whether this loader handles the file at path
	Supports(path string) bool

	// Load reads the plugin at path (absolute). Any failure is fatal for the
	// target; loaders never return a placeholder plugin.
	Load(ctx context.Context, path string) (Plugin, error)
}

type staticPlugin struct {
	manifest Manifest
}

func (p staticPlugin) Manifest() Manifest {
	return p.manifest
}

// New wraps a manifest as a Plugin.
func New(m Manifest) Plugin {
	return staticPlugin{manifest: m}
}
