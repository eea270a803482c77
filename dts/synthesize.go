package dts

import (
	"strings"

	"github.com/teranos/dtsgen/plugin"
)

// CoreTypesImport is the module the synthesized declarations import Parser
// from, relative to the plugin declaration's output location. It must move
// in lockstep with the core declaration file.
const CoreTypesImport = "../index.js"

// Synthesize renders the declaration for a plugin's capabilities.
//
// Only parsers are part of a plugin's public type surface; printers are
// never emitted. A plugin without parsers yields "" so no declaration is
// shipped for it. A repeated parser name is declared once, at its first
// position.
func Synthesize(caps plugin.CapabilitySet) string {
	names := caps.Parsers.Names()
	if len(names) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`import { Parser } from "` + CoreTypesImport + `";` + "\n")
	sb.WriteString("\n")
	sb.WriteString("export declare const parsers: {\n")
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		sb.WriteString("  ")
		sb.WriteString(FormatKey(name))
		sb.WriteString(": Parser;\n")
	}
	sb.WriteString("};\n")

	return sb.String()
}
