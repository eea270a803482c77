package dts

import (
	"github.com/teranos/dtsgen/errors"
)

// ImportPathReplacement swaps one exact import source for another.
type ImportPathReplacement struct {
	From string
	To   string
}

// ReplacementMap maps an input path (exact string match) to the ordered
// replacements applied to that file. Inputs without an entry pass through.
type ReplacementMap map[string][]ImportPathReplacement

// DefaultReplacements is the compiled-in table. Adding a rewritten file
// means adding an entry here.
var DefaultReplacements = ReplacementMap{
	"src/index.d.ts": {
		{From: "./document/public.js", To: "./doc.js"},
	},
}

// For returns the replacements configured for input, or nil.
func (m ReplacementMap) For(input string) []ImportPathReplacement {
	return m[input]
}

// Validate checks every list for rules that would make a second pass over
// already rewritten text change it again: a To equal to any From of the
// same list, and empty sources.
func (m ReplacementMap) Validate() error {
	for input, list := range m {
		froms := make(map[string]bool, len(list))
		for _, r := range list {
			if r.From == "" || r.To == "" {
				return errors.Newf("replacement for %s has an empty import source", input)
			}
			froms[r.From] = true
		}
		for _, r := range list {
			if froms[r.To] {
				return errors.Newf("replacement for %s maps to %q, which is also rewritten by the same list", input, r.To)
			}
		}
	}
	return nil
}
