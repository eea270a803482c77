package dts

import "strings"

// Rewrite applies replacements to text in order, each over the output of
// the previous one. Only the exact statement tail ` from "<From>";` is
// matched, so single-quoted sources, require() calls and imports without a
// trailing semicolon are left untouched.
func Rewrite(text string, replacements []ImportPathReplacement) string {
	for _, r := range replacements {
		text = strings.ReplaceAll(text, importTail(r.From), importTail(r.To))
	}
	return text
}

func importTail(source string) string {
	return ` from "` + source + `";`
}
