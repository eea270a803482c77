package dts

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// reservedWords are keywords plus the words reserved in strict mode code.
// A property named by one of these is quoted even though ES5+ would accept
// it bare, matching Babel's isValidIdentifier.
var reservedWords = map[string]bool{
	// keywords
	"break": true, "case": true, "catch": true, "continue": true, "debugger": true,
	"default": true, "do": true, "else": true, "finally": true, "for": true,
	"function": true, "if": true, "return": true, "switch": true, "throw": true,
	"try": true, "var": true, "const": true, "while": true, "with": true,
	"new": true, "this": true, "super": true, "class": true, "extends": true,
	"export": true, "import": true, "null": true, "true": true, "false": true,
	"in": true, "instanceof": true, "typeof": true, "void": true, "delete": true,
	// always reserved / reserved in modules
	"enum": true, "await": true,
	// strict mode
	"implements": true, "interface": true, "let": true, "package": true,
	"private": true, "protected": true, "public": true, "static": true, "yield": true,
}

// FormatKey returns name as an object-literal property key: bare when it is
// a valid, non-reserved identifier, otherwise a JSON string literal.
func FormatKey(name string) string {
	if IsValidIdentifier(name) {
		return name
	}
	return quote(name)
}

// IsValidIdentifier reports whether name is an IdentifierName that is not a
// reserved word.
func IsValidIdentifier(name string) bool {
	if name == "" || reservedWords[name] {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !isIdentifierStart(r) {
				return false
			}
			continue
		}
		if !isIdentifierPart(r) {
			return false
		}
	}
	return true
}

func isIdentifierStart(r rune) bool {
	return r == '$' || r == '_' ||
		unicode.IsLetter(r) ||
		unicode.Is(unicode.Nl, r) ||
		unicode.Is(unicode.Other_ID_Start, r)
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) ||
		unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue) ||
		r == '\u200c' || r == '\u200d'
}

// quote encodes s the way JSON.stringify does: no HTML escaping, and the
// line/paragraph separators stay literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string never fails
	_ = enc.Encode(s)

	out := strings.TrimSuffix(buf.String(), "\n")
	if !strings.Contains(out, `\u202`) {
		return out
	}
	return unescapeSeparators(out)
}

// unescapeSeparators turns the \u2028 and \u2029 escapes of encoding/json
// back into literal runes, skipping escaped backslashes.
func unescapeSeparators(quoted string) string {
	var sb strings.Builder
	for i := 0; i < len(quoted); i++ {
		c := quoted[i]
		if c != '\\' || i+1 >= len(quoted) {
			sb.WriteByte(c)
			continue
		}
		switch rest := quoted[i:]; {
		case strings.HasPrefix(rest, `\u2028`):
			sb.WriteRune('\u2028')
			i += 5
		case strings.HasPrefix(rest, `\u2029`):
			sb.WriteRune('\u2029')
			i += 5
		default:
			sb.WriteByte(c)
			sb.WriteByte(quoted[i+1])
			i++
		}
	}
	return sb.String()
}
