package fundbook

import "strings"

// NormalizeSymbol canonicalizes free-text ticker input: surrounding
// whitespace is trimmed and the result is uppercased. An empty result means
// "no symbol"; such trades are excluded from per-symbol aggregation.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
