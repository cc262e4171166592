package command

import "strings"

// Layout is a pure single-character substitution table for a physical
// keyboard layout. Multi-character tokens (canonical key names) are
// never transformed.
type Layout struct {
	code  string
	table map[string]string
}

var layouts = map[string]map[string]string{
	"us": {},
	"de": {
		"y": "z", "z": "y", "-": "ß", "[": "ü", "]": "+", ";": "ö", "'": "ä",
	},
	"fr": {
		"a": "q", "q": "a", "w": "z", "z": "w", "m": ",", ",": "m",
	},
}

// LayoutFor returns the layout for the given code. Unknown codes get
// the identity layout.
func LayoutFor(code string) Layout {
	code = strings.ToLower(code)
	table, ok := layouts[code]
	if !ok {
		return Layout{code: "us", table: map[string]string{}}
	}
	return Layout{code: code, table: table}
}

// Code returns the layout's code ("us", "de", "fr").
func (l Layout) Code() string { return l.code }

// Transform substitutes a single-character key for the layout. Longer
// tokens are returned unchanged.
func (l Layout) Transform(key string) string {
	if len([]rune(key)) != 1 {
		return key
	}
	if sub, ok := l.table[strings.ToLower(key)]; ok {
		return sub
	}
	return key
}

// TransformAll applies Transform to every key.
func (l Layout) TransformAll(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = l.Transform(k)
	}
	return out
}
