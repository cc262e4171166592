package command

import "strings"

// keyAliases translates the upper-case spellings the device firmware
// sends to canonical lower-case key names. Unmapped tokens pass through
// lower-cased unchanged.
var keyAliases = map[string]string{
	"CTRL": "ctrl", "CONTROL": "ctrl",
	"ALT":   "alt",
	"SHIFT": "shift",
	"WIN": "win", "WINDOWS": "win", "CMD": "win", "SUPER": "win",
	"FN": "fn", "FUNCTION": "fn",
	"ENTER": "enter", "RETURN": "enter",
	"SPACE": "space",
	"TAB":   "tab",
	"ESC":   "esc", "ESCAPE": "esc",
	"BACKSPACE": "backspace",
	"DELETE":    "delete", "DEL": "delete",
	"UP": "up", "DOWN": "down", "LEFT": "left", "RIGHT": "right",
	"HOME": "home", "END": "end",
	"PAGEUP": "page up", "PAGEDOWN": "page down",
	"F1": "f1", "F2": "f2", "F3": "f3", "F4": "f4", "F5": "f5",
	"F6": "f6", "F7": "f7", "F8": "f8", "F9": "f9", "F10": "f10",
	"F11": "f11", "F12": "f12", "F13": "f13", "F14": "f14", "F15": "f15",
	"F16": "f16", "F17": "f17", "F18": "f18", "F19": "f19", "F20": "f20",
	"F21": "f21", "F22": "f22", "F23": "f23", "F24": "f24",
}

var modifierSet = map[string]struct{}{
	"ctrl": {}, "alt": {}, "shift": {}, "win": {}, "fn": {},
}

// MapKey normalizes a raw key token to its canonical lower-case name.
func MapKey(token string) string {
	if canonical, ok := keyAliases[strings.ToUpper(token)]; ok {
		return canonical
	}
	return strings.ToLower(token)
}

// IsModifier reports whether key belongs to the fixed modifier set.
func IsModifier(key string) bool {
	_, ok := modifierSet[strings.ToLower(key)]
	return ok
}
