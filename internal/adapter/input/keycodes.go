package input

// Linux input event codes for every key name the command vocabulary can
// produce. fn is deliberately absent: the kernel has no virtual fn key,
// so holding it is reported as unsupported and the executor falls back.
var namedKeys = map[string]uint16{
	"esc":       1,
	"backspace": 14,
	"tab":       15,
	"enter":     28,
	"ctrl":      29,
	"shift":     42,
	"alt":       56,
	"space":     57,
	"home":      102,
	"up":        103,
	"page up":   104,
	"left":      105,
	"right":     106,
	"end":       107,
	"down":      108,
	"page down": 109,
	"insert":    110,
	"delete":    111,
	"win":       125,
	"f1":        59, "f2": 60, "f3": 61, "f4": 62, "f5": 63,
	"f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
	"f13": 183, "f14": 184, "f15": 185, "f16": 186, "f17": 187, "f18": 188,
	"f19": 189, "f20": 190, "f21": 191, "f22": 192, "f23": 193, "f24": 194,
}

// mediaCodes covers the media and hardware keys reachable through the
// fn fallback path.
var mediaCodes = map[string]uint16{
	"mute":            113,
	"volume down":     114,
	"volume up":       115,
	"next":            163,
	"playpause":       164,
	"previous":        165,
	"stop":            166,
	"brightness down": 224,
	"brightness up":   225,
}

type charStroke struct {
	code  uint16
	shift bool
}

var charKeys = map[rune]charStroke{
	'a': {code: 30}, 'b': {code: 48}, 'c': {code: 46}, 'd': {code: 32},
	'e': {code: 18}, 'f': {code: 33}, 'g': {code: 34}, 'h': {code: 35},
	'i': {code: 23}, 'j': {code: 36}, 'k': {code: 37}, 'l': {code: 38},
	'm': {code: 50}, 'n': {code: 49}, 'o': {code: 24}, 'p': {code: 25},
	'q': {code: 16}, 'r': {code: 19}, 's': {code: 31}, 't': {code: 20},
	'u': {code: 22}, 'v': {code: 47}, 'w': {code: 17}, 'x': {code: 45},
	'y': {code: 21}, 'z': {code: 44},

	'1': {code: 2}, '2': {code: 3}, '3': {code: 4}, '4': {code: 5},
	'5': {code: 6}, '6': {code: 7}, '7': {code: 8}, '8': {code: 9},
	'9': {code: 10}, '0': {code: 11},

	'-': {code: 12}, '=': {code: 13}, '[': {code: 26}, ']': {code: 27},
	';': {code: 39}, '\'': {code: 40}, '`': {code: 41}, '\\': {code: 43},
	',': {code: 51}, '.': {code: 52}, '/': {code: 53}, ' ': {code: 57},
	'\t': {code: 15}, '\n': {code: 28},

	'A': {code: 30, shift: true}, 'B': {code: 48, shift: true},
	'C': {code: 46, shift: true}, 'D': {code: 32, shift: true},
	'E': {code: 18, shift: true}, 'F': {code: 33, shift: true},
	'G': {code: 34, shift: true}, 'H': {code: 35, shift: true},
	'I': {code: 23, shift: true}, 'J': {code: 36, shift: true},
	'K': {code: 37, shift: true}, 'L': {code: 38, shift: true},
	'M': {code: 50, shift: true}, 'N': {code: 49, shift: true},
	'O': {code: 24, shift: true}, 'P': {code: 25, shift: true},
	'Q': {code: 16, shift: true}, 'R': {code: 19, shift: true},
	'S': {code: 31, shift: true}, 'T': {code: 20, shift: true},
	'U': {code: 22, shift: true}, 'V': {code: 47, shift: true},
	'W': {code: 17, shift: true}, 'X': {code: 45, shift: true},
	'Y': {code: 21, shift: true}, 'Z': {code: 44, shift: true},

	'!': {code: 2, shift: true}, '@': {code: 3, shift: true},
	'#': {code: 4, shift: true}, '$': {code: 5, shift: true},
	'%': {code: 6, shift: true}, '^': {code: 7, shift: true},
	'&': {code: 8, shift: true}, '*': {code: 9, shift: true},
	'(': {code: 10, shift: true}, ')': {code: 11, shift: true},
	'_': {code: 12, shift: true}, '+': {code: 13, shift: true},
	'{': {code: 26, shift: true}, '}': {code: 27, shift: true},
	':': {code: 39, shift: true}, '"': {code: 40, shift: true},
	'~': {code: 41, shift: true}, '|': {code: 43, shift: true},
	'<': {code: 51, shift: true}, '>': {code: 52, shift: true},
	'?': {code: 53, shift: true},
}

// lookupKey resolves a canonical key name to its event code. Single
// character names go through the character table and may require a
// shift hold.
func lookupKey(name string) (code uint16, shift bool, ok bool) {
	if c, found := namedKeys[name]; found {
		return c, false, true
	}
	runes := []rune(name)
	if len(runes) == 1 {
		if cs, found := charKeys[runes[0]]; found {
			return cs.code, cs.shift, true
		}
	}
	return 0, false, false
}
