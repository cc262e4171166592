package command

import (
	"strconv"
	"strings"

	"deckbridge/internal/domain"
)

// Parser turns raw device lines into Commands. Parsing is total: any
// line that matches no specific shape falls back to a Keystroke parse
// of its tokens. Precedence is fixed, first match wins:
//
//	ready signal > D<digits> > <shell> > EXECUTE+ > |url-or-path| > "quoted text" > keystroke
type Parser struct {
	layout Layout
	ready  map[string]struct{}
}

// NewParser builds a parser for the given layout code and the
// case-sensitive set of accepted ready-signal lines.
func NewParser(layoutCode string, readySignals []string) *Parser {
	ready := make(map[string]struct{}, len(readySignals))
	for _, s := range readySignals {
		ready[s] = struct{}{}
	}
	return &Parser{layout: LayoutFor(layoutCode), ready: ready}
}

// Parse classifies one trimmed line. It never fails.
func (p *Parser) Parse(line string) domain.Command {
	raw := strings.TrimSpace(line)

	if _, ok := p.ready[raw]; ok {
		return domain.Command{Type: domain.CommandReady, Raw: raw}
	}

	if len(raw) > 1 && (raw[0] == 'D' || raw[0] == 'd') {
		if ms, err := strconv.Atoi(raw[1:]); err == nil && allDigits(raw[1:]) {
			return domain.Command{Type: domain.CommandDelay, Raw: raw, DelayMS: ms}
		}
	}

	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		return domain.Command{
			Type:  domain.CommandShell,
			Raw:   raw,
			Shell: strings.TrimSpace(raw[1 : len(raw)-1]),
		}
	}

	if len(raw) >= 8 && strings.EqualFold(raw[:8], "EXECUTE+") {
		return domain.Command{
			Type: domain.CommandExecute,
			Raw:  raw,
			Path: strings.TrimSpace(raw[8:]),
		}
	}

	if len(raw) > 2 && strings.HasPrefix(raw, "|") && strings.HasSuffix(raw, "|") {
		content := raw[1 : len(raw)-1]
		if looksLikeURL(content) {
			return domain.Command{Type: domain.CommandURL, Raw: raw, URL: content}
		}
		return domain.Command{Type: domain.CommandFilePath, Raw: raw, Path: content}
	}

	if first := strings.Index(raw, `"`); first >= 0 {
		if last := strings.LastIndex(raw, `"`); last > first {
			prefix := strings.TrimSpace(strings.TrimRight(raw[:first], "+"))
			text := raw[first+1 : last]

			if prefix == "" && looksLikeURL(text) {
				return domain.Command{Type: domain.CommandURL, Raw: raw, URL: text}
			}

			modifiers, keys := p.splitChord(prefix)
			return domain.Command{
				Type:      domain.CommandText,
				Raw:       raw,
				Modifiers: modifiers,
				Keys:      keys,
				Text:      text,
			}
		}
	}

	modifiers, keys := p.splitChord(raw)
	return domain.Command{
		Type:      domain.CommandKeystroke,
		Raw:       raw,
		Modifiers: modifiers,
		Keys:      keys,
	}
}

// splitChord tokenizes a +-separated chord, normalizes each token, runs
// the layout table over single-character keys and partitions the result
// into modifiers and ordinary keys.
func (p *Parser) splitChord(chord string) (modifiers, keys []string) {
	modifiers = []string{}
	keys = []string{}
	for _, part := range strings.Split(chord, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := p.layout.Transform(MapKey(part))
		if IsModifier(k) {
			modifiers = append(modifiers, k)
		} else {
			keys = append(keys, k)
		}
	}
	return modifiers, keys
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func looksLikeURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") ||
		strings.HasPrefix(l, "https://") ||
		strings.HasPrefix(l, "www.") ||
		strings.HasPrefix(l, "ftp://")
}
