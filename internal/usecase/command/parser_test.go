package command

import (
	"reflect"
	"testing"

	"deckbridge/internal/domain"
)

var testReadySignals = []string{
	"CYD Deck Ready!", "cyd deck ready!", "CYD DECK READY!", "Ready!", "ready!",
}

func newTestParser(layout string) *Parser {
	return NewParser(layout, testReadySignals)
}

func TestParseReadySignals(t *testing.T) {
	p := newTestParser("us")
	for _, s := range testReadySignals {
		cmd := p.Parse(s)
		if cmd.Type != domain.CommandReady {
			t.Errorf("Parse(%q) type = %s, want ready_signal", s, cmd.Type)
		}
	}

	// Case matching is exact: spellings outside the accepted set are
	// ordinary keystroke input.
	cmd := p.Parse("READY!")
	if cmd.Type == domain.CommandReady {
		t.Errorf("Parse(%q) should not be a ready signal", "READY!")
	}
}

func TestParseDelay(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse("D250")
	if cmd.Type != domain.CommandDelay || cmd.DelayMS != 250 {
		t.Fatalf("Parse(D250) = %+v, want delay 250ms", cmd)
	}

	cmd = p.Parse("d1000")
	if cmd.Type != domain.CommandDelay || cmd.DelayMS != 1000 {
		t.Fatalf("Parse(d1000) = %+v, want delay 1000ms", cmd)
	}

	for _, raw := range []string{"D", "D12x", "Dx12", "E250"} {
		if cmd := p.Parse(raw); cmd.Type == domain.CommandDelay {
			t.Errorf("Parse(%q) parsed as delay", raw)
		}
	}
}

// A button configured to send the literal token "D5" cannot be
// distinguished from a 5ms delay; delay wins by precedence. This test
// pins that ambiguity down rather than resolving it.
func TestParseDelayShadowsDKeys(t *testing.T) {
	p := newTestParser("us")
	cmd := p.Parse("D5")
	if cmd.Type != domain.CommandDelay || cmd.DelayMS != 5 {
		t.Fatalf("Parse(D5) = %+v, want delay 5ms", cmd)
	}
}

func TestParseShell(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse("<dir>")
	if cmd.Type != domain.CommandShell || cmd.Shell != "dir" {
		t.Fatalf("Parse(<dir>) = %+v, want shell %q", cmd, "dir")
	}

	cmd = p.Parse("<  htop  >")
	if cmd.Shell != "htop" {
		t.Fatalf("inner shell text not trimmed: %q", cmd.Shell)
	}
}

func TestParseExecute(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse("EXECUTE+notepad")
	if cmd.Type != domain.CommandExecute || cmd.Path != "notepad" {
		t.Fatalf("Parse(EXECUTE+notepad) = %+v", cmd)
	}

	cmd = p.Parse("execute+ firefox ")
	if cmd.Type != domain.CommandExecute || cmd.Path != "firefox" {
		t.Fatalf("case-insensitive execute failed: %+v", cmd)
	}
}

func TestParsePipeWrapped(t *testing.T) {
	p := newTestParser("us")

	tests := []struct {
		raw      string
		wantType domain.CommandType
		want     string
	}{
		{"|https://example.com|", domain.CommandURL, "https://example.com"},
		{"|www.example.com|", domain.CommandURL, "www.example.com"},
		{"|FTP://files.example.com|", domain.CommandURL, "FTP://files.example.com"},
		{"|/home/user/notes.txt|", domain.CommandFilePath, "/home/user/notes.txt"},
		{"|C:\\tools\\run.bat|", domain.CommandFilePath, "C:\\tools\\run.bat"},
	}
	for _, tt := range tests {
		cmd := p.Parse(tt.raw)
		if cmd.Type != tt.wantType {
			t.Errorf("Parse(%q) type = %s, want %s", tt.raw, cmd.Type, tt.wantType)
			continue
		}
		got := cmd.URL
		if tt.wantType == domain.CommandFilePath {
			got = cmd.Path
		}
		if got != tt.want {
			t.Errorf("Parse(%q) content = %q, want %q", tt.raw, got, tt.want)
		}
	}

	// "||" is too short to be pipe-wrapped content.
	if cmd := p.Parse("||"); cmd.Type == domain.CommandURL || cmd.Type == domain.CommandFilePath {
		t.Errorf("Parse(||) = %+v, want keystroke fallback", cmd)
	}
}

func TestParseQuotedText(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse(`WIN+"Hello"`)
	if cmd.Type != domain.CommandText {
		t.Fatalf("type = %s, want text", cmd.Type)
	}
	if !reflect.DeepEqual(cmd.Modifiers, []string{"win"}) || len(cmd.Keys) != 0 {
		t.Fatalf("chord = %v/%v, want [win]/[]", cmd.Modifiers, cmd.Keys)
	}
	if cmd.Text != "Hello" {
		t.Fatalf("text = %q, want Hello", cmd.Text)
	}

	cmd = p.Parse(`"plain text with spaces"`)
	if cmd.Type != domain.CommandText || cmd.Text != "plain text with spaces" {
		t.Fatalf("bare quoted parse = %+v", cmd)
	}

	// Quotes inside the text survive: split is first/last quote.
	cmd = p.Parse(`CTRL+"say "hi" now"`)
	if cmd.Text != `say "hi" now` {
		t.Fatalf("inner quotes lost: %q", cmd.Text)
	}

	// A single quote character is not a text command.
	cmd = p.Parse(`CTRL+"`)
	if cmd.Type == domain.CommandText {
		t.Fatalf("lone quote parsed as text: %+v", cmd)
	}
}

func TestParseQuotedURLWithEmptyPrefix(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse(`"https://example.com/page"`)
	if cmd.Type != domain.CommandURL || cmd.URL != "https://example.com/page" {
		t.Fatalf("quoted URL = %+v", cmd)
	}

	// With a prefix the same content is literal text.
	cmd = p.Parse(`CTRL+"https://example.com/page"`)
	if cmd.Type != domain.CommandText {
		t.Fatalf("prefixed quoted URL should be text, got %+v", cmd)
	}
}

func TestParseKeystroke(t *testing.T) {
	p := newTestParser("us")

	cmd := p.Parse("CTRL+C")
	if cmd.Type != domain.CommandKeystroke {
		t.Fatalf("type = %s, want keystroke", cmd.Type)
	}
	if !reflect.DeepEqual(cmd.Modifiers, []string{"ctrl"}) || !reflect.DeepEqual(cmd.Keys, []string{"c"}) {
		t.Fatalf("chord = %v/%v, want [ctrl]/[c]", cmd.Modifiers, cmd.Keys)
	}

	cmd = p.Parse("CTRL+SHIFT+ESC")
	if !reflect.DeepEqual(cmd.Modifiers, []string{"ctrl", "shift"}) || !reflect.DeepEqual(cmd.Keys, []string{"esc"}) {
		t.Fatalf("chord = %v/%v", cmd.Modifiers, cmd.Keys)
	}

	// Whitespace around tokens and empty tokens are dropped.
	cmd = p.Parse("  CTRL + C ")
	if !reflect.DeepEqual(cmd.Modifiers, []string{"ctrl"}) || !reflect.DeepEqual(cmd.Keys, []string{"c"}) {
		t.Fatalf("chord = %v/%v", cmd.Modifiers, cmd.Keys)
	}
}

func TestParseKeyAliases(t *testing.T) {
	p := newTestParser("us")

	tests := []struct {
		raw  string
		want string
	}{
		{"CONTROL", "ctrl"},
		{"WINDOWS", "win"},
		{"CMD", "win"},
		{"SUPER", "win"},
		{"FUNCTION", "fn"},
		{"RETURN", "enter"},
		{"ESCAPE", "esc"},
		{"DEL", "delete"},
	}
	for _, tt := range tests {
		cmd := p.Parse(tt.raw)
		all := append(append([]string{}, cmd.Modifiers...), cmd.Keys...)
		if len(all) != 1 || all[0] != tt.want {
			t.Errorf("Parse(%q) tokens = %v, want [%s]", tt.raw, all, tt.want)
		}
	}

	cmd := p.Parse("PAGEUP")
	if !reflect.DeepEqual(cmd.Keys, []string{"page up"}) {
		t.Errorf("PAGEUP keys = %v", cmd.Keys)
	}
	cmd = p.Parse("F13")
	if !reflect.DeepEqual(cmd.Keys, []string{"f13"}) {
		t.Errorf("F13 keys = %v", cmd.Keys)
	}
	// Unknown tokens pass through lower-cased.
	cmd = p.Parse("VOLUMEKNOB")
	if !reflect.DeepEqual(cmd.Keys, []string{"volumeknob"}) {
		t.Errorf("passthrough keys = %v", cmd.Keys)
	}
}

func TestParseLayoutTransform(t *testing.T) {
	de := newTestParser("de")
	fr := newTestParser("fr")

	cmd := de.Parse("CTRL+Z")
	if !reflect.DeepEqual(cmd.Keys, []string{"y"}) {
		t.Errorf("de CTRL+Z keys = %v, want [y]", cmd.Keys)
	}
	cmd = de.Parse("Y")
	if !reflect.DeepEqual(cmd.Keys, []string{"z"}) {
		t.Errorf("de Y keys = %v, want [z]", cmd.Keys)
	}
	cmd = fr.Parse("A")
	if !reflect.DeepEqual(cmd.Keys, []string{"q"}) {
		t.Errorf("fr A keys = %v, want [q]", cmd.Keys)
	}

	// Multi-character canonical names are never transformed.
	cmd = de.Parse("ENTER")
	if !reflect.DeepEqual(cmd.Keys, []string{"enter"}) {
		t.Errorf("de ENTER keys = %v", cmd.Keys)
	}

	// The chord prefix of a text command goes through the same table.
	cmd = de.Parse(`CTRL+Z+"undo this"`)
	if !reflect.DeepEqual(cmd.Keys, []string{"y"}) || cmd.Text != "undo this" {
		t.Errorf("de text prefix = %v / %q", cmd.Keys, cmd.Text)
	}
}

func TestParseUnknownLayoutIsIdentity(t *testing.T) {
	p := newTestParser("tlh")
	cmd := p.Parse("Z")
	if !reflect.DeepEqual(cmd.Keys, []string{"z"}) {
		t.Errorf("unknown layout keys = %v, want [z]", cmd.Keys)
	}
}

func TestParseRetainsRawInput(t *testing.T) {
	p := newTestParser("us")
	for _, raw := range []string{"CTRL+C", "D250", "<dir>", "EXECUTE+code", `WIN+"hi"`} {
		if cmd := p.Parse(raw); cmd.Raw != raw {
			t.Errorf("Parse(%q).Raw = %q", raw, cmd.Raw)
		}
	}
}
