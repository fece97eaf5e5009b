package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"eau-tools/eau"
	"eau-tools/theme"
)

func testModel(t *testing.T) Model {
	t.Helper()
	fm := eau.NewChannel(0)
	fm.Mode = eau.ModeFM
	kit := eau.NewChannel(9)
	kit.Mode = eau.ModeDrum
	serial, err := (&eau.Song{
		Tempo:    500,
		Channels: []eau.Channel{fm, kit},
		Events: []eau.Event{
			{Type: eau.EventNote, Chid: 0, Noteid: 64, Velocity: 64, Duration: 200},
			{Type: eau.EventDelay, Delay: 100},
			{Type: eau.EventNote, Chid: 9, Noteid: 36, Velocity: 127, Duration: 0},
		},
		Names: []eau.Name{{Chid: 0, Noteid: 0, Text: "Lead"}, {Chid: 9, Noteid: 36, Text: "Kick"}},
	}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewModel("example", serial, theme.New(theme.DefaultPalette()))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestModelDurations(t *testing.T) {
	m := testModel(t)
	if len(m.Durations) != 4 {
		t.Fatalf("durations = %+v", m.Durations)
	}
	if m.Durations[2].Method != eau.MethodRoundUp || m.Durations[2].Ms != 500 {
		t.Errorf("roundup = %+v", m.Durations[2])
	}
}

func TestModelNavigation(t *testing.T) {
	m := testModel(t)

	m = update(m, "j", "j", "j")
	if channels, row := m.Selected(); !channels || row != 1 {
		t.Errorf("selected = %v %d, want channel row 1", channels, row)
	}

	m = update(m, "tab", "G")
	if channels, row := m.Selected(); channels || row != 2 {
		t.Errorf("selected = %v %d, want event row 2", channels, row)
	}
	m = update(m, "k", "g")
	if _, row := m.Selected(); row != 0 {
		t.Errorf("row = %d after g", row)
	}
}

func TestModelView(t *testing.T) {
	m := testModel(t)
	view := m.View()
	for _, want := range []string{"example", "2 channels", "Lead", "fm"} {
		if !strings.Contains(view, want) {
			t.Errorf("channel view lacks %q:\n%s", want, view)
		}
	}
	view = update(m, "tab").View()
	for _, want := range []string{"Kick", "delay 100", "0:00.100"} {
		if !strings.Contains(view, want) {
			t.Errorf("event view lacks %q:\n%s", want, view)
		}
	}
}

func TestModelQuit(t *testing.T) {
	m := testModel(t)
	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quit")
	}
}
