package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eau-tools/eau"
	"eau-tools/theme"
	"eau-tools/widgets"
)

type pane int

const (
	paneChannels pane = iota
	paneEvents
)

// eventRow is an event placed at its start time
type eventRow struct {
	at int
	ev eau.Event
}

// Model is a read-only inspector for one song
type Model struct {
	Title     string
	Song      *eau.Song
	Theme     *theme.Theme
	Durations []Duration

	events   []eventRow
	pane     pane
	cursor   [2]int
	height   int
	showHelp bool
	quitting bool
}

// Duration is one estimate shown in the header
type Duration struct {
	Method eau.DurationMethod
	Ms     int
}

func NewModel(title string, serial []byte, th *theme.Theme) (Model, error) {
	song, err := eau.Decode(serial)
	if err != nil {
		return Model{}, err
	}
	m := Model{Title: title, Song: song, Theme: th, height: 24}
	for _, method := range eau.AllDurationMethods {
		ms, err := eau.EstimateDuration(serial, method)
		if err != nil {
			return Model{}, err
		}
		m.Durations = append(m.Durations, Duration{method, ms})
	}
	now := 0
	for _, ev := range song.Events {
		m.events = append(m.events, eventRow{at: now, ev: ev})
		if ev.Type == eau.EventDelay {
			now += ev.Delay
		}
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) rowCount() int {
	if m.pane == paneChannels {
		return len(m.Song.Channels)
	}
	return len(m.events)
}

func (m Model) move(delta int) Model {
	n := m.rowCount()
	c := m.cursor[m.pane] + delta
	c = max(min(c, n-1), 0)
	m.cursor[m.pane] = c
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.pane = 1 - m.pane
		case "j", "down":
			m = m.move(1)
		case "k", "up":
			m = m.move(-1)
		case "pgdown", "ctrl+d":
			m = m.move(m.pageSize())
		case "pgup", "ctrl+u":
			m = m.move(-m.pageSize())
		case "g", "home":
			m.cursor[m.pane] = 0
		case "G", "end":
			m = m.move(m.rowCount())
		case "?":
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
	}
	return m, nil
}

// pageSize is the number of rows that fit under the header
func (m Model) pageSize() int {
	return max(m.height-8, 3)
}

// Selected returns the pane and row under the cursor
func (m Model) Selected() (channels bool, row int) {
	return m.pane == paneChannels, m.cursor[m.pane]
}

var keyHelp = []widgets.KeySection{
	{Title: "Navigate", Keys: []widgets.KeyBinding{
		{Key: "tab", Desc: "switch channels/events"},
		{Key: "j/k", Desc: "down/up"},
		{Key: "pgdn/pgup", Desc: "page"},
		{Key: "g/G", Desc: "top/bottom"},
	}},
	{Title: "Other", Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "toggle help"},
		{Key: "q", Desc: "quit"},
	}},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	tabStyle := lipgloss.NewStyle().Padding(0, 1)
	activeTab := tabStyle.Foreground(m.Theme.BG()).Background(m.Theme.Accent())

	var durations []string
	for _, d := range m.Durations {
		durations = append(durations, fmt.Sprintf("%s %s", d.Method, widgets.FormatMillis(d.Ms)))
	}
	header := headerStyle.Render(fmt.Sprintf("%s  tempo %dms  %d channels  %d events",
		m.Title, m.Song.Tempo, len(m.Song.Channels), len(m.events)))

	tabs := []string{"channels", "events"}
	for i := range tabs {
		if pane(i) == m.pane {
			tabs[i] = activeTab.Render(tabs[i])
		} else {
			tabs[i] = tabStyle.Render(tabs[i])
		}
	}

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(strings.Join(durations, "  ")))
	out.WriteString("\n\n")
	out.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	out.WriteString("\n\n")

	var rows []string
	if m.pane == paneChannels {
		rows = m.channelRows()
	} else {
		rows = m.eventRows()
	}
	out.WriteString(m.window(rows))

	out.WriteString("\n\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	} else {
		out.WriteString(dimStyle.Render("tab:pane  j/k:move  ?:help  q:quit"))
	}
	return out.String()
}

// window returns the rows around the cursor that fit on screen
func (m Model) window(rows []string) string {
	if len(rows) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("  (empty)")
	}
	size := m.pageSize()
	cur := m.cursor[m.pane]
	start := max(0, min(cur-size/2, len(rows)-size))
	end := min(start+size, len(rows))

	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	var lines []string
	for i := start; i < end; i++ {
		mark := "  "
		if i == cur {
			mark = cursorStyle.Render(string(m.Theme.Symbols.Cursor)) + " "
		}
		lines = append(lines, mark+rows[i])
	}
	return strings.Join(lines, "\n")
}

func (m Model) channelRows() []string {
	sym := m.Theme.Symbols
	rows := make([]string, 0, len(m.Song.Channels))
	for _, ch := range m.Song.Channels {
		chid := lipgloss.NewStyle().Foreground(m.Theme.Chid(ch.Chid)).Render(fmt.Sprintf("%3d", ch.Chid))
		post := ""
		if stages, err := eau.ParsePost(ch.Post); err == nil && len(stages) > 0 {
			names := make([]string, len(stages))
			for i, s := range stages {
				names[i] = eau.StageNames[s.ID]
				if names[i] == "" {
					names[i] = fmt.Sprintf("stage%d", s.ID)
				}
			}
			post = " post:" + strings.Join(names, ",")
		}
		rows = append(rows, fmt.Sprintf("%s %-8s trim %s pan %s  cfg %3dB%s  %s",
			chid, ch.Mode,
			widgets.RenderBar(ch.Trim, 8, sym.Filled, sym.Blank, m.Theme.Active()),
			widgets.RenderPan(ch.Pan, 9),
			len(ch.Config), post, m.Song.Name(ch.Chid, 0)))
	}
	return rows
}

func (m Model) eventRows() []string {
	sym := m.Theme.Symbols
	rows := make([]string, 0, len(m.events))
	for _, r := range m.events {
		at := widgets.FormatMillis(r.at)
		ev := r.ev
		var line string
		switch ev.Type {
		case eau.EventDelay:
			line = fmt.Sprintf("%s %c delay %d", at, sym.Delay, ev.Delay)
		case eau.EventLoop:
			line = lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(fmt.Sprintf("%s %c loop", at, sym.Loop))
		case eau.EventNote:
			name := m.Song.Name(ev.Chid, ev.Noteid)
			line = fmt.Sprintf("%s %c %3d note %3d vel %3d dur %5d  %s", at, sym.Note, ev.Chid, ev.Noteid, ev.Velocity, ev.Duration, name)
		case eau.EventWheel:
			line = fmt.Sprintf("%s %c %3d wheel 0x%02x", at, sym.Wheel, ev.Chid, ev.Wheel)
		}
		rows = append(rows, line)
	}
	return rows
}
