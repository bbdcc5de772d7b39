package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wirebind/wirebind/conformance"
	"github.com/wirebind/wirebind/shape"
	"github.com/wirebind/wirebind/shapefile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	shapeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectModel struct {
	err      error
	filename string
	result   string
	items    []itemInfo
	depth    textinput.Model
	selected int
	state    modelState
}

type itemInfo struct {
	kase    *conformance.Case
	def     *shape.Shape
	name    string
	summary string
}

type modelState int

const (
	stateSelect modelState = iota
	stateProbe
	stateShowResult
)

func newInspectModel(filename string) *inspectModel {
	return &inspectModel{filename: filename, state: stateSelect}
}

type loadedMsg struct {
	err   error
	items []itemInfo
}

type probeMsg struct {
	err    error
	result string
}

func (m *inspectModel) Init() tea.Cmd {
	return m.loadItems
}

func (m *inspectModel) loadItems() tea.Msg {
	if m.filename == "" {
		cases := conformance.Corpus()
		items := make([]itemInfo, len(cases))
		for i := range cases {
			c := &cases[i]
			items[i] = itemInfo{
				kase:    c,
				name:    c.Name,
				summary: fmt.Sprintf("depth %d, %d bytes", c.Depth, len(c.Wire)),
			}
		}
		return loadedMsg{items: items}
	}

	shapes, err := shapefile.LoadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]itemInfo, len(names))
	for i, name := range names {
		items[i] = itemInfo{
			def:     shapes[name],
			name:    name,
			summary: shapes[name].String(),
		}
	}
	return loadedMsg{items: items}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(m.items)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if len(m.items) == 0 {
					break
				}
				it := m.items[m.selected]
				if it.kase == nil {
					m.result = describeShape(it.name, it.def)
					m.state = stateShowResult
					break
				}
				m.prepareProbe(*it.kase)
				m.state = stateProbe

			case stateProbe:
				return m, m.probeCase

			case stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateProbe:
				m.state = stateSelect
			case stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = msg.items

	case probeMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateProbe {
		var cmd tea.Cmd
		m.depth, cmd = m.depth.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *inspectModel) prepareProbe(c conformance.Case) {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(int(c.Depth))
	ti.Prompt = "depth: "
	ti.Width = 8
	ti.Focus()
	m.depth = ti
}

// probeCase runs the selected corpus case at the chosen depth allowance,
// so going below the recorded depth shows the codec's depth error.
func (m *inspectModel) probeCase() tea.Msg {
	c := *m.items[m.selected].kase

	depth := c.Depth
	if v := strings.TrimSpace(m.depth.Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 255 {
			return probeMsg{err: fmt.Errorf("depth %q is not in 0..255", v)}
		}
		depth = uint8(n)
	}

	wire, err := roundTripCase(c, depth)
	if err != nil {
		return probeMsg{err: err}
	}
	return probeMsg{result: fmt.Sprintf("round trip ok at depth %d\n\n%d bytes: % x", depth, len(wire), wire)}
}

func (m *inspectModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.items) == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Wirebind Inspector"))
	b.WriteString(" ")
	if m.filename != "" {
		b.WriteString(m.filename)
	} else {
		b.WriteString("conformance corpus")
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		b.WriteString("Select an entry to inspect:\n\n")
		for i, it := range m.items {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatItem(it)))
			} else {
				b.WriteString(cursor + m.formatItem(it))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateProbe:
		it := m.items[m.selected]
		b.WriteString(fmt.Sprintf("Probing %s\n\n", nameStyle.Render(it.name)))
		b.WriteString(m.depth.View())
		b.WriteString(" ")
		b.WriteString(shapeStyle.Render(fmt.Sprintf("recorded depth %d", it.kase.Depth)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter probe • esc back"))

	case stateShowResult:
		it := m.items[m.selected]
		b.WriteString(fmt.Sprintf("Result for %s:\n\n", nameStyle.Render(it.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *inspectModel) formatItem(it itemInfo) string {
	return nameStyle.Render(it.name) + "  " + shapeStyle.Render(it.summary)
}

func runInteractive(shapesFile string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newInspectModel(shapesFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
