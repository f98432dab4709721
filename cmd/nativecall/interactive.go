package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
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

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	lib      *runtime.Library
	manifest string
	libPath  string
	srcPath  string
	result   string
	symbols  []symbolInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type symbolInfo struct {
	name string
	sig  abi.Signature
}

type modelState int

const (
	stateSelectSymbol modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(manifest, libPath, srcPath string) *interactiveModel {
	return &interactiveModel{
		manifest: manifest,
		libPath:  libPath,
		srcPath:  srcPath,
		state:    stateSelectSymbol,
	}
}

type loadedMsg struct {
	err     error
	rt      *runtime.Runtime
	lib     *runtime.Library
	symbols []symbolInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadLibrary
}

func (m *interactiveModel) loadLibrary() tea.Msg {
	req, err := loadManifest(m.manifest, m.libPath, m.srcPath)
	if err != nil {
		return loadedMsg{err: err}
	}

	rt := runtime.New(runtime.Config{})
	lib, err := rt.Load(req)
	if err != nil {
		rt.Close()
		return loadedMsg{err: err}
	}

	defs := lib.Definitions()
	var symbols []symbolInfo
	for _, name := range sortedNames(defs) {
		symbols = append(symbols, symbolInfo{name: name, sig: defs[name]})
	}

	return loadedMsg{rt: rt, lib: lib, symbols: symbols}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.lib != nil {
				m.lib.Close()
			}
			if m.rt != nil {
				m.rt.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectSymbol && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectSymbol && m.selected < len(m.symbols)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectSymbol:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callSymbol
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callSymbol

			case stateShowResult:
				m.state = stateSelectSymbol
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectSymbol
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectSymbol
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.lib = msg.lib
		m.symbols = msg.symbols

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	s := m.symbols[m.selected]
	m.inputs = make([]textinput.Model, len(s.sig.Args))
	for i, t := range s.sig.Args {
		ti := textinput.New()
		ti.Placeholder = t.String()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callSymbol() tea.Msg {
	s := m.symbols[m.selected]

	args := make([]abi.Value, len(m.inputs))
	var boxed []abi.Value
	for i, input := range m.inputs {
		v, err := parseValue(strings.TrimSpace(input.Value()), s.sig.Args[i])
		if err != nil {
			return callResultMsg{err: fmt.Errorf("argument %d: %w", i, err)}
		}
		args[i] = v
		if v.IsCell() {
			boxed = append(boxed, v)
		}
	}

	out, err := m.lib.Call(s.name, args...)
	for _, v := range boxed {
		runtime.ReleaseBoxed(v)
	}
	if err != nil {
		return callResultMsg{err: err}
	}

	return callResultMsg{result: formatResult(out, s.sig.Returns)}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.symbols) == 0 {
		return "Loading library..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Native Call"))
	b.WriteString(" ")
	b.WriteString(m.manifest)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSymbol:
		b.WriteString("Select a symbol to call:\n\n")
		for i, s := range m.symbols {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatSymbol(s)))
			} else {
				b.WriteString(cursor + m.formatSymbol(s))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		s := m.symbols[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(s.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(s.sig.Args[i].String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		s := m.symbols[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(s.name)))
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

func (m *interactiveModel) formatSymbol(s symbolInfo) string {
	parts := make([]string, len(s.sig.Args))
	for i, a := range s.sig.Args {
		parts[i] = typeStyle.Render(a.String())
	}
	out := funcStyle.Render(s.name) + "(" + strings.Join(parts, ", ") + ")"
	if s.sig.Returns != abi.Void {
		out += " -> " + typeStyle.Render(s.sig.Returns.String())
	}
	return out
}

func runInteractive(manifest, libPath, srcPath string) error {
	p := tea.NewProgram(newInteractiveModel(manifest, libPath, srcPath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
