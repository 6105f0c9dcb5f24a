package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusUI shows live call progress. Its methods match call.Observer and
// never block.
type StatusUI struct {
	program    *tea.Program
	model      *statusModel
	updateChan chan statusUpdate
	wg         sync.WaitGroup
	opts       []tea.ProgramOption
}

type statusUpdate struct {
	state     string
	peer      string
	track     string
	err       error
	line      string
	connected bool
}

// TickMsg refreshes the elapsed-time display.
type TickMsg time.Time

type statusModel struct {
	room       string
	identity   string
	peer       string
	state      string
	tracks     []string
	lines      []string
	lastErr    string
	connected  time.Time
	spinner    spinner.Model
	updateChan chan statusUpdate
	onQuit     func()
	quitting   bool
}

const maxStatusLines = 6

// NewStatusUI creates the live view. onQuit runs when the user presses q.
func NewStatusUI(room, identity string, onQuit func(), opts ...tea.ProgramOption) *StatusUI {
	updateChan := make(chan statusUpdate, 100)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &StatusUI{
		model: &statusModel{
			room:       room,
			identity:   identity,
			state:      "Joining room...",
			spinner:    s,
			updateChan: updateChan,
			onQuit:     onQuit,
		},
		updateChan: updateChan,
		opts:       opts,
	}
}

// Start runs the UI in a goroutine.
func (ui *StatusUI) Start() {
	ui.program = tea.NewProgram(ui.model, ui.opts...)
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		if _, err := ui.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Stop quits the UI and waits for it to restore the terminal.
func (ui *StatusUI) Stop() {
	if ui.program != nil {
		ui.program.Quit()
	}
	ui.wg.Wait()
}

func (ui *StatusUI) push(u statusUpdate) {
	select {
	case ui.updateChan <- u:
	default:
	}
}

func (ui *StatusUI) Joined(room, identity string) {
	ui.push(statusUpdate{state: "Waiting for a peer...", line: fmt.Sprintf("%s Joined %s as %s", IconRoom, room, identity)})
}

func (ui *StatusUI) PeerJoined(identity, connectionID string) {
	ui.push(statusUpdate{peer: identity, line: fmt.Sprintf("%s %s is here", IconPeer, identity)})
}

func (ui *StatusUI) Calling(peer string) {
	ui.push(statusUpdate{state: "Calling " + peer + "...", line: fmt.Sprintf("%s Calling %s", IconCall, peer)})
}

func (ui *StatusUI) IncomingCall(peer string) {
	ui.push(statusUpdate{state: "Answering " + peer + "...", line: fmt.Sprintf("%s Incoming call from %s", IconCall, peer)})
}

func (ui *StatusUI) Connected(peer string) {
	ui.push(statusUpdate{connected: true, state: "In call with " + peer, line: fmt.Sprintf("%s Connected to %s", IconConnect, peer)})
}

func (ui *StatusUI) StateChanged(state string) {
	ui.push(statusUpdate{line: MutedStyle.Render("peer connection " + state)})
}

func (ui *StatusUI) RemoteTrack(kind, codec string) {
	icon := IconAudio
	if kind == "video" {
		icon = IconVideo
	}
	ui.push(statusUpdate{track: fmt.Sprintf("%s %s (%s)", icon, kind, codec)})
}

func (ui *StatusUI) Error(err error) {
	ui.push(statusUpdate{err: err})
}

// Model methods
func (m *statusModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.listenForUpdates(),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) }),
	)
}

func (m *statusModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updateChan
	}
}

func (m *statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if !m.quitting {
			cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) }))
		}

	case statusUpdate:
		m.apply(msg)
		cmds = append(cmds, m.listenForUpdates())
	}

	return m, tea.Batch(cmds...)
}

func (m *statusModel) apply(u statusUpdate) {
	if u.state != "" {
		m.state = u.state
	}
	if u.peer != "" {
		m.peer = u.peer
	}
	if u.track != "" {
		m.tracks = append(m.tracks, u.track)
	}
	if u.err != nil {
		m.lastErr = u.err.Error()
	}
	if u.connected && m.connected.IsZero() {
		m.connected = time.Now()
	}
	if u.line != "" {
		m.lines = append(m.lines, u.line)
		if len(m.lines) > maxStatusLines {
			m.lines = m.lines[len(m.lines)-maxStatusLines:]
		}
	}
}

func (m *statusModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n%s %s\n\n", StatusStyle.Render("videocall"), TitleStyle.UnsetMarginBottom().Render(m.room)))
	b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.state))
	if !m.connected.IsZero() {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %s", time.Since(m.connected).Round(time.Second))))
	}
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString("  " + line + "\n")
	}

	if len(m.tracks) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Receiving:") + "\n")
		for _, t := range m.tracks {
			b.WriteString("  " + t + "\n")
		}
	}

	if m.lastErr != "" {
		b.WriteString("\n" + ErrorStyle.Render(IconError+" "+m.lastErr) + "\n")
	}

	b.WriteString("\n" + MutedStyle.Render("Press q to hang up"))
	return b.String()
}
