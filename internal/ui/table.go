package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RoomInfo is what a participant needs to share to be joined.
type RoomInfo struct {
	Room     string
	Identity string
	Server   string
}

func (r RoomInfo) View() string {
	tbl := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Rows(
			[]string{IconRoom + " Room", BoldStyle.Foreground(Primary).Render(r.Room)},
			[]string{IconPeer + " You", r.Identity},
			[]string{IconWeb + " Server", MutedStyle.Render(r.Server)},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row%2 == 0 {
				return TableRowStyle
			}
			return TableRowAltStyle
		})

	return tbl.Render()
}

// CallSummary is the end-of-call report.
type CallSummary struct {
	Room           string
	Peer           string
	State          string
	Duration       time.Duration
	Offers         int
	Answers        int
	Renegotiations int
	Dropped        int
	CandidatesOut  int
	CandidatesIn   int
	RemoteTracks   int
	Transports     int
	Errors         int
}

// CallSummaryView renders the summary as a go-pretty table.
func CallSummaryView(title string, s CallSummary) string {
	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Room", s.Room},
		{"Peer", orDash(s.Peer)},
		{"Final state", s.State},
		{"Connected for", s.Duration.Round(time.Second).String()},
		{"Offers / answers", fmt.Sprintf("%d / %d", s.Offers, s.Answers)},
		{"Renegotiations", fmt.Sprintf("%d (dropped %d)", s.Renegotiations, s.Dropped)},
		{"ICE candidates out / in", fmt.Sprintf("%d / %d", s.CandidatesOut, s.CandidatesIn)},
		{"Remote tracks", s.RemoteTracks},
		{"Peer connections", s.Transports},
		{"Errors", s.Errors},
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: text.Colors{text.FgCyan}},
		{Number: 2, Align: text.AlignRight},
	})
	return t.Render()
}

func RenderCallSummary(title string, s CallSummary) {
	fmt.Println(CallSummaryView(title, s))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
