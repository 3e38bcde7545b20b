package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var nan = math.NaN()

const (
	sideW   = 32
	minMain = 30
)

func (a *App) View() string {
	width, height := a.width, a.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 30
	}

	side := lipgloss.JoinVertical(lipgloss.Left,
		a.pane(paneDatasets, a.datasetsView()),
		a.pane(paneTree, a.treeView()),
	)
	mainW := max(width-lipgloss.Width(side)-4, minMain)
	chartH := max(height-12, 4)
	main := lipgloss.JoinVertical(lipgloss.Left,
		a.pane(-1, a.chartView(mainW, chartH)),
		a.pane(paneWindow, a.windowView(mainW)),
		a.pane(paneOffset, a.fieldsView()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusView(), a.helpView())
}

func (a *App) pane(p pane, content string) string {
	style := paneStyle
	if p == a.focus || (p == paneOffset && a.focus == paneLimit) {
		style = focusedPaneStyle
	}
	return style.Render(content)
}

func (a *App) datasetsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Datasets"))
	datasets := a.viewer.Datasets()
	if len(datasets) == 0 {
		b.WriteString("\n" + dimStyle.Render("(none)"))
	}
	current, _ := a.viewer.Current()
	for i, ds := range datasets {
		name := ds.Name
		if name == "" {
			name = ds.ID
		}
		name = truncate(name, sideW-4)
		marker := "  "
		if ds.ID == current.ID {
			marker = "▸ "
		}
		row := marker + name
		if i == a.dsCursor && a.focus == paneDatasets {
			row = cursorStyle.Render(row)
		}
		b.WriteString("\n" + row)
	}
	return lipgloss.NewStyle().Width(sideW).Render(b.String())
}

func (a *App) treeView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Columns"))
	nodes := a.treeNodes()
	if len(nodes) == 0 {
		b.WriteString("\n" + dimStyle.Render("open a dataset"))
	}
	for i, n := range nodes {
		box := "[ ]"
		if a.selected(n.id) {
			box = "[x]"
		}
		indent := "  "
		if n.group {
			indent = ""
		}
		label := truncate(n.label, sideW-8)
		if c, ok := a.viewer.Color(n.id); ok && !n.group && a.selected(n.id) {
			label = c.Style().Render(label)
		}
		row := indent + box + " " + label
		if i == a.treeCursor && a.focus == paneTree {
			row = cursorStyle.Render(indent+box+" ") + label
		}
		b.WriteString("\n" + row)
	}
	return lipgloss.NewStyle().Width(sideW).Render(b.String())
}

func (a *App) chartView(width, height int) string {
	ds, ok := a.viewer.Current()
	if !ok {
		return lipgloss.NewStyle().Width(width).Height(height).Render(dimStyle.Render("no dataset open"))
	}
	n, lines := a.chartLines()
	a.chart.Resize(width, height-1)
	a.chart.SetLines(n, lines)

	var legend []string
	for _, id := range a.viewer.Selection().Plot {
		if c, ok := a.viewer.Color(id); ok {
			legend = append(legend, c.Style().Render("━ "+id))
		}
	}
	if f, ok := a.viewer.Forecast(); ok {
		legend = append(legend, bandStyle.Render("┄ "+f.SeriesID+" forecast"))
	}
	title := titleStyle.Render(ds.Name) + "  " + strings.Join(legend, "  ")
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.NewStyle().MaxWidth(width).Render(title), a.chart.View())
}

// windowView draws the row window as a bar over [0, Max].
func (a *App) windowView(width int) string {
	st := a.viewer.Window()
	label := fmt.Sprintf("rows [%d, %d)", st.Lower, st.Upper)
	if st.Max > 0 {
		label += fmt.Sprintf(" of %d", st.Max)
	}
	if st.Dirty() {
		label += dimStyle.Render("  enter to commit")
	}
	barW := max(width-2, 1)
	if st.Max <= 0 {
		return label
	}
	lo := st.Lower * barW / st.Max
	hi := max(st.Upper*barW/st.Max, lo+1)
	hi = min(hi, barW)
	bar := dimStyle.Render(strings.Repeat("─", lo)) +
		windowOnStyle.Render(strings.Repeat("█", hi-lo)) +
		dimStyle.Render(strings.Repeat("─", barW-hi))
	return lipgloss.JoinVertical(lipgloss.Left, label, bar)
}

func (a *App) fieldsView() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, a.offset.View(), "   ", a.limit.View())
}

func (a *App) statusView() string {
	if a.pendingDelete != "" {
		return alertStyle.Render(fmt.Sprintf("delete dataset %s? (y/n)", a.pendingDelete))
	}
	var parts []string
	if msg := a.viewer.Alert(); msg != "" {
		parts = append(parts, alertStyle.Render(msg))
	}
	if err := a.viewer.CatalogErr(); err != nil {
		parts = append(parts, errorStyle.Render("catalog: "+err.Error()))
	}
	if ds, ok := a.viewer.Current(); ok {
		if err := a.viewer.Err(ds.ID); err != nil {
			parts = append(parts, errorStyle.Render(err.Error()))
		}
	}
	if a.status != "" {
		parts = append(parts, errorStyle.Render(a.status))
	}
	switch {
	case a.viewer.CatalogLoading():
		parts = append(parts, statusStyle.Render("loading datasets…"))
	case a.viewer.Loading():
		parts = append(parts, statusStyle.Render("loading…"))
	case a.viewer.ForecastLoading():
		parts = append(parts, statusStyle.Render("forecasting…"))
	}
	if len(parts) == 0 {
		return statusStyle.Render("ready")
	}
	return strings.Join(parts, "  ")
}

func (a *App) helpView() string {
	k := a.keys
	bindings := []key.Binding{k.NextPane, k.Refresh, k.Forecast, k.Quit}
	switch a.focus {
	case paneDatasets:
		bindings = append([]key.Binding{k.Open, k.Delete}, bindings...)
	case paneTree:
		bindings = append([]key.Binding{k.Toggle}, bindings...)
	case paneWindow:
		bindings = append([]key.Binding{k.Left, k.Shrink, k.Commit}, bindings...)
	}
	return a.help.ShortHelpView(bindings)
}

func truncate(s string, n int) string {
	if n <= 0 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
