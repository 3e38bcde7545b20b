package tsview

import tea "github.com/charmbracelet/bubbletea"

// Drain runs cmd, and every command that follows from it, on the calling
// goroutine until none remain. Each resulting message goes through Update.
// It is how headless callers drive a Viewer without a tea.Program.
func (v *Viewer) Drain(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, v.Update(msg))
		}
	}
}
