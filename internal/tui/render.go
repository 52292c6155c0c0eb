package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

// renderExplorer draws the project tree with the current file highlighted.
func (m Model) renderExplorer(height int) string {
	st := m.app.Store()
	nodes, err := st.FileTree()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	if len(nodes) == 0 {
		return faintStyle.Render("No files yet")
	}

	var order []*model.FileNode
	tree.Walk(nodes, func(n *model.FileNode, _ int) { order = append(order, n) })
	lines := strings.Split(tree.Render(nodes), "\n")

	current, _ := st.CurrentFile()
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Files (%d)", st.FileCount())))
	for i, line := range lines {
		if i+1 >= height {
			b.WriteString("\n" + faintStyle.Render("…"))
			break
		}
		b.WriteString("\n")
		if i < len(order) && order[i].Path == current {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(pathStyle.Render(line))
		}
	}
	return b.String()
}

// renderPreview shows the current file, or the last assistant reply split
// into prose and code when no file is selected.
func (m Model) renderPreview(width int) string {
	st := m.app.Store()
	if path, ok := st.CurrentFile(); ok {
		content, _ := st.File(path)
		return renderFile(path, content)
	}
	if last, ok := st.LastMessage(model.RoleAssistant); ok {
		return renderSegments(parser.Segments(last.Content), width)
	}
	return faintStyle.Render("Hi! Tell me what you'd like to build.")
}

func renderFile(path, content string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(path))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %s", humanize.Bytes(uint64(len(content))))))
	b.WriteString("\n")
	for i, line := range strings.Split(content, "\n") {
		b.WriteString("\n")
		b.WriteString(lineNoStyle.Render(fmt.Sprint(i + 1)))
		b.WriteString(" ")
		b.WriteString(line)
	}
	return b.String()
}

// renderSegments lays out parsed reply segments. Code blocks tagged with
// the default language get no label.
func renderSegments(segments []model.Segment, width int) string {
	var parts []string
	for _, seg := range segments {
		if seg.Kind == model.SegmentText {
			parts = append(parts, lipgloss.NewStyle().Width(width).Render(seg.Content))
			continue
		}
		block := codeStyle.Width(width).Render(seg.Content)
		if seg.Language != parser.DefaultLanguage {
			block = langStyle.Render(seg.Language) + "\n" + block
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderChat(width int) string {
	msgs := m.app.Store().Messages()
	if len(msgs) == 0 {
		return faintStyle.Render("Hi! I'm your AI coding assistant.\nTell me what you'd like to build!")
	}
	body := lipgloss.NewStyle().Width(width)
	var parts []string
	for _, msg := range msgs {
		label := userStyle.Render("you")
		if msg.Role == model.RoleAssistant {
			label = botStyle.Render("hatch")
		}
		stamp := faintStyle.Render(msg.Timestamp.Local().Format("15:04"))
		parts = append(parts, label+" "+stamp+"\n"+body.Render(msg.Content))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderTerminal(height int) string {
	st := m.app.Store()
	title := "Terminal"
	if st.Running() {
		title += " (running)"
	}
	lines := st.TerminalOutput()
	if len(lines) > height-1 {
		lines = lines[len(lines)-(height-1):]
	}
	out := headerStyle.Render(title)
	if len(lines) > 0 {
		out += "\n" + strings.Join(lines, "\n")
	}
	return out
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Error: " + m.err.Error())
	case m.busy && !m.opts.NoAnimation:
		return fmt.Sprintf("%s %s", m.spinner.View(), m.status)
	case m.status != "":
		return successStyle.Render(m.status)
	default:
		return ""
	}
}
