package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/sokinpui/hatch/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	PromptColor  = color.New(color.FgMagenta)
	LangColor    = color.New(color.FgMagenta, color.Bold)
	CodeColor    = color.New(color.FgGreen)
	UserColor    = color.New(color.FgBlue, color.Bold)
	BotColor     = color.New(color.FgGreen, color.Bold)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

// --- Summaries ---

// PrintSummary prints the created, modified and failed files of an
// operation under title.
func PrintSummary(title string, s model.Summary) {
	Header("\n--- %s ---", title)

	if len(s.Created) == 0 && len(s.Modified) == 0 && len(s.Failed) == 0 {
		Info("No files were written.")
	}
	if len(s.Modified) > 0 {
		Success("Modified %d file(s):", len(s.Modified))
		for _, f := range s.Modified {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(s.Created) > 0 {
		Success("Created %d new file(s):", len(s.Created))
		for _, f := range s.Created {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(s.Failed) > 0 {
		Error("Failed to write %d file(s):", len(s.Failed))
		for _, f := range s.Failed {
			fmt.Printf("  - %s\n", f)
		}
	}
	if s.Message != "" {
		Info("%s", s.Message)
	}
}

// PrintSegments writes parsed reply segments to w, code blocks framed by
// their language.
func PrintSegments(w io.Writer, segments []model.Segment) {
	for i, seg := range segments {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if seg.Kind == model.SegmentText {
			fmt.Fprintln(w, seg.Content)
			continue
		}
		LangColor.Fprintf(w, "┌─ %s\n", seg.Language)
		for _, line := range strings.Split(seg.Content, "\n") {
			fmt.Fprint(w, "│ ")
			CodeColor.Fprintln(w, line)
		}
		LangColor.Fprintln(w, "└─")
	}
}

// PrintMessage writes one chat turn.
func PrintMessage(w io.Writer, m model.ChatMessage) {
	label, c := "you", UserColor
	if m.Role == model.RoleAssistant {
		label, c = "hatch", BotColor
	}
	c.Fprintf(w, "%s ", label)
	fmt.Fprintf(w, "(%s)\n", humanize.Time(m.Timestamp))
	fmt.Fprintln(w, m.Content)
}

// Size formats a byte count for display.
func Size(n int) string {
	return humanize.Bytes(uint64(n))
}

// --- Progress Bar ---

type ProgressBar struct {
	bar *progressbar.ProgressBar
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(prefix),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current int) {
	_ = p.bar.Set(current)
}

func (p *ProgressBar) Finish() {
	_ = p.bar.Finish()
	fmt.Fprintln(os.Stderr)
}
