// Package console prints search sessions to a terminal, as styled text or Markdown.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nao1215/markdown"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// Format selects the printer output.
type Format string

const (
	// FormatText prints styled plain text.
	FormatText Format = "text"
	// FormatMarkdown prints a Markdown document with a results table.
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or markdown): %w", s, domain.ErrValidation)
	}
}

type styles struct {
	title  lipgloss.Style
	index  lipgloss.Style
	link   lipgloss.Style
	stats  lipgloss.Style
	muted  lipgloss.Style
	info   lipgloss.Style
	errMsg lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		index:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")),
		link:   r.NewStyle().Underline(true).Foreground(lipgloss.Color("#10B981")),
		stats:  r.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("#6C7086")),
		muted:  r.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C7086")),
		info:   r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		errMsg: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
	}
}

// Printer writes gallery views and notices.
type Printer struct {
	out    io.Writer
	format Format
	styles styles
}

// NewPrinter creates a Printer. Colors are dropped when out is not a terminal.
func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{
		out:    out,
		format: format,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Print writes the visible gallery of st followed by notices.
func (p *Printer) Print(st sessionuc.State, notices []sessionuc.Notice) error {
	if p.format == FormatMarkdown {
		return p.printMarkdown(st, notices)
	}
	return p.printText(st, notices)
}

func (p *Printer) printText(st sessionuc.State, notices []sessionuc.Notice) error {
	var b strings.Builder

	if st.Term != "" {
		b.WriteString(p.styles.title.Render(fmt.Sprintf("Results for %q", st.Term)))
		b.WriteString("\n")
		b.WriteString(p.styles.muted.Render(summary(st)))
		b.WriteString("\n\n")
	}

	for i, it := range st.Gallery.Items {
		fmt.Fprintf(&b, "%s %s by %s\n",
			p.styles.index.Render(fmt.Sprintf("%3d.", i+1)), it.Title, it.Owner)
		fmt.Fprintf(&b, "    %s\n", p.styles.link.Render(it.Link))
		b.WriteString(p.styles.stats.Render(statsLine(it.Stats)))
		b.WriteString("\n")
	}

	if a := st.Gallery.Affordance; a.Active() {
		b.WriteString("\n")
		b.WriteString(p.styles.muted.Render(fmt.Sprintf("%s: page %d", a.Label, a.NextPage)))
		b.WriteString("\n")
	}

	for _, n := range notices {
		style := p.styles.info
		if n.Level == sessionuc.LevelError {
			style = p.styles.errMsg
		}
		b.WriteString("\n")
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) printMarkdown(st sessionuc.State, notices []sessionuc.Notice) error {
	md := markdown.NewMarkdown(p.out)

	title := "Image search"
	if st.Term != "" {
		title = fmt.Sprintf("Results for %q", st.Term)
	}
	md.H1(title)
	md.PlainText("")
	md.PlainText(summary(st))
	md.PlainText("")

	if st.Gallery.Len() > 0 {
		header := []string{"#", "Image", "Owner"}
		for _, s := range st.Gallery.Items[0].Stats {
			header = append(header, s.Label)
		}
		rows := make([][]string, 0, st.Gallery.Len())
		for i, it := range st.Gallery.Items {
			row := []string{
				strconv.Itoa(i + 1),
				markdown.Link(escapeCell(it.Title), it.Link),
				escapeCell(it.Owner),
			}
			for _, s := range it.Stats {
				row = append(row, strconv.Itoa(s.Value))
			}
			rows = append(rows, row)
		}
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")
	}

	if a := st.Gallery.Affordance; a.Active() {
		md.PlainText(fmt.Sprintf("_%s: page %d_", a.Label, a.NextPage))
		md.PlainText("")
	}

	if len(notices) > 0 {
		md.H2("Notices")
		md.PlainText("")
		lines := make([]string, 0, len(notices))
		for _, n := range notices {
			lines = append(lines, fmt.Sprintf("**%s**: %s", n.Level, n.Message))
		}
		md.BulletList(lines...)
	}

	return md.Build()
}

func summary(st sessionuc.State) string {
	if st.Gallery.Len() == 0 {
		return "No images shown."
	}
	return fmt.Sprintf("Showing %d of %d images, page %d.", st.Gallery.Len(), st.TotalAvailable, st.Page)
}

func statsLine(stats []gallery.Stat) string {
	parts := make([]string, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, s.Label+" "+strconv.Itoa(s.Value))
	}
	return strings.Join(parts, " | ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
