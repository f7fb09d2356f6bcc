package tally

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

const (
	DefaultWidth = 40
	minNameWidth = 5 // len("total")
)

type styles struct {
	title lipgloss.Style
	name  lipgloss.Style
	count lipgloss.Style
	bar   lipgloss.Style
	rule  lipgloss.Style
	total lipgloss.Style
	err   lipgloss.Style
}

func newRenderer(w io.Writer, plain, forceColor bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch {
	case plain:
		r.SetColorProfile(termenv.Ascii)
	case forceColor:
		r.SetColorProfile(termenv.ANSI)
	}
	return r
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		name:  r.NewStyle().Foreground(lipgloss.Color("6")),
		count: r.NewStyle().Bold(true),
		bar:   r.NewStyle().Foreground(lipgloss.Color("2")),
		rule:  r.NewStyle().Faint(true),
		total: r.NewStyle().Bold(true),
		err:   r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// renderBoard draws one line per counter followed by a total. Names are padded by
// display width so wide runes stay aligned.
func renderBoard(rows []Row, width int, st styles) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	b.WriteString(st.title.Render("tally"))
	b.WriteByte('\n')
	if len(rows) == 0 {
		b.WriteString(st.rule.Render("(empty)"))
		b.WriteByte('\n')
		return b.String()
	}

	nameW, maxCount, total := minNameWidth, 0, 0
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.Name))
		maxCount = max(maxCount, r.Count)
		total += r.Count
	}
	nameW = min(nameW, max(width/3, minNameWidth))
	countW := len(fmt.Sprint(total))
	barW := max(width-nameW-countW-2, 0)

	for _, r := range rows {
		name := runewidth.FillRight(runewidth.Truncate(r.Name, nameW, "~"), nameW)
		b.WriteString(st.name.Render(name))
		b.WriteByte(' ')
		b.WriteString(st.count.Render(fmt.Sprintf("%*d", countW, r.Count)))
		if n := barLength(r.Count, maxCount, barW); n > 0 {
			b.WriteByte(' ')
			b.WriteString(st.bar.Render(strings.Repeat("█", n)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(st.rule.Render(strings.Repeat("─", nameW+1+countW)))
	b.WriteByte('\n')
	b.WriteString(st.total.Render(runewidth.FillRight("total", nameW)))
	b.WriteByte(' ')
	b.WriteString(st.total.Render(fmt.Sprintf("%*d", countW, total)))
	b.WriteByte('\n')
	return b.String()
}

// barLength scales count into at most width cells. Non-zero counts get at least one.
func barLength(count, maxCount, width int) int {
	if count <= 0 || width <= 0 {
		return 0
	}
	if maxCount <= width {
		return count
	}
	return max(count*width/maxCount, 1)
}

func renderError(msg string, st styles) string {
	return st.err.Render("error: "+msg) + "\n"
}
