package tally

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zjrosen/triad/internal/cachemanager"
	"github.com/zjrosen/triad/internal/log"
)

// View draws paints to its output target. With no target, paints are dropped.
type View struct {
	out        io.Writer
	renderer   *lipgloss.Renderer
	styles     styles
	boards     *cachemanager.ReadThroughCache[string, string, boardInput]
	width      int
	plain      bool
	forceColor bool
	paints     int
}

type boardInput struct {
	rows  []Row
	width int
	st    styles
}

// NewView creates a view with no output target.
func NewView(opts Options) *View {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	v := &View{width: width, plain: opts.Plain, forceColor: opts.ForceColor}
	v.boards = cachemanager.NewReadThroughCache[string, string, boardInput](opts.Cache, func(_ context.Context, in boardInput) (string, error) {
		return renderBoard(in.rows, in.width, in.st), nil
	}, false)
	v.setRenderer(io.Discard)
	return v
}

func (v *View) setRenderer(w io.Writer) {
	v.renderer = newRenderer(w, v.plain, v.forceColor)
	v.styles = newStyles(v.renderer)
}

// TranslateModelNotification turns board snapshots and errors into paints. Empty
// error notes are absorbed.
func (v *View) TranslateModelNotification(n Note) (Paint, bool) {
	switch n.Kind {
	case NoteBoard:
		return Paint{Rows: n.Rows}, true
	case NoteError:
		if n.Message == "" {
			return Paint{}, false
		}
		return Paint{Error: n.Message}, true
	default:
		return Paint{}, false
	}
}

// ProcessCommand writes one paint.
func (v *View) ProcessCommand(tok *ViewToken, p Paint) {
	if v.out == nil {
		log.Debug(log.CatTally, "no output target, dropping paint")
		return
	}

	var text string
	if p.Error != "" {
		text = renderError(p.Error, v.styles)
	} else {
		var ok bool
		if text, ok = v.board(tok.Context(), p.Rows, v.width, v.renderer.ColorProfile(), v.styles); !ok {
			return
		}
	}
	if _, err := io.WriteString(v.out, text); err != nil {
		log.ErrorErr(log.CatTally, "writing paint", err)
		return
	}
	v.paints++
}

// RedirectOutputTarget switches the writer paints go to. The color profile is
// detected from the new writer unless plain or forced.
func (v *View) RedirectOutputTarget(w io.Writer, ok bool) {
	if !ok || w == nil {
		v.out = nil
		v.setRenderer(io.Discard)
		return
	}
	v.out = w
	v.setRenderer(w)
}

// SyncOutputWithParameter renders the model's current board into f.Text without
// touching the output target.
func (v *View) SyncOutputWithParameter(model ModelRole, f *Frame) {
	m, ok := model.(*Model)
	if !ok {
		return
	}
	width := f.Width
	if width <= 0 {
		width = v.width
	}
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(v.renderer.ColorProfile())
	if f.Plain {
		r = newRenderer(io.Discard, true, false)
	}
	f.Text, _ = v.board(context.Background(), m.Rows(), width, r.ColorProfile(), newStyles(r))
}

func (v *View) board(ctx context.Context, rows []Row, width int, profile termenv.Profile, st styles) (string, bool) {
	text, err := v.boards.Get(ctx, boardKey(rows, width, profile), boardInput{rows: rows, width: width, st: st}, 0)
	if err != nil {
		log.ErrorErr(log.CatTally, "rendering board", err, "rows", len(rows))
		return "", false
	}
	return text, true
}

// boardKey identifies a rendered board by everything that affects its text.
func boardKey(rows []Row, width int, profile termenv.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d", profile, width)
	for _, r := range rows {
		fmt.Fprintf(&b, "|%q=%d", r.Name, r.Count)
	}
	return b.String()
}

// Paints returns how many paints reached the output target.
func (v *View) Paints() int {
	return v.paints
}
