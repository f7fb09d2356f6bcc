package testutil

import (
	"testing"

	"github.com/zjrosen/triad/internal/mvc"
)

// Builder scripts role reactions and assembles a System around recording roles.
type Builder struct {
	t          *testing.T
	journal    *Journal
	model      *Model
	view       *View
	controller *Controller
	opts       []mvc.Option
}

// NewBuilder creates a builder whose roles translate every notification with Identity.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	j := &Journal{}
	return &Builder{
		t:       t,
		journal: j,
		model: &Model{
			journal:   j,
			handlers:  make(map[string]func(*ModelToken)),
			translate: Identity,
		},
		view: &View{
			journal:   j,
			handlers:  make(map[string]func(*ViewToken)),
			translate: Identity,
		},
		controller: &Controller{
			journal:  j,
			handlers: make(map[string]func(*ControllerToken)),
		},
	}
}

// OnModel scripts the model's reaction to cmd.
func (b *Builder) OnModel(cmd string, fn func(tok *ModelToken)) *Builder {
	b.model.handlers[cmd] = fn
	return b
}

// OnView scripts the view's reaction to cmd.
func (b *Builder) OnView(cmd string, fn func(tok *ViewToken)) *Builder {
	b.view.handlers[cmd] = fn
	return b
}

// OnController scripts the controller's reaction to cmd.
func (b *Builder) OnController(cmd string, fn func(tok *ControllerToken)) *Builder {
	b.controller.handlers[cmd] = fn
	return b
}

// ModelTranslator replaces the model's controller-notification translator.
func (b *Builder) ModelTranslator(fn Translator) *Builder {
	b.model.translate = fn
	return b
}

// ViewTranslator replaces the view's model-notification translator.
func (b *Builder) ViewTranslator(fn Translator) *Builder {
	b.view.translate = fn
	return b
}

// WithOptions adds System options.
func (b *Builder) WithOptions(opts ...mvc.Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build assembles the System.
func (b *Builder) Build() (*System, *Journal) {
	b.t.Helper()
	sys := mvc.NewSystem[string, string, string, string, string, string, string](
		b.model, b.view, b.controller, b.opts...,
	)
	return sys, b.journal
}

// View returns the recording view, for inspecting its output target.
func (b *Builder) View() *View {
	return b.view
}
