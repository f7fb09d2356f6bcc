// Package tally is a small counter board built on the mvc dispatch core. Input
// lines drive the controller, the model keeps named counters and the view draws
// the board with lipgloss.
package tally

import (
	"io"

	"github.com/zjrosen/triad/internal/cachemanager"
	"github.com/zjrosen/triad/internal/mvc"
)

// Input is one raw script line; it is the controller's command type.
type Input string

// IntentOp is what an input line asks for.
type IntentOp int

const (
	IntentAdd IntentOp = iota + 1
	IntentSub
	IntentReset
	IntentShow
	IntentInvalid
)

// Intent is the controller's notification to the model.
type Intent struct {
	Op     IntentOp
	Name   string
	N      int
	Quiet  bool
	Reason string // IntentInvalid only
}

// CommandOp is a model operation.
type CommandOp int

const (
	CmdAdjust CommandOp = iota + 1
	CmdReset
	CmdShow
	CmdReject
	CmdFlush
)

// Command is the model's command type.
type Command struct {
	Op     CommandOp
	Name   string
	Delta  int
	Quiet  bool
	Reason string
}

// NoteKind distinguishes model notifications.
type NoteKind int

const (
	NoteBoard NoteKind = iota + 1
	NoteError
)

// Note is the model's notification to the view.
type Note struct {
	Kind    NoteKind
	Rows    []Row
	Message string
}

// Row is one named counter.
type Row struct {
	Name  string
	Count int
}

// Paint is the view's command type. Exactly one of Rows or Error is meaningful.
type Paint struct {
	Rows  []Row
	Error string
}

// Frame is the output parameter for SyncOutputWithParameter: the view renders the
// current board into Text using Width and Plain.
type Frame struct {
	Width int
	Plain bool
	Text  string
}

type (
	System          = mvc.System[Command, Note, Paint, Input, Intent, io.Writer, Frame]
	ModelToken      = mvc.ModelToken[Command, Note, Paint, Input, Intent, io.Writer, Frame]
	ViewToken       = mvc.ViewToken[Command, Note, Paint, Input, Intent, io.Writer, Frame]
	ControllerToken = mvc.ControllerToken[Command, Note, Paint, Input, Intent, io.Writer, Frame]
	ModelRole       = mvc.Model[Command, Note, Paint, Input, Intent, io.Writer, Frame]
)

// Options configures a tally System.
type Options struct {
	Width int
	Plain bool
	// ForceColor renders ANSI colors even when the target is not a terminal.
	ForceColor bool
	// Cache reuses rendered boards. It may be shared between Systems.
	Cache cachemanager.CacheManager[string, string]
}

// New builds a tally System writing to nothing until RedirectOutputTarget is called.
func New(opts Options, sysOpts ...mvc.Option) *System {
	return mvc.NewSystem[Command, Note, Paint, Input, Intent, io.Writer, Frame](
		NewModel(), NewView(opts), &Controller{}, sysOpts...,
	)
}
