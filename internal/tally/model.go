package tally

import (
	"fmt"
	"slices"
)

// Model holds the named counters. Changes mark the board dirty and schedule one
// flush on the bottom frame, so a whole input line renders once.
type Model struct {
	counts map[string]int
	order  []string
	dirty  bool
}

// NewModel returns an empty board.
func NewModel() *Model {
	return &Model{counts: make(map[string]int)}
}

// TranslateControllerNotification maps intents to commands. Zero-sized
// adjustments are absorbed.
func (m *Model) TranslateControllerNotification(in Intent) (Command, bool) {
	switch in.Op {
	case IntentAdd, IntentSub:
		if in.N == 0 {
			return Command{}, false
		}
		delta := in.N
		if in.Op == IntentSub {
			delta = -delta
		}
		return Command{Op: CmdAdjust, Name: in.Name, Delta: delta, Quiet: in.Quiet}, true
	case IntentReset:
		return Command{Op: CmdReset, Name: in.Name, Quiet: in.Quiet}, true
	case IntentShow:
		return Command{Op: CmdShow}, true
	case IntentInvalid:
		return Command{Op: CmdReject, Reason: in.Reason}, true
	default:
		return Command{}, false
	}
}

// ProcessCommand applies one command.
func (m *Model) ProcessCommand(tok *ModelToken, cmd Command) {
	switch cmd.Op {
	case CmdAdjust:
		next := m.counts[cmd.Name] + cmd.Delta
		if next < 0 {
			tok.UpdateViewNow(Note{Kind: NoteError, Message: fmt.Sprintf("%s cannot go below zero", cmd.Name)})
			return
		}
		if _, ok := m.counts[cmd.Name]; !ok {
			m.order = append(m.order, cmd.Name)
		}
		m.counts[cmd.Name] = next
		if !cmd.Quiet {
			m.markDirty(tok)
		}

	case CmdReset:
		if _, ok := m.counts[cmd.Name]; !ok {
			tok.UpdateViewNow(Note{Kind: NoteError, Message: fmt.Sprintf("no counter named %s", cmd.Name)})
			return
		}
		m.counts[cmd.Name] = 0
		if !cmd.Quiet {
			m.markDirty(tok)
		}

	case CmdShow:
		m.markDirty(tok)

	case CmdReject:
		tok.UpdateViewNow(Note{Kind: NoteError, Message: cmd.Reason})

	case CmdFlush:
		m.dirty = false
		tok.UpdateViewNow(Note{Kind: NoteBoard, Rows: m.Rows()})
	}
}

func (m *Model) markDirty(tok *ModelToken) {
	if m.dirty {
		return
	}
	m.dirty = true
	tok.ExecCommandLater(Command{Op: CmdFlush})
}

// Rows returns the counters in creation order.
func (m *Model) Rows() []Row {
	rows := make([]Row, 0, len(m.order))
	for _, name := range m.order {
		rows = append(rows, Row{Name: name, Count: m.counts[name]})
	}
	return rows
}

// Count returns a single counter.
func (m *Model) Count(name string) int {
	return m.counts[name]
}

// Names returns the counter names sorted alphabetically.
func (m *Model) Names() []string {
	names := slices.Clone(m.order)
	slices.Sort(names)
	return names
}
