// Package testutil provides scripted, recording roles for exercising the dispatch core.
package testutil

import (
	"github.com/zjrosen/triad/internal/mvc"
)

// Every message type in the harness is a string.
type (
	System          = mvc.System[string, string, string, string, string, string, string]
	ModelToken      = mvc.ModelToken[string, string, string, string, string, string, string]
	ViewToken       = mvc.ViewToken[string, string, string, string, string, string, string]
	ControllerToken = mvc.ControllerToken[string, string, string, string, string, string, string]
	ModelRole       = mvc.Model[string, string, string, string, string, string, string]
)

// Translator maps a notification to an optional command.
type Translator func(n string) (string, bool)

// Identity translates every notification into a command of the same name.
func Identity(n string) (string, bool) {
	return n, true
}

// Model records its commands and runs the scripted reaction, if any.
type Model struct {
	journal   *Journal
	handlers  map[string]func(tok *ModelToken)
	translate Translator
}

func (m *Model) ProcessCommand(tok *ModelToken, cmd string) {
	m.journal.Add("model:" + cmd)
	if fn := m.handlers[cmd]; fn != nil {
		fn(tok)
	}
}

func (m *Model) TranslateControllerNotification(n string) (string, bool) {
	return m.translate(n)
}

// View records its commands and hooks.
type View struct {
	journal   *Journal
	handlers  map[string]func(tok *ViewToken)
	translate Translator
	target    string
}

func (v *View) ProcessCommand(tok *ViewToken, cmd string) {
	v.journal.Add("view:" + cmd)
	if fn := v.handlers[cmd]; fn != nil {
		fn(tok)
	}
}

func (v *View) TranslateModelNotification(n string) (string, bool) {
	return v.translate(n)
}

func (v *View) RedirectOutputTarget(target string, ok bool) {
	if !ok {
		target = "<none>"
	}
	v.target = target
	v.journal.Add("redirect:" + target)
}

// SyncOutputWithParameter records the incoming parameter and replaces it with
// the current target.
func (v *View) SyncOutputWithParameter(_ ModelRole, param *string) {
	v.journal.Add("sync:" + *param)
	*param = v.target
}

// Target returns the last redirected output target.
func (v *View) Target() string {
	return v.target
}

// Controller records its commands and runs the scripted reaction, if any.
type Controller struct {
	journal  *Journal
	handlers map[string]func(tok *ControllerToken)
}

func (c *Controller) ProcessCommand(tok *ControllerToken, cmd string) {
	c.journal.Add("controller:" + cmd)
	if fn := c.handlers[cmd]; fn != nil {
		fn(tok)
	}
}
