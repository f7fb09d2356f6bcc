/*
Package mvc is a single-threaded, ordered command scheduler that coordinates a Model,
a View and a Controller through a fixed command/notification protocol.

# Messages

Five kinds of envelope flow through a System: model commands, model notifications
for the view, view commands, controller notifications for the model, and controller
commands. Notifications are never handled directly: the receiving role translates
them into one of its own commands, or absorbs them.

# Scheduling

Handlers receive a token for the duration of one invocation and use it to schedule
further work:

  - Now: dispatch synchronously, before the scheduling call returns.
  - Next: append to the frame of the innermost running invocation.
  - Later: append to the bottom frame; runs once everything currently in flight,
    at any nesting level, has finished.

Each handler invocation starts a fresh frame, so work scheduled with Next by one
handler is isolated from the queue of its caller. Once a frame is drained the
stashed outer frames resume in LIFO order.

# Stack depth

Now is plain call-stack recursion. A handler that keeps scheduling itself with Now
and has no base case recurses until the goroutine stack is exhausted; that is a bug
in the handler, not a condition the System recovers from. WithMaxDepth turns it
into an early, readable panic.

# Type parameters

Every generic type in this package takes the same parameter list:

	MC  model command
	MN  model notification (model -> view)
	VC  view command
	CC  controller command
	CN  controller notification (controller -> model)
	T   view output target
	P   view output parameter

Integrators usually declare aliases for their instantiation:

	type board = mvc.System[counterCmd, counterEvent, renderCmd, inputCmd, inputEvent, io.Writer, RenderOptions]

A System is not safe for concurrent use.
*/
package mvc
