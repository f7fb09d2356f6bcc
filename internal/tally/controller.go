package tally

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/triad/internal/log"
)

// Controller parses input lines into intents for the model.
type Controller struct {
	quiet bool
	lines int
	parts int // batch parts queued but not yet processed
}

// ProcessCommand handles one input line.
func (c *Controller) ProcessCommand(tok *ControllerToken, in Input) {
	// Batch parts run before the next input line, so they belong to the current one.
	if c.parts > 0 {
		c.parts--
	} else {
		c.lines++
	}
	line := strings.TrimSpace(string(in))
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	verb, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(verb) {
	case "batch":
		// Each part runs after this line, in order, before anything deferred.
		var parts []Input
		for part := range strings.SplitSeq(rest, ";") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, Input(part))
			}
		}
		c.parts += len(parts)
		tok.ExecCommandsNext(parts...)
	case "quiet":
		c.quiet = true
	case "loud":
		c.quiet = false
	default:
		intent, err := ParseIntent(line)
		if err != nil {
			log.Debug(log.CatTally, "rejecting input", "line", c.lines, "error", err)
			tok.ManipulateModelNow(Intent{Op: IntentInvalid, Reason: fmt.Sprintf("line %d: %v", c.lines, err)})
			return
		}
		intent.Quiet = c.quiet
		tok.ManipulateModelNow(intent)
	}
}

// Lines returns how many input lines have been processed, not counting batch parts.
func (c *Controller) Lines() int {
	return c.lines
}

// ParseIntent parses add, sub, reset and show lines.
func ParseIntent(line string) (Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Intent{}, fmt.Errorf("empty line")
	}

	switch verb := strings.ToLower(fields[0]); verb {
	case "add", "sub":
		if len(fields) < 2 || len(fields) > 3 {
			return Intent{}, fmt.Errorf("usage: %s <name> [n]", verb)
		}
		n := 1
		if len(fields) == 3 {
			v, err := strconv.Atoi(fields[2])
			if err != nil || v < 0 {
				return Intent{}, fmt.Errorf("invalid amount %q", fields[2])
			}
			n = v
		}
		op := IntentAdd
		if verb == "sub" {
			op = IntentSub
		}
		return Intent{Op: op, Name: fields[1], N: n}, nil
	case "reset":
		if len(fields) != 2 {
			return Intent{}, fmt.Errorf("usage: reset <name>")
		}
		return Intent{Op: IntentReset, Name: fields[1]}, nil
	case "show":
		if len(fields) != 1 {
			return Intent{}, fmt.Errorf("usage: show")
		}
		return Intent{Op: IntentShow}, nil
	default:
		return Intent{}, fmt.Errorf("unknown command %q", fields[0])
	}
}
