package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_RecordsScriptedReactions(t *testing.T) {
	sys, journal := NewBuilder(t).
		OnController("go", func(tok *ControllerToken) {
			tok.ManipulateModelNow("save")
		}).
		Build()

	sys.ProcessInput("go")

	require.Equal(t, []string{"controller:go", "model:save"}, journal.Entries())
}

func TestJournal_Reset(t *testing.T) {
	j := &Journal{}
	j.Add("a")
	entries := j.Entries()
	j.Reset()

	require.Empty(t, j.Entries())
	require.Equal(t, []string{"a"}, entries)
}
