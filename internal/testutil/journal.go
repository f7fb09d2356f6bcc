package testutil

import "slices"

// Journal is an ordered record of role activity.
type Journal struct {
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(entry string) {
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of every entry in order.
func (j *Journal) Entries() []string {
	return slices.Clone(j.entries)
}

// Reset discards every entry.
func (j *Journal) Reset() {
	j.entries = nil
}
