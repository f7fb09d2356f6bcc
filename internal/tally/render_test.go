package tally

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func plainStyles() styles {
	return newStyles(newRenderer(io.Discard, true, false))
}

func TestRenderBoard(t *testing.T) {
	tests := []struct {
		name  string
		rows  []Row
		width int
		want  string
	}{
		{
			name:  "empty",
			rows:  nil,
			width: 40,
			want:  "tally\n(empty)\n",
		},
		{
			name:  "single row",
			rows:  []Row{{"apples", 3}},
			width: 40,
			want: "tally\n" +
				"apples 3 ███\n" +
				"────────\n" +
				"total  3\n",
		},
		{
			name:  "zero count has no bar",
			rows:  []Row{{"a", 0}, {"b", 12}},
			width: 40,
			want: "tally\n" +
				"a      0\n" +
				"b     12 ████████████\n" +
				"────────\n" +
				"total 12\n",
		},
		{
			name:  "wide runes stay aligned",
			rows:  []Row{{"りんご", 2}, {"kiwi", 1}},
			width: 40,
			want: "tally\n" +
				"りんご 2 ██\n" +
				"kiwi   1 █\n" +
				"────────\n" +
				"total  3\n",
		},
		{
			name:  "long names are truncated",
			rows:  []Row{{"watermelon", 1}},
			width: 15,
			want: "tally\n" +
				"wate~ 1 █\n" +
				"───────\n" +
				"total 1\n",
		},
		{
			name:  "bars scale to width",
			rows:  []Row{{"a", 100}, {"b", 50}},
			width: 20,
			want: "tally\n" +
				"a     100 ██████████\n" +
				"b      50 █████\n" +
				"─────────\n" +
				"total 150\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, renderBoard(tt.rows, tt.width, plainStyles()))
		})
	}
}

func TestBarLength(t *testing.T) {
	require.Equal(t, 0, barLength(0, 10, 10))
	require.Equal(t, 4, barLength(4, 10, 10))
	require.Equal(t, 10, barLength(100, 100, 10))
	require.Equal(t, 1, barLength(5, 100, 10), "non-zero counts always get a cell")
	require.Equal(t, 0, barLength(5, 100, 0))
}
