package main

import (
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/amanyadav21/moody-player/internal/catalog"
)

// renderSongs renders songs as a numbered table. Rounded borders are used
// on terminals and plain ASCII otherwise.
func renderSongs(w io.Writer, songs []catalog.Song) string {
	tw := table.NewWriter()
	if isTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"#", "Title", "Artist", "Mood"})
	for i, s := range songs {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), s.Title, s.Artist, string(s.Mood)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
