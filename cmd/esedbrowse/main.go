// Command esedbrowse is a small interactive terminal browser over an EDB
// file's tables and rows, mirroring hiveexplorer's split-pane TUI style but
// scoped to this package's read-only catalog/table/record API.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/libyal/go-esedb"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: esedbrowse <database.edb>")
		os.Exit(1)
	}
	path := os.Args[1]

	f, err := esedb.Open(path, esedb.OpenOptions{Tolerant: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "esedbrowse: open %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	m := newModel(f, path)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "esedbrowse:", err)
		os.Exit(1)
	}
}
