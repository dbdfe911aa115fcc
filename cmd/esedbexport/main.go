// Command esedbexport dumps one table's rows as CSV or JSON, mirroring
// esedbtools' esedbexport.c.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libyal/go-esedb"
	"github.com/libyal/go-esedb/internal/record"
)

var (
	tableName string
	format_   string
	outPath   string
	tolerant  bool
)

var rootCmd = &cobra.Command{
	Use:   "esedbexport <database.edb>",
	Short: "Export an EDB table's rows as CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&tableName, "table", "t", "", "table to export (required)")
	rootCmd.Flags().StringVarP(&format_, "format", "f", "csv", "output format: csv or json")
	rootCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file path (defaults to stdout)")
	rootCmd.Flags().BoolVar(&tolerant, "tolerant", false, "tolerate page checksum mismatches instead of failing")
	_ = rootCmd.MarkFlagRequired("table")
}

func run(path string) error {
	f, err := esedb.Open(path, esedb.OpenOptions{Tolerant: tolerant})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := f.TableByName(tableName, true)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		w, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer w.Close()
		out = w
	}

	switch format_ {
	case "csv":
		return exportCSV(table, out)
	case "json":
		return exportJSON(table, out)
	default:
		return fmt.Errorf("unknown format %q: want csv or json", format_)
	}
}

func exportCSV(table *esedb.Table, out *os.File) error {
	cols := table.Columns()
	w := csv.NewWriter(out)
	defer w.Flush()

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return err
	}

	it := table.Records()
	for it.Next() {
		rec, err := it.Record()
		if err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = cellText(rec, c)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return it.Err()
}

func cellText(rec *esedb.Record, c esedb.Column) string {
	v, err := rec.Value(c.Identifier)
	if err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	if v.Null {
		return ""
	}
	if v.IsLongValue {
		return "<long value>"
	}
	switch c.Type {
	case record.ColumnTypeText, record.ColumnTypeLargeText:
		s, err := v.Text()
		if err != nil {
			return fmt.Sprintf("<error: %v>", err)
		}
		return s
	case record.ColumnTypeGUID:
		id, err := v.GUID()
		if err != nil {
			return fmt.Sprintf("<error: %v>", err)
		}
		return id.String()
	default:
		return fmt.Sprintf("%x", v.Data)
	}
}

func exportJSON(table *esedb.Table, out *os.File) error {
	cols := table.Columns()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	it := table.Records()
	for it.Next() {
		rec, err := it.Record()
		if err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		row := make(map[string]string, len(cols))
		for _, c := range cols {
			row[c.Name] = cellText(rec, c)
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return it.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "esedbexport:", err)
		os.Exit(1)
	}
}
