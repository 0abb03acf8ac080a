package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MissingColumnsError reports every required column absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Table is an in-memory CSV: a header and string rows addressed by column name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable creates an empty table with the given columns.
func NewTable(header ...string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	t.reindex()
	return t
}

// ReadTable loads a CSV file. Short rows are padded to the header width.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("table: read %s: %w", path, err)
	}
	return t, nil
}

func readTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewTable(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := NewTable(header...)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Append(rec)
	}
	return t, nil
}

// WriteCSV writes the table to path.
func (t *Table) WriteCSV(path string) error {
	w, err := NewCSVWriter(path, t.Header)
	if err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.WriteRow(row); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
}

// Len is the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require returns a *MissingColumnsError naming every absent column, or nil.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	out := make([]string, len(t.Header))
	copy(out, row)
	t.Rows = append(t.Rows, out)
}

// Get returns the cell, or "" when the column does not exist.
func (t *Table) Get(row int, column string) string {
	i, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell, adding the column first if needed.
func (t *Table) Set(row int, column, value string) {
	t.AddColumn(column)
	t.Rows[row][t.index[column]] = value
}

// Column returns a copy of every value in the column.
func (t *Table) Column(column string) []string {
	out := make([]string, t.Len())
	i, ok := t.index[column]
	if !ok {
		return out
	}
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// AddColumn appends an empty column. Existing columns are left alone.
func (t *Table) AddColumn(column string) {
	if t.Has(column) {
		return
	}
	t.Header = append(t.Header, column)
	t.index[column] = len(t.Header) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
}

// Filter keeps only the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) {
	kept := make([][]string, 0, len(t.Rows))
	for i, row := range t.Rows {
		if keep(i) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}
