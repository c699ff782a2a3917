// Package dataset reads the tabular and array inputs used by the training commands and the
// file based handlers.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Frame is a CSV table held as strings; columns are converted on demand.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses r. When header is false the columns are named by position ("0", "1", ...).
func ReadCSV(r io.Reader, header bool) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	frame := &Frame{}
	if header {
		frame.Columns = records[0]
		records = records[1:]
	} else {
		frame.Columns = make([]string, len(records[0]))
		for i := range frame.Columns {
			frame.Columns[i] = strconv.Itoa(i)
		}
	}
	frame.Rows = records
	return frame, nil
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

func (f *Frame) index(column string) (int, error) {
	i := slices.Index(f.Columns, column)
	if i < 0 {
		return -1, fmt.Errorf("column %q not found", column)
	}
	return i, nil
}

// Rename replaces the column names; the number of names must match.
func (f *Frame) Rename(columns []string) error {
	if len(columns) != len(f.Columns) {
		return fmt.Errorf("frame has %d columns, got %d names", len(f.Columns), len(columns))
	}
	f.Columns = append([]string(nil), columns...)
	return nil
}

func (f *Frame) Column(name string) ([]string, error) {
	i, err := f.index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Drop returns a frame without the named columns. Every name must exist.
func (f *Frame) Drop(columns ...string) (*Frame, error) {
	dropped := make(map[int]bool, len(columns))
	for _, c := range columns {
		i, err := f.index(c)
		if err != nil {
			return nil, err
		}
		dropped[i] = true
	}

	keep := func(row []string) []string {
		out := make([]string, 0, len(row)-len(dropped))
		for i, v := range row {
			if !dropped[i] {
				out = append(out, v)
			}
		}
		return out
	}

	out := &Frame{Columns: keep(f.Columns), Rows: make([][]string, len(f.Rows))}
	for i, row := range f.Rows {
		out.Rows[i] = keep(row)
	}
	return out, nil
}

func (f *Frame) Floats() ([][]float64, error) {
	out := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r, f.Columns[c], err)
			}
			out[r][c] = x
		}
	}
	return out, nil
}
