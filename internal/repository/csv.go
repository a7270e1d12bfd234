package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrTableNotFound is returned when a stage input file does not exist
	ErrTableNotFound = errors.New("table not found")

	// ErrMissingColumn is returned when a required header column is absent
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnkeyedRow is returned when a row lacks its key columns
	ErrUnkeyedRow = errors.New("row has no key")
)

// table is a CSV file loaded into memory with its header indexed by name
type table struct {
	path   string
	header []string
	index  map[string]int
	rows   [][]string
}

// readTable loads a CSV file, requiring every column in required to be present
func readTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s has no header row: %w", path, ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	t := &table{path: path, header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		t.index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	for _, name := range required {
		if _, ok := t.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, name, path)
		}
	}

	t.rows, err = r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", path, err)
	}

	return t, nil
}

// get returns the named cell of row, or "" for short rows and unknown columns
func (t *table) get(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// float parses the named cell; empty cells read as zero
func (t *table) float(row []string, column string, line int) (float64, error) {
	v := t.get(row, column)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: invalid %s %q", t.path, line, column, v)
	}
	return f, nil
}

// integer parses the named cell, accepting integral float text such as "105.0"
func (t *table) integer(row []string, column string, line int) (int, error) {
	f, err := t.float(row, column, line)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// writeTable replaces path with header and rows. The file is written to a
// temporary sibling and renamed so readers never observe a partial table.
func writeTable(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// dedupKeepLast drops every row whose key occurs again later in rows.
// Survivors keep their relative order.
func dedupKeepLast[T any](rows []T, key func(T) string) []T {
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		last[key(r)] = i
	}

	out := make([]T, 0, len(last))
	for i, r := range rows {
		if last[key(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
