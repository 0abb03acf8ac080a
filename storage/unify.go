package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

// ErrSchemaMismatch is returned when a file's header differs from the first file's.
var ErrSchemaMismatch = errors.New("csv header mismatch")

// UnifyCSV concatenates every *.csv file in dir into out, keeping a single
// header. Files are taken in lexical order. When dir holds no CSV file
// nothing is written and ok is false.
func UnifyCSV(dir, out string) (path string, ok bool, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", false, fmt.Errorf("unify: list %s: %w", dir, err)
	}
	absOut, _ := filepath.Abs(out)
	files = slices.DeleteFunc(files, func(f string) bool {
		abs, _ := filepath.Abs(f)
		return abs == absOut
	})
	if len(files) == 0 {
		return "", false, nil
	}
	sort.Strings(files)

	var merged *Table
	for _, f := range files {
		t, err := ReadTable(f)
		if err != nil {
			return "", false, fmt.Errorf("unify: %w", err)
		}
		if len(t.Header) == 0 {
			continue
		}
		if merged == nil {
			merged = NewTable(t.Header...)
		} else if !slices.Equal(merged.Header, t.Header) {
			return "", false, fmt.Errorf("unify: %s: %w", filepath.Base(f), ErrSchemaMismatch)
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}

	if merged == nil {
		return "", false, nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", false, fmt.Errorf("unify: create output dir: %w", err)
	}
	if err := merged.WriteCSV(out); err != nil {
		return "", false, fmt.Errorf("unify: %w", err)
	}
	return out, true, nil
}
