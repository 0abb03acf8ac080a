package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"review-scraper/models"
)

// WriteRunReport saves the run summary as indented JSON.
func WriteRunReport(path string, report *models.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("report: create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// ReadRunReport loads a report written by WriteRunReport.
func ReadRunReport(path string) (*models.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}
	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return &report, nil
}

// NewRunDir creates a fresh directory under root named after stamp,
// appending _1, _2, ... when it already exists.
func NewRunDir(root, stamp string) (string, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("run dir: create root: %w", err)
	}
	dir := filepath.Join(root, stamp)
	for n := 1; ; n++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("run dir: %w", err)
		}
		dir = filepath.Join(root, fmt.Sprintf("%s_%d", stamp, n))
	}
}
