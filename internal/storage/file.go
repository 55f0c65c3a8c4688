package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mapstalk/mapstalk/internal/types"
)

// csvHeaders is the fixed column order for tabular output.
var csvHeaders = []string{
	"Business Name", "Business Type", "Address", "Phone Number", "Email", "Website",
}

// --- CSV Storage ---

// CSVStorage writes records as a CSV file, replaced on every run.
type CSVStorage struct {
	path   string
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a CSV result sink at the given path.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(records []types.BusinessRecord) error {
	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	for _, rec := range records {
		row := []string{rec.Name, rec.BusinessType, rec.Address, rec.Phone, rec.Email, rec.Website}
		if err := w.Write(row); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count = len(records)
	return nil
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "records", s.count)
	return nil
}

// --- JSON Storage ---

// JSONStorage writes records as an indented JSON array, replaced per run.
type JSONStorage struct {
	path   string
	count  int
	logger *slog.Logger
}

// NewJSONStorage creates a JSON result sink at the given path.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONStorage{
		path:   outputPath,
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(records []types.BusinessRecord) error {
	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count = len(records)
	return nil
}

func (s *JSONStorage) Close() error {
	s.logger.Info("JSON written", "path", s.path, "records", s.count)
	return nil
}

// NewFileStorage creates the appropriate file-based sink by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, "businesses.csv"), logger)
	case "json":
		return NewJSONStorage(filepath.Join(outputDir, "businesses.json"), logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
