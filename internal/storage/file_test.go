package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mapstalk/mapstalk/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var sampleRecords = []types.BusinessRecord{
	{Name: "Acme Cafe", BusinessType: "Coffee Shop", Address: "1 Main St", Phone: "(555) 123-4567", Email: "acme@gmail.com", Website: "https://acme.example"},
	{Name: "Beta Bakery", Address: "2 Oak Ave"},
}

func TestCSVStorageWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage("csv", dir, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	defer store.Close()

	if err := store.Store(sampleRecords); err != nil {
		t.Fatalf("store: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "businesses.csv"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Business Name" || rows[0][5] != "Website" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Acme Cafe" || rows[1][3] != "(555) 123-4567" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "Beta Bakery" || rows[2][4] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestCSVStorageReplacesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStorage("csv", dir, testLogger)
	defer store.Close()

	if err := store.Store(sampleRecords); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if err := store.Store(sampleRecords[:1]); err != nil {
		t.Fatalf("second store: %v", err)
	}

	f, _ := os.Open(filepath.Join(dir, "businesses.csv"))
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want header + 1 (output replaced, not appended)", len(rows))
	}
}

func TestJSONStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage("json", dir, testLogger)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	defer store.Close()

	if err := store.Store(sampleRecords); err != nil {
		t.Fatalf("store: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "businesses.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got []types.BusinessRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0] != sampleRecords[0] {
		t.Errorf("round trip = %+v", got)
	}
}

func TestNewFileStorageRejectsUnknownType(t *testing.T) {
	if _, err := NewFileStorage("parquet", t.TempDir(), testLogger); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
