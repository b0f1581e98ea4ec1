package store

import (
	"os"
	"path/filepath"
	"testing"
)

const stampCSVA = `date,amount,category,merchant
2024-03-01,-100,Food,CafeA
2024-03-02,-200,Food,CafeB
`

const stampCSVB = `date,amount,category,merchant
2024-03-01,-150,Travel,Airline
2024-03-02,-250,Travel,HotelChain
`

func TestDatasetStampDetectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(stampCSVA), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	dsA, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	stampA := datasetStamp(dsA)

	// Overwrite with a corrected file that keeps the row count.
	if err := os.WriteFile(path, []byte(stampCSVB), 0o644); err != nil {
		t.Fatalf("overwrite csv: %v", err)
	}
	dsB, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	stampB := datasetStamp(dsB)

	if len(dsA.Rows) != len(dsB.Rows) {
		t.Fatalf("fixture must keep the row count: %d vs %d", len(dsA.Rows), len(dsB.Rows))
	}
	if stampA == stampB {
		t.Fatal("overwrite with same row count must change the stamp")
	}
}

func TestDatasetStampStableForUnchangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(stampCSVA), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}

	if datasetStamp(ds) != datasetStamp(ds) {
		t.Fatal("stamp must be stable while the file is unchanged")
	}
}
