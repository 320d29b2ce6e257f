package dicomseries

import (
	"os"
	"path/filepath"
	"testing"
)

// TestReadHeader verifies header fields are read without touching pixel data
func TestReadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slice.dcm")
	writeTestDicom(t, path, testSlice{
		description:    "T1 AXIAL",
		instanceNumber: 7,
		rows:           4,
		cols:           6,
		pixels:         flatSlice(4, 6, 100),
		pixelSpacing:   []string{"0.5", "0.75"},
		sliceThickness: "1.5",
	})

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}

	if h.SeriesDescription != "T1 AXIAL" {
		t.Errorf("Expected description T1 AXIAL, got %q", h.SeriesDescription)
	}
	if h.Modality != "MR" {
		t.Errorf("Expected modality MR, got %q", h.Modality)
	}
	if h.InstanceNumber != 7 {
		t.Errorf("Expected instance number 7, got %d", h.InstanceNumber)
	}
	if h.Rows != 4 || h.Columns != 6 {
		t.Errorf("Expected dimensions 4x6, got %dx%d", h.Rows, h.Columns)
	}
	if len(h.PixelSpacing) != 2 || h.PixelSpacing[0] != 0.5 || h.PixelSpacing[1] != 0.75 {
		t.Errorf("Expected pixel spacing [0.5 0.75], got %v", h.PixelSpacing)
	}
	if h.SliceThickness != 1.5 {
		t.Errorf("Expected slice thickness 1.5, got %f", h.SliceThickness)
	}
}

// TestReadHeaderInvalidFile verifies that non-DICOM files are rejected
func TestReadHeaderInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-dicom.dcm")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := ReadHeader(path); err == nil {
		t.Error("Expected error for invalid DICOM file, got nil")
	}
}

// TestFindSeries verifies that the matching series directory is found
func TestFindSeries(t *testing.T) {
	root := t.TempDir()

	writeTestSeries(t, filepath.Join(root, "SER00001"), "LOCALIZER", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})
	t1Dir := writeTestSeries(t, filepath.Join(root, "SER00002"), "T1 AXIAL SE", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})

	found, err := FindSeries(root, "t1")
	if err != nil {
		t.Fatalf("FindSeries failed: %v", err)
	}

	if found != t1Dir {
		t.Errorf("Expected series at %s, got %s", t1Dir, found)
	}
}

// TestFindSeriesMatchIsCaseInsensitive verifies description matching ignores case
func TestFindSeriesMatchIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	dir := writeTestSeries(t, filepath.Join(root, "SER00001"), "t1 sagittal", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})

	found, err := FindSeries(root, "T1")
	if err != nil {
		t.Fatalf("FindSeries failed: %v", err)
	}
	if found != dir {
		t.Errorf("Expected series at %s, got %s", dir, found)
	}
}

// TestFindSeriesNoMatch verifies that a missing series is an error
func TestFindSeriesNoMatch(t *testing.T) {
	root := t.TempDir()
	writeTestSeries(t, filepath.Join(root, "SER00001"), "T2 FLAIR", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})

	if _, err := FindSeries(root, "t1"); err == nil {
		t.Error("Expected error when no series matches, got nil")
	}
}

// TestFindSeriesSkipsInvalidFiles verifies that unreadable files don't stop the walk
func TestFindSeriesSkipsInvalidFiles(t *testing.T) {
	root := t.TempDir()

	badDir := filepath.Join(root, "ASER0000")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "broken.dcm"), []byte("garbage"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	dir := writeTestSeries(t, filepath.Join(root, "SER00001"), "T1", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})

	found, err := FindSeries(root, "t1")
	if err != nil {
		t.Fatalf("FindSeries failed: %v", err)
	}
	if found != dir {
		t.Errorf("Expected series at %s, got %s", dir, found)
	}
}

// TestListSeries verifies that all series directories are reported
func TestListSeries(t *testing.T) {
	root := t.TempDir()

	writeTestSeries(t, filepath.Join(root, "SER00001"), "LOCALIZER", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
	})
	writeTestSeries(t, filepath.Join(root, "SER00002"), "T1 AXIAL", []testSlice{
		{instanceNumber: 1, rows: 2, cols: 2, pixels: flatSlice(2, 2, 10)},
		{instanceNumber: 2, rows: 2, cols: 2, pixels: flatSlice(2, 2, 20)},
	})

	series, err := ListSeries(root)
	if err != nil {
		t.Fatalf("ListSeries failed: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(series))
	}

	// Sorted by path
	if series[0].Description != "LOCALIZER" {
		t.Errorf("Expected first series LOCALIZER, got %q", series[0].Description)
	}
	if series[1].Description != "T1 AXIAL" {
		t.Errorf("Expected second series T1 AXIAL, got %q", series[1].Description)
	}
	if series[1].FileCount != 2 {
		t.Errorf("Expected 2 files in second series, got %d", series[1].FileCount)
	}
	if series[0].Modality != "MR" {
		t.Errorf("Expected modality MR, got %q", series[0].Modality)
	}
}

// TestListSeriesEmptyRoot verifies that an empty tree yields no series
func TestListSeriesEmptyRoot(t *testing.T) {
	series, err := ListSeries(t.TempDir())
	if err != nil {
		t.Fatalf("ListSeries failed: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("Expected no series, got %d", len(series))
	}
}
