package dicomseries

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

// testSlice describes a synthetic DICOM slice written for tests
type testSlice struct {
	description    string
	instanceNumber int
	rows, cols     int
	pixels         []uint16
	pixelSpacing   []string
	sliceThickness string
}

// writeTestDicom writes a minimal explicit VR little endian DICOM file
func writeTestDicom(t *testing.T, path string, s testSlice) {
	t.Helper()

	raw := make([]byte, 2*len(s.pixels))
	for i, v := range s.pixels {
		binary.LittleEndian.PutUint16(raw[2*i:], v)
	}

	elements := map[dicom.DataElementTag]interface{}{
		dicom.TransferSyntaxUIDTag:   []string{dicom.ExplicitVRLittleEndianUID},
		dicom.ModalityTag:            []string{"MR"},
		dicom.SeriesInstanceUIDTag:   []string{"1.2.840.113619.2.176.1"},
		dicom.InstanceNumberTag:      []string{strconv.Itoa(s.instanceNumber)},
		dicom.RowsTag:                []uint16{uint16(s.rows)},
		dicom.ColumnsTag:             []uint16{uint16(s.cols)},
		dicom.BitsAllocatedTag:       []uint16{16},
		dicom.PixelRepresentationTag: []uint16{0},
		dicom.PixelDataTag:           dicom.NewBulkDataBuffer(raw),
	}
	if s.description != "" {
		elements[dicom.SeriesDescriptionTag] = []string{s.description}
	}
	if len(s.pixelSpacing) > 0 {
		elements[dicom.PixelSpacingTag] = s.pixelSpacing
	}
	if s.sliceThickness != "" {
		elements[dicom.SliceThicknessTag] = []string{s.sliceThickness}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test DICOM file: %v", err)
	}
	defer f.Close()

	if err := dicom.Construct(f, dicom.NewDataSet(elements)); err != nil {
		t.Fatalf("Failed to write test DICOM file: %v", err)
	}
}

// flatSlice returns pixel data where every pixel holds the same value
func flatSlice(rows, cols int, value uint16) []uint16 {
	pixels := make([]uint16, rows*cols)
	for i := range pixels {
		pixels[i] = value
	}
	return pixels
}

// writeTestSeries writes a directory of synthetic slices and returns its path
func writeTestSeries(t *testing.T, dir, description string, slices []testSlice) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create series directory: %v", err)
	}

	for i, s := range slices {
		if s.description == "" {
			s.description = description
		}
		name := filepath.Join(dir, "IM"+strconv.Itoa(i)+".dcm")
		writeTestDicom(t, name, s)
	}

	return dir
}
