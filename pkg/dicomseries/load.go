package dicomseries

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
	"gonum.org/v1/gonum/floats"

	"mrivis/internal/models"
)

// LoadSeries loads all DICOM files in dir (non-recursive) into a 3D volume.
// Slices are ordered by their InstanceNumber header value, stacked along the
// z axis, and the assembled volume is min-max normalized into [0, 1].
//
// The voxel size is taken from PixelSpacing and SliceThickness of the last
// slice read; missing spacing values default to 1.0 mm.
func LoadSeries(dir string) (*models.Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading series directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isDicomFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no DICOM files found in %s", dir)
	}

	// Order slices anatomically by instance number. Filenames are not a
	// reliable ordering for DICOM exports, the header is.
	order := make(map[string]int, len(files))
	for _, name := range files {
		h, err := ReadHeader(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading slice order: %w", err)
		}
		order[name] = h.InstanceNumber
	}
	sort.Slice(files, func(i, j int) bool {
		return order[files[i]] < order[files[j]]
	})

	volume := &models.Volume{Depth: len(files)}
	var lastHeader *Header

	for z, name := range files {
		path := filepath.Join(dir, name)
		slice, h, err := loadSlice(path)
		if err != nil {
			return nil, fmt.Errorf("loading slice %s: %w", name, err)
		}

		// First slice fixes the volume dimensions
		if z == 0 {
			volume.Width = slice.Columns
			volume.Height = slice.Rows
			volume.Data = make([]float64, volume.Width*volume.Height*volume.Depth)
		}

		if slice.Columns != volume.Width || slice.Rows != volume.Height {
			return nil, fmt.Errorf("slice %s has dimensions %dx%d, expected %dx%d",
				name, slice.Columns, slice.Rows, volume.Width, volume.Height)
		}

		copy(volume.Data[z*volume.Width*volume.Height:], slice.Pixels)
		lastHeader = h
	}

	normalizeVolume(volume.Data)

	// Spacing defaults keep slice geometry usable when headers are sparse
	volume.VoxelSize.X = 1.0
	volume.VoxelSize.Y = 1.0
	volume.VoxelSize.Z = 1.0
	if len(lastHeader.PixelSpacing) >= 2 {
		volume.VoxelSize.Y = lastHeader.PixelSpacing[0]
		volume.VoxelSize.X = lastHeader.PixelSpacing[1]
	}
	if lastHeader.SliceThickness > 0 {
		volume.VoxelSize.Z = lastHeader.SliceThickness
	}

	log.Printf("Loaded %d slices with dimensions %dx%d from %s",
		volume.Depth, volume.Width, volume.Height, dir)

	return volume, nil
}

// loadSlice parses a single DICOM file including pixel data
func loadSlice(path string) (*models.Slice, *Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	ds, err := dicom.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing DICOM file: %v", err)
	}

	rows, ok := intValue(ds, dicom.RowsTag)
	if !ok {
		return nil, nil, fmt.Errorf("missing Rows element")
	}
	cols, ok := intValue(ds, dicom.ColumnsTag)
	if !ok {
		return nil, nil, fmt.Errorf("missing Columns element")
	}

	pixels, err := decodePixels(ds, int(rows), int(cols))
	if err != nil {
		return nil, nil, err
	}

	h := &Header{
		Rows:    int(rows),
		Columns: int(cols),
	}
	if desc, ok := stringValue(ds, dicom.SeriesDescriptionTag); ok {
		h.SeriesDescription = desc
	}
	if n, ok := intValue(ds, dicom.InstanceNumberTag); ok {
		h.InstanceNumber = int(n)
	}
	if elem, ok := ds.Elements[dicom.PixelSpacingTag]; ok {
		h.PixelSpacing = decimalStrings(elem)
	}
	if elem, ok := ds.Elements[dicom.SliceThicknessTag]; ok {
		if v := decimalStrings(elem); len(v) > 0 {
			h.SliceThickness = v[0]
		}
	}

	return &models.Slice{
		Filename:       filepath.Base(path),
		InstanceNumber: h.InstanceNumber,
		Rows:           int(rows),
		Columns:        int(cols),
		Pixels:         pixels,
	}, h, nil
}

// normalizeVolume rescales data into [0, 1] in place. A flat volume
// normalizes to all zeros.
func normalizeVolume(data []float64) {
	if len(data) == 0 {
		return
	}

	min := floats.Min(data)
	max := floats.Max(data)
	span := max - min
	if span == 0 {
		for i := range data {
			data[i] = 0
		}
		return
	}

	for i := range data {
		data[i] = (data[i] - min) / span
	}
}

// stringValue returns the first string value of the tagged element
func stringValue(ds *dicom.DataSet, tag dicom.DataElementTag) (string, bool) {
	elem, ok := ds.Elements[tag]
	if !ok {
		return "", false
	}
	s, err := elem.StringValue()
	if err != nil {
		return "", false
	}
	return s, true
}

// intValue returns the first integer value of the tagged element
func intValue(ds *dicom.DataSet, tag dicom.DataElementTag) (int64, bool) {
	elem, ok := ds.Elements[tag]
	if !ok {
		return 0, false
	}
	n, err := elem.IntValue()
	if err != nil {
		return 0, false
	}
	return n, true
}
