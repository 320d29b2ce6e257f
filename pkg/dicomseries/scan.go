// Package dicomseries discovers DICOM series on disk and loads them into
// 3D volumes. Discovery reads file headers only; pixel data is decoded when
// a series is loaded.
package dicomseries

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"

	"mrivis/internal/models"
)

// Header holds the subset of DICOM metadata read during discovery and used
// to order slices. Pixel data is never read when building a Header.
type Header struct {
	// SeriesDescription is the free-text series label, e.g. "T1 AXIAL"
	SeriesDescription string

	// Modality is the DICOM modality code, e.g. "MR"
	Modality string

	// SeriesInstanceUID uniquely identifies the series
	SeriesInstanceUID string

	// InstanceNumber orders this slice within its series
	InstanceNumber int

	// Rows and Columns are the pixel dimensions of the slice
	Rows    int
	Columns int

	// PixelSpacing is the physical size of a pixel in mm (row, column)
	PixelSpacing []float64

	// SliceThickness is the slice thickness in mm, 0 when absent
	SliceThickness float64
}

// ReadHeader parses the header of a single DICOM file, stopping before pixel
// data is reached.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	iter, err := dicom.NewDataElementIterator(f)
	if err != nil {
		return nil, fmt.Errorf("reading DICOM header of %s: %v", path, err)
	}
	defer iter.Close()

	h := &Header{}
	for elem, err := iter.Next(); err != io.EOF; elem, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading DICOM element in %s: %v", path, err)
		}

		// Everything needed appears before pixel data in the stream
		if elem.Tag == dicom.PixelDataTag {
			break
		}

		switch elem.Tag {
		case dicom.SeriesDescriptionTag:
			h.SeriesDescription, _ = elem.StringValue()
		case dicom.ModalityTag:
			h.Modality, _ = elem.StringValue()
		case dicom.SeriesInstanceUIDTag:
			h.SeriesInstanceUID, _ = elem.StringValue()
		case dicom.InstanceNumberTag:
			if n, err := elem.IntValue(); err == nil {
				h.InstanceNumber = int(n)
			}
		case dicom.RowsTag:
			if n, err := elem.IntValue(); err == nil {
				h.Rows = int(n)
			}
		case dicom.ColumnsTag:
			if n, err := elem.IntValue(); err == nil {
				h.Columns = int(n)
			}
		case dicom.PixelSpacingTag:
			h.PixelSpacing = decimalStrings(elem)
		case dicom.SliceThicknessTag:
			if v := decimalStrings(elem); len(v) > 0 {
				h.SliceThickness = v[0]
			}
		}
	}

	return h, nil
}

// decimalStrings parses a DS (decimal string) element into floats. Values
// that fail to parse are dropped.
func decimalStrings(elem *dicom.DataElement) []float64 {
	strs, ok := elem.ValueField.([]string)
	if !ok {
		return nil
	}

	vals := make([]float64, 0, len(strs))
	for _, s := range strs {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// isDicomFile reports whether the filename looks like a DICOM slice
func isDicomFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".dcm")
}

// FindSeries walks the directory tree rooted at root looking for a DICOM
// series whose SeriesDescription contains the match term (case-insensitive).
// It returns the directory of the first matching file found. Files that fail
// to parse are logged and skipped.
//
// This mirrors the common workflow of picking the T1-weighted acquisition
// out of a study directory by matching "t1" against the description.
func FindSeries(root, match string) (string, error) {
	match = strings.ToLower(match)

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" || d.IsDir() || !isDicomFile(d.Name()) {
			return nil
		}

		h, err := ReadHeader(path)
		if err != nil {
			log.Printf("Warning: skipping invalid DICOM file %s: %v", path, err)
			return nil
		}

		if strings.Contains(strings.ToLower(h.SeriesDescription), match) {
			found = filepath.Dir(path)
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}

	if found == "" {
		return "", fmt.Errorf("no series matching %q found under %s", match, root)
	}
	return found, nil
}

// ListSeries walks the directory tree rooted at root and returns one
// SeriesInfo per directory containing DICOM files. Series metadata is taken
// from the first readable file in each directory; unreadable files are
// logged and skipped.
func ListSeries(root string) ([]models.SeriesInfo, error) {
	byDir := make(map[string]*models.SeriesInfo)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDicomFile(d.Name()) {
			return nil
		}

		dir := filepath.Dir(path)
		if info, ok := byDir[dir]; ok {
			info.FileCount++
			return nil
		}

		h, err := ReadHeader(path)
		if err != nil {
			log.Printf("Warning: skipping invalid DICOM file %s: %v", path, err)
			return nil
		}

		byDir[dir] = &models.SeriesInfo{
			Path:              dir,
			Description:       h.SeriesDescription,
			Modality:          h.Modality,
			SeriesInstanceUID: h.SeriesInstanceUID,
			FileCount:         1,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	series := make([]models.SeriesInfo, 0, len(byDir))
	for _, info := range byDir {
		series = append(series, *info)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Path < series[j].Path
	})

	return series, nil
}
