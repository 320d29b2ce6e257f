package dicomseries

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/GoogleCloudPlatform/go-dicom-parser/dicom"
)

// decodePixels decodes the native (uncompressed) PixelData of a parsed
// DICOM file into float64 intensities in row-major order. RescaleSlope and
// RescaleIntercept are applied when present.
//
// Only native little-endian pixel data is supported. Encapsulated transfer
// syntaxes (JPEG families) are rejected.
func decodePixels(ds *dicom.DataSet, rows, cols int) ([]float64, error) {
	elem, ok := ds.Elements[dicom.PixelDataTag]
	if !ok {
		return nil, fmt.Errorf("missing PixelData element")
	}
	if elem.ValueLength == dicom.UndefinedLength {
		return nil, fmt.Errorf("encapsulated (compressed) pixel data is not supported")
	}

	bits := int64(16)
	if v, ok := intValue(ds, dicom.BitsAllocatedTag); ok {
		bits = v
	}
	signed := false
	if v, ok := intValue(ds, dicom.PixelRepresentationTag); ok {
		signed = v == 1
	}

	raw, err := pixelBytes(elem)
	if err != nil {
		return nil, err
	}

	n := rows * cols
	pixels := make([]float64, n)

	switch bits {
	case 8:
		if len(raw) < n {
			return nil, fmt.Errorf("pixel data too short: got %d bytes, want %d", len(raw), n)
		}
		for i := 0; i < n; i++ {
			if signed {
				pixels[i] = float64(int8(raw[i]))
			} else {
				pixels[i] = float64(raw[i])
			}
		}
	case 16:
		if len(raw) < 2*n {
			return nil, fmt.Errorf("pixel data too short: got %d bytes, want %d", len(raw), 2*n)
		}
		for i := 0; i < n; i++ {
			v := binary.LittleEndian.Uint16(raw[2*i:])
			if signed {
				pixels[i] = float64(int16(v))
			} else {
				pixels[i] = float64(v)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported BitsAllocated: %d", bits)
	}

	applyRescale(ds, pixels)

	return pixels, nil
}

// pixelBytes extracts the raw pixel bytes from the PixelData value field.
// Parse buffers OW/OB data as a BulkDataBuffer; the value field shapes below
// cover the buffered forms the parser produces.
func pixelBytes(elem *dicom.DataElement) ([]byte, error) {
	switch vf := elem.ValueField.(type) {
	case dicom.BulkDataBuffer:
		return bytes.Join(vf.Data(), nil), nil
	case [][]byte:
		return bytes.Join(vf, nil), nil
	case []byte:
		return vf, nil
	case []uint16:
		raw := make([]byte, 2*len(vf))
		for i, v := range vf {
			binary.LittleEndian.PutUint16(raw[2*i:], v)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported PixelData value type %T", vf)
	}
}

// applyRescale maps stored values to output units using RescaleSlope and
// RescaleIntercept (identity when the elements are absent)
func applyRescale(ds *dicom.DataSet, pixels []float64) {
	slope, intercept := 1.0, 0.0
	if elem, ok := ds.Elements[dicom.RescaleSlopeTag]; ok {
		if v := decimalStrings(elem); len(v) > 0 {
			slope = v[0]
		}
	}
	if elem, ok := ds.Elements[dicom.RescaleInterceptTag]; ok {
		if v := decimalStrings(elem); len(v) > 0 {
			intercept = v[0]
		}
	}
	if slope == 1.0 && intercept == 0.0 {
		return
	}
	for i := range pixels {
		pixels[i] = pixels[i]*slope + intercept
	}
}
