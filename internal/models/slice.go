package models

// Slice represents a single DICOM slice with the metadata needed to place it
// in a volume
type Slice struct {
	// Filename is the original filename of the slice
	Filename string

	// InstanceNumber is the DICOM instance number used to order slices
	// within a series
	InstanceNumber int

	// Rows and Columns are the pixel dimensions of the slice
	Rows    int
	Columns int

	// Pixels holds the decoded intensity values in row-major order, after
	// rescale slope/intercept have been applied
	Pixels []float64
}

// SeriesInfo describes a DICOM series found on disk
type SeriesInfo struct {
	// Path is the directory holding the series files
	Path string `json:"path"`

	// Description is the DICOM SeriesDescription, e.g. "T1 AXIAL"
	Description string `json:"description"`

	// Modality is the DICOM modality code, e.g. "MR"
	Modality string `json:"modality"`

	// SeriesInstanceUID uniquely identifies the series
	SeriesInstanceUID string `json:"series_instance_uid"`

	// FileCount is the number of DICOM files in the series directory
	FileCount int `json:"file_count"`
}

// Volume represents a 3D volume stacked from DICOM slices
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order,
	// indexed as z*Width*Height + y*Width + x. Values are normalized
	// to the range [0, 1].
	Data []float64

	// Width is the width of the volume in voxels (DICOM Columns)
	Width int

	// Height is the height of the volume in voxels (DICOM Rows)
	Height int

	// Depth is the depth of the volume in voxels (number of slices)
	Depth int

	// VoxelSize is the physical size of each voxel in mm, taken from
	// PixelSpacing and SliceThickness
	VoxelSize struct {
		X, Y, Z float64
	}
}
