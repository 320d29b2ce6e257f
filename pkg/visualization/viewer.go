// Package visualization extracts 2D slices from a 3D volume for display.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mrivis/internal/models"
)

// Viewer extracts 2D cross sections from a volume along the x, y or z axis
// and renders them as grayscale images.
type Viewer struct {
	// volumeData holds the 3D volume data, normalized to [0, 1]
	volumeData []float64

	// dimensions of the volume
	width  int
	height int
	depth  int

	// sliceGap is the physical distance between consecutive slices in mm
	sliceGap float64
}

// NewViewer creates a viewer over raw volume data
func NewViewer(volumeData []float64, width, height, depth int, sliceGap float64) *Viewer {
	return &Viewer{
		volumeData: volumeData,
		width:      width,
		height:     height,
		depth:      depth,
		sliceGap:   sliceGap,
	}
}

// NewViewerFromVolume creates a viewer over a loaded volume, using the
// z voxel size as the slice gap
func NewViewerFromVolume(v *models.Volume) *Viewer {
	return NewViewer(v.Data, v.Width, v.Height, v.Depth, v.VoxelSize.Z)
}

// AxisLength returns the number of slices available along the given axis
func (v *Viewer) AxisLength(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.width, nil
	case "y", "Y":
		return v.height, nil
	case "z", "Z":
		return v.depth, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// plane describes the 2D cross section produced for one viewing axis:
// its image dimensions and how an image pixel maps into the volume.
type plane struct {
	dx, dy int
	index  func(px, py int) int
}

// slicePlane resolves the viewing plane for an axis at a fixed position:
// x fixes a YZ plane, y an XZ plane, z an XY plane.
func (v *Viewer) slicePlane(axis string, position int) (*plane, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	stride := v.width * v.height

	switch axis {
	case "x", "X":
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		return &plane{v.depth, v.height, func(px, py int) int {
			return px*stride + py*v.width + position
		}}, nil
	case "y", "Y":
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		return &plane{v.width, v.depth, func(px, py int) int {
			return py*stride + position*v.width + px
		}}, nil
	case "z", "Z":
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		return &plane{v.width, v.height, func(px, py int) int {
			return position*stride + py*v.width + px
		}}, nil
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// ExtractSlice extracts a 2D slice from the 3D volume along the specified
// axis, rendered as a 16-bit grayscale image
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	p, err := v.slicePlane(axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewGray16(image.Rect(0, 0, p.dx, p.dy))
	for py := 0; py < p.dy; py++ {
		for px := 0; px < p.dx; px++ {
			idx := p.index(px, py)
			if idx >= len(v.volumeData) {
				continue
			}
			value := uint16(math.Max(0, math.Min(65535, v.volumeData[idx]*65535)))
			img.SetGray16(px, py, color.Gray16{Y: value})
		}
	}

	return img, nil
}

// ExtractRegion extracts a 3D subregion from the volume
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) ([]float64, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	if startX+sizeX > v.width || startY+sizeY > v.height || startZ+sizeZ > v.depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, sizeX*sizeY*sizeZ)

	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				srcIdx := (startZ+z)*v.width*v.height + (startY+y)*v.width + (startX+x)
				dstIdx := z*sizeX*sizeY + y*sizeX + x

				if srcIdx < len(v.volumeData) && dstIdx < len(region) {
					region[dstIdx] = v.volumeData[srcIdx]
				}
			}
		}
	}

	return region, nil
}

// WritePNG encodes a slice image as PNG
func (v *Viewer) WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence extracts and saves a sequence of slices along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	maxPos, err := v.AxisLength(axis)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// Stats summarizes the intensity distribution of the volume
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// VolumeStats computes intensity statistics over the whole volume
func (v *Viewer) VolumeStats() Stats {
	if len(v.volumeData) == 0 {
		return Stats{}
	}
	return Stats{
		Min:    floats.Min(v.volumeData),
		Max:    floats.Max(v.volumeData),
		Mean:   stat.Mean(v.volumeData, nil),
		StdDev: stat.StdDev(v.volumeData, nil),
	}
}

// Histogram bins the volume intensities into the given number of equal-width
// bins over [0, 1] and returns the voxel count per bin
func (v *Viewer) Histogram(bins int) []float64 {
	if bins <= 0 || len(v.volumeData) == 0 {
		return nil
	}

	// stat.Histogram requires sorted data; work on a copy
	sorted := make([]float64, len(v.volumeData))
	copy(sorted, v.volumeData)
	sort.Float64s(sorted)

	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, 1)
	// Widen the last divider so the maximum value lands in the final bin
	dividers[bins] = math.Nextafter(1, 2)

	return stat.Histogram(nil, dividers, sorted, nil)
}
