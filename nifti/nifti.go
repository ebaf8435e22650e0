// SPDX-License-Identifier: MIT

// Package nifti reads and writes single-file NIfTI-1 images (.nii, .nii.gz).
//
// Voxels are decoded to float64 whatever the stored datatype (uint8, int16,
// int32, float32, float64), with scl_slope/scl_inter applied. Images are
// written as little-endian float32. Image.Data keeps the NIfTI storage order
// (first axis fastest); ToVolume and FromScalar convert to and from the
// row-major layout of package volume.
package nifti

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/trossi/searchlight/volume"
)

// Image is a decoded NIfTI-1 image.
type Image struct {
	// Dims lists the dimension sizes, e.g. [x, y, z, t].
	Dims []int
	// Pixdim holds the grid spacing of each dimension.
	Pixdim []float64
	// Affine maps voxel indices to world coordinates.
	Affine [4][4]float64
	// Datatype is the stored voxel type code of a read image.
	Datatype int16
	// Description is the header descrip field.
	Description string
	// Data holds Size() voxels in NIfTI order (first axis fastest).
	Data []float64
}

// Size returns the number of voxels described by Dims.
func (img *Image) Size() int {
	n := 1
	for _, d := range img.Dims {
		n *= d
	}

	return n
}

// Read decodes a single-file NIfTI-1 stream (uncompressed).
// Errors: ErrBadHeader, ErrUnsupportedDatatype, ErrTruncated.
func Read(r io.Reader) (*Image, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("nifti.Read: %w: %w", ErrBadHeader, err)
	}
	h, order, err := decodeHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("nifti.Read: %w", err)
	}
	dims, err := h.dims()
	if err != nil {
		return nil, fmt.Errorf("nifti.Read: %w", err)
	}
	nvox, err := voxelCount(dims)
	if err != nil {
		return nil, fmt.Errorf("nifti.Read: %w", err)
	}
	width, err := bytesPerVoxel(h.Datatype)
	if err != nil {
		return nil, fmt.Errorf("nifti.Read: %w", err)
	}
	off := int64(h.VoxOffset)
	if off < minVoxOffset {
		return nil, fmt.Errorf("nifti.Read: vox_offset %d: %w", off, ErrBadHeader)
	}
	if _, err = io.CopyN(io.Discard, r, off-headerSize); err != nil {
		return nil, fmt.Errorf("nifti.Read: %w: %w", ErrTruncated, err)
	}

	img := &Image{
		Dims:        dims,
		Pixdim:      make([]float64, len(dims)),
		Affine:      h.affine(),
		Datatype:    h.Datatype,
		Description: cString(h.Descrip[:]),
	}
	for i := range dims {
		img.Pixdim[i] = float64(h.Pixdim[i+1])
	}

	// the buffer grows with the bytes actually read, so a header promising
	// more data than the stream holds fails as truncated, not at allocation
	var buf bytes.Buffer
	if _, err = io.CopyN(&buf, r, nvox*int64(width)); err != nil {
		return nil, fmt.Errorf("nifti.Read: %w: %w", ErrTruncated, err)
	}
	img.Data = decodeVoxels(buf.Bytes(), h.Datatype, width, order)

	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	if slope != 0 && !math.IsNaN(slope) && (slope != 1 || inter != 0) {
		for i, v := range img.Data {
			img.Data[i] = v*slope + inter
		}
	}

	return img, nil
}

func decodeVoxels(buf []byte, dt int16, width int, order binary.ByteOrder) []float64 {
	out := make([]float64, len(buf)/width)
	for i := range out {
		b := buf[i*width:]
		switch dt {
		case DTUint8:
			out[i] = float64(b[0])
		case DTInt16:
			out[i] = float64(int16(order.Uint16(b)))
		case DTInt32:
			out[i] = float64(int32(order.Uint32(b)))
		case DTFloat32:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case DTFloat64:
			out[i] = math.Float64frombits(order.Uint64(b))
		}
	}

	return out
}

// Write encodes img as a little-endian float32 NIfTI-1 stream with the affine
// stored as sform (and no qform).
// Errors: ErrBadHeader (bad Dims or len(Data) != Size()).
func Write(w io.Writer, img *Image) error {
	if len(img.Dims) < 1 || len(img.Dims) > 7 {
		return fmt.Errorf("nifti.Write: %d dims: %w", len(img.Dims), ErrBadHeader)
	}
	for _, d := range img.Dims {
		if d <= 0 || d > math.MaxInt16 {
			return fmt.Errorf("nifti.Write: dims %v: %w", img.Dims, ErrBadHeader)
		}
	}
	if len(img.Data) != img.Size() {
		return fmt.Errorf("nifti.Write: %d voxels for dims %v: %w", len(img.Data), img.Dims, ErrBadHeader)
	}

	h := header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  DTFloat32,
		Bitpix:    32,
		VoxOffset: minVoxOffset,
		SclSlope:  1,
		XYZTUnits: 2 | 8, // mm, s
		SformCode: 1,
		Magic:     magicSingle,
	}
	h.Dim[0] = int16(len(img.Dims))
	h.Pixdim[0] = 1
	for i, d := range img.Dims {
		h.Dim[i+1] = int16(d)
		h.Pixdim[i+1] = 1
		if i < len(img.Pixdim) && img.Pixdim[i] > 0 {
			h.Pixdim[i+1] = float32(img.Pixdim[i])
		}
	}
	for j := 0; j < 4; j++ {
		h.SrowX[j] = float32(img.Affine[0][j])
		h.SrowY[j] = float32(img.Affine[1][j])
		h.SrowZ[j] = float32(img.Affine[2][j])
	}
	copy(h.Descrip[:len(h.Descrip)-1], img.Description)

	var out bytes.Buffer
	out.Grow(minVoxOffset + 4*len(img.Data))
	if err := binary.Write(&out, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("nifti.Write: %w", err)
	}
	out.Write([]byte{0, 0, 0, 0}) // no extensions
	var b [4]byte
	for _, v := range img.Data {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
		out.Write(b[:])
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("nifti.Write: %w", err)
	}

	return nil
}

// ReadFile reads path; a ".gz" suffix selects gzip decompression.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("nifti.ReadFile(%s): %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	img, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return img, nil
}

// WriteFile writes img to path; a ".gz" suffix selects gzip compression.
func WriteFile(path string, img *Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if !strings.HasSuffix(path, ".gz") {
		return Write(f, img)
	}
	zw := gzip.NewWriter(f)
	if err = Write(zw, img); err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}

// ToVolume converts an image of up to 4 dimensions into a volume: the first
// three axes (or fewer) are spatial and the fourth, if any, is the sample axis.
// Errors: ErrBadHeader for images with more than 4 dimensions.
func (img *Image) ToVolume() (*volume.Volume, error) {
	spatial, samples, err := img.split()
	if err != nil {
		return nil, err
	}
	shape, err := volume.NewShape(spatial...)
	if err != nil {
		return nil, err
	}
	nvox := shape.Size()
	buf := make([]float64, nvox*samples)
	for f := 0; f < nvox; f++ {
		idx := fortranToRowMajor(f, spatial)
		for s := 0; s < samples; s++ {
			buf[idx*samples+s] = img.Data[s*nvox+f]
		}
	}

	return volume.New(shape, samples, buf)
}

// ToMask converts a single-sample image into a volume.Mask.
// Errors: ErrBadHeader (more than one sample), volume.ErrInvalidMask.
func (img *Image) ToMask() (*volume.Mask, error) {
	vol, err := img.ToVolume()
	if err != nil {
		return nil, err
	}
	if vol.NSamples() != 1 {
		return nil, fmt.Errorf("nifti: mask has %d samples: %w", vol.NSamples(), ErrBadHeader)
	}
	shape := vol.Shape()
	values := make([]float64, shape.Size())
	for idx := range values {
		p, _ := vol.Pattern(idx)
		values[idx] = p[0]
	}

	return volume.NewMask(shape, values)
}

// FromScalar builds a 4-D single-sample image from a scalar volume of up to
// three spatial dimensions, copying affine and pixdim.
func FromScalar(s *volume.Scalar, affine [4][4]float64, pixdim []float64) (*Image, error) {
	shape := s.Shape()
	if shape.NDim() > 3 {
		return nil, fmt.Errorf("nifti.FromScalar: %dD volume: %w", shape.NDim(), ErrBadHeader)
	}
	dims := append([]int(nil), shape...)
	for len(dims) < 3 {
		dims = append(dims, 1)
	}
	dims = append(dims, 1)

	values := s.Values()
	data := make([]float64, len(values))
	for f := range data {
		data[f] = values[fortranToRowMajor(f, shape)]
	}
	pd := make([]float64, len(dims))
	for i := range pd {
		pd[i] = 1
		if i < len(pixdim) && pixdim[i] > 0 {
			pd[i] = pixdim[i]
		}
	}

	return &Image{Dims: dims, Pixdim: pd, Affine: affine, Data: data}, nil
}

// split separates spatial dims from the sample count.
func (img *Image) split() ([]int, int, error) {
	if len(img.Data) != img.Size() {
		return nil, 0, fmt.Errorf("nifti: %d voxels for dims %v: %w", len(img.Data), img.Dims, ErrBadHeader)
	}
	switch n := len(img.Dims); {
	case n >= 1 && n <= 3:
		return append([]int(nil), img.Dims...), 1, nil
	case n == 4:
		return append([]int(nil), img.Dims[:3]...), img.Dims[3], nil
	default:
		return nil, 0, fmt.Errorf("nifti: %d dims: %w", n, ErrBadHeader)
	}
}

// fortranToRowMajor maps a first-axis-fastest flat index to the matching
// last-axis-fastest index over the same dims.
func fortranToRowMajor(f int, dims []int) int {
	idx, rem := 0, f
	coord := make([]int, len(dims))
	for i, d := range dims {
		coord[i] = rem % d
		rem /= d
	}
	for i, d := range dims {
		idx = idx*d + coord[i]
	}

	return idx
}
