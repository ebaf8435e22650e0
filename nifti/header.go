// SPDX-License-Identifier: MIT

package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	headerSize = 348
	// minVoxOffset is the header plus the 4-byte extension flag.
	minVoxOffset = 352
	// maxVoxels bounds the product of the header dims (64 GiB of float64).
	maxVoxels int64 = 1 << 33
)

// NIfTI-1 datatype codes handled by this package.
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
)

var magicSingle = [4]byte{'n', '+', '1', 0}

// header mirrors the 348-byte NIfTI-1 header field by field, so
// encoding/binary can read and write it in either byte order.
type header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// decodeHeader detects the byte order from sizeof_hdr and decodes raw.
func decodeHeader(raw []byte) (*header, binary.ByteOrder, error) {
	if len(raw) < headerSize {
		return nil, nil, fmt.Errorf("header has %d bytes: %w", len(raw), ErrBadHeader)
	}
	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(raw) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(raw) == headerSize:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("sizeof_hdr is not %d: %w", headerSize, ErrBadHeader)
	}
	h := new(header)
	if err := binary.Read(bytes.NewReader(raw[:headerSize]), order, h); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if h.Magic != magicSingle {
		return nil, nil, fmt.Errorf("magic %q: %w", h.Magic[:3], ErrBadHeader)
	}

	return h, order, nil
}

// dims returns the used dimension sizes (dim[1..dim[0]]).
func (h *header) dims() ([]int, error) {
	n := int(h.Dim[0])
	if n < 1 || n > 7 {
		return nil, fmt.Errorf("dim[0] = %d: %w", n, ErrBadHeader)
	}
	out := make([]int, n)
	for i := range out {
		d := int(h.Dim[i+1])
		if d <= 0 {
			return nil, fmt.Errorf("dim[%d] = %d: %w", i+1, d, ErrBadHeader)
		}
		out[i] = d
	}

	return out, nil
}

// voxelCount multiplies dims, rejecting products above maxVoxels so the
// byte count of a crafted header cannot overflow.
func voxelCount(dims []int) (int64, error) {
	n := int64(1)
	for _, d := range dims {
		if n > maxVoxels/int64(d) {
			return 0, fmt.Errorf("dims %v exceed %d voxels: %w", dims, maxVoxels, ErrBadHeader)
		}
		n *= int64(d)
	}

	return n, nil
}

// bytesPerVoxel maps a datatype code to its storage size.
func bytesPerVoxel(dt int16) (int, error) {
	switch dt {
	case DTUint8:
		return 1, nil
	case DTInt16:
		return 2, nil
	case DTInt32, DTFloat32:
		return 4, nil
	case DTFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("datatype %d: %w", dt, ErrUnsupportedDatatype)
	}
}

// affine returns the voxel-to-world matrix: sform when set, else qform, else
// a plain pixdim scaling.
func (h *header) affine() [4][4]float64 {
	var a [4][4]float64
	a[3][3] = 1
	switch {
	case h.SformCode > 0:
		for j := 0; j < 4; j++ {
			a[0][j] = float64(h.SrowX[j])
			a[1][j] = float64(h.SrowY[j])
			a[2][j] = float64(h.SrowZ[j])
		}
	case h.QformCode > 0:
		b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
		aa := 1 - (b*b + c*c + d*d)
		if aa < 1e-7 {
			// b,c,d describe a 180° rotation; renormalize
			n := 1 / math.Sqrt(b*b+c*c+d*d)
			b, c, d, aa = b*n, c*n, d*n, 0
		} else {
			aa = math.Sqrt(aa)
		}
		qfac := 1.0
		if h.Pixdim[0] < 0 {
			qfac = -1
		}
		dx, dy, dz := float64(h.Pixdim[1]), float64(h.Pixdim[2]), qfac*float64(h.Pixdim[3])
		r := [3][3]float64{
			{aa*aa + b*b - c*c - d*d, 2 * (b*c - aa*d), 2 * (b*d + aa*c)},
			{2 * (b*c + aa*d), aa*aa + c*c - b*b - d*d, 2 * (c*d - aa*b)},
			{2 * (b*d - aa*c), 2 * (c*d + aa*b), aa*aa + d*d - c*c - b*b},
		}
		for i := 0; i < 3; i++ {
			a[i][0] = r[i][0] * dx
			a[i][1] = r[i][1] * dy
			a[i][2] = r[i][2] * dz
		}
		a[0][3], a[1][3], a[2][3] = float64(h.QoffsetX), float64(h.QoffsetY), float64(h.QoffsetZ)
	default:
		for i := 0; i < 3; i++ {
			a[i][i] = float64(h.Pixdim[i+1])
			if a[i][i] == 0 {
				a[i][i] = 1
			}
		}
	}

	return a
}

// cString trims a fixed-size header text field at its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
