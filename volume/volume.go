// SPDX-License-Identifier: MIT

package volume

import "fmt"

// Volume is a spatial grid of response vectors: shape (spatial..., samples).
// Storage is voxel-major, so the samples of one voxel are contiguous:
// data[idx*samples + s] holds sample s at flat voxel index idx.
type Volume struct {
	shape   Shape
	samples int
	data    []float64
}

// New builds a Volume from a voxel-major buffer of len shape.Size()*samples.
// The buffer is copied.
// Errors: ErrInvalidShape, ErrNoSamples, ErrDimensionMismatch.
func New(shape Shape, samples int, data []float64) (*Volume, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}
	if samples <= 0 {
		return nil, ErrNoSamples
	}
	if len(data) != shape.Size()*samples {
		return nil, fmt.Errorf("volume.New: buffer length %d, want %d: %w",
			len(data), shape.Size()*samples, ErrDimensionMismatch)
	}
	buf := make([]float64, len(data))
	copy(buf, data)

	return &Volume{shape: append(Shape(nil), shape...), samples: samples, data: buf}, nil
}

// FromFunc builds a Volume by evaluating f(coord, sample) at every cell.
// Handy for synthetic data and tests. coord must not be retained by f.
func FromFunc(shape Shape, samples int, f func(coord []int, sample int) float64) (*Volume, error) {
	if _, err := NewShape(shape...); err != nil {
		return nil, err
	}
	if samples <= 0 {
		return nil, ErrNoSamples
	}
	v := &Volume{
		shape:   append(Shape(nil), shape...),
		samples: samples,
		data:    make([]float64, shape.Size()*samples),
	}
	coord := make([]int, len(shape))
	for idx := 0; idx < shape.Size(); idx++ {
		shape.coordinateInto(idx, coord)
		for s := 0; s < samples; s++ {
			v.data[idx*samples+s] = f(coord, s)
		}
	}

	return v, nil
}

// Shape returns a copy of the spatial shape.
func (v *Volume) Shape() Shape { return append(Shape(nil), v.shape...) }

// NSamples returns the length of the sample axis.
func (v *Volume) NSamples() int { return v.samples }

// Pattern returns the sample vector of voxel idx as a read-only view into the
// volume (capacity-limited, so appends never write into neighbors).
// Errors: ErrOutOfBounds.
func (v *Volume) Pattern(idx int) ([]float64, error) {
	if idx < 0 || idx >= v.shape.Size() {
		return nil, fmt.Errorf("Volume.Pattern(%d): %w", idx, ErrOutOfBounds)
	}
	lo, hi := idx*v.samples, (idx+1)*v.samples

	return v.data[lo:hi:hi], nil
}

// At returns sample s at coord.
// Errors: ErrDimensionMismatch, ErrOutOfBounds.
func (v *Volume) At(coord []int, s int) (float64, error) {
	idx, err := v.shape.Index(coord)
	if err != nil {
		return 0, err
	}
	if s < 0 || s >= v.samples {
		return 0, fmt.Errorf("Volume.At: sample %d: %w", s, ErrOutOfBounds)
	}

	return v.data[idx*v.samples+s], nil
}

// Transform returns a new Volume whose voxel series are produced by f.
// f receives the source series (read-only) and a zeroed destination of the same
// length. Voxels are visited in ascending flat order; the first error aborts.
func (v *Volume) Transform(f func(idx int, src, dst []float64) error) (*Volume, error) {
	out := &Volume{shape: v.Shape(), samples: v.samples, data: make([]float64, len(v.data))}
	for idx := 0; idx < v.shape.Size(); idx++ {
		lo, hi := idx*v.samples, (idx+1)*v.samples
		if err := f(idx, v.data[lo:hi:hi], out.data[lo:hi:hi]); err != nil {
			return nil, fmt.Errorf("Volume.Transform: voxel %d: %w", idx, err)
		}
	}

	return out, nil
}

// SelectSamples returns a new Volume whose sample axis is v's samples taken in
// the order given by order (order[k] is the source sample of new sample k).
// Indices may repeat or be omitted.
// Errors: ErrNoSamples (empty order), ErrOutOfBounds.
func (v *Volume) SelectSamples(order []int) (*Volume, error) {
	if len(order) == 0 {
		return nil, ErrNoSamples
	}
	for _, s := range order {
		if s < 0 || s >= v.samples {
			return nil, fmt.Errorf("Volume.SelectSamples: sample %d: %w", s, ErrOutOfBounds)
		}
	}
	n := len(order)
	out := &Volume{shape: v.Shape(), samples: n, data: make([]float64, v.shape.Size()*n)}
	for idx := 0; idx < v.shape.Size(); idx++ {
		src := v.data[idx*v.samples:]
		dst := out.data[idx*n:]
		for k, s := range order {
			dst[k] = src[s]
		}
	}

	return out, nil
}
