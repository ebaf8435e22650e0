// SPDX-License-Identifier: MIT

// Package braindata bundles a 4-D response volume with its analysis mask,
// per-sample condition labels and chunk (run) ids, and the voxel-to-world
// affine, as loaded from a dataset directory:
//
//	<dir>/data.nii[.gz]   x × y × z × samples
//	<dir>/mask.nii[.gz]   x × y × z, values 0/1
//	<dir>/labels.txt      one "label chunk" line per sample
package braindata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/trossi/searchlight/nifti"
	"github.com/trossi/searchlight/volume"
)

// Sentinel errors for dataset loading.
var (
	// ErrMissingFile indicates a dataset directory without one of its files.
	ErrMissingFile = errors.New("braindata: missing dataset file")
	// ErrLabelFormat indicates a malformed labels file or a label count that
	// does not match the data.
	ErrLabelFormat = errors.New("braindata: malformed labels")
)

// File names looked up by FromDirectory; each may carry an extra ".gz".
const (
	DataFile   = "data.nii"
	MaskFile   = "mask.nii"
	LabelsFile = "labels.txt"
)

// Dataset is one subject's data ready for analysis.
type Dataset struct {
	Data   *volume.Volume
	Mask   *volume.Mask
	Labels []string
	Chunks []int
	Affine [4][4]float64
	// Pixdim holds the spatial voxel size.
	Pixdim []float64
}

// Options controls FromDirectory.
type Options struct {
	// ApplyMask zeroes every voxel outside the mask after loading.
	ApplyMask bool
}

// FromDirectory loads data, mask and labels from dir.
// Errors: ErrMissingFile, ErrLabelFormat, volume.ErrDimensionMismatch (mask
// and data grids differ), plus nifti decoding errors.
func FromDirectory(dir string, opts Options) (*Dataset, error) {
	dataPath, err := find(dir, DataFile)
	if err != nil {
		return nil, err
	}
	maskPath, err := find(dir, MaskFile)
	if err != nil {
		return nil, err
	}

	img, err := nifti.ReadFile(dataPath)
	if err != nil {
		return nil, err
	}
	data, err := img.ToVolume()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dataPath, err)
	}
	maskImg, err := nifti.ReadFile(maskPath)
	if err != nil {
		return nil, err
	}
	mask, err := maskImg.ToMask()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", maskPath, err)
	}
	if !mask.Shape().Equal(data.Shape()) {
		return nil, fmt.Errorf("braindata: mask %s, data %s: %w", mask.Shape(), data.Shape(), volume.ErrDimensionMismatch)
	}

	labelsPath := filepath.Join(dir, LabelsFile)
	f, err := os.Open(labelsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", labelsPath, ErrMissingFile)
		}
		return nil, err
	}
	defer f.Close()
	labels, chunks, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelsPath, err)
	}
	if len(labels) != data.NSamples() {
		return nil, fmt.Errorf("%s: %d labels for %d samples: %w", labelsPath, len(labels), data.NSamples(), ErrLabelFormat)
	}

	ds := &Dataset{
		Data:   data,
		Mask:   mask,
		Labels: labels,
		Chunks: chunks,
		Affine: img.Affine,
		Pixdim: append([]float64(nil), img.Pixdim[:min(3, len(img.Pixdim))]...),
	}
	if opts.ApplyMask {
		if ds.Data, err = applyMask(data, mask); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// find returns dir/name, or dir/name.gz when only the compressed file exists.
func find(dir, name string) (string, error) {
	for _, p := range []string{filepath.Join(dir, name), filepath.Join(dir, name+".gz")} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s[.gz] in %s: %w", name, dir, ErrMissingFile)
}

func applyMask(data *volume.Volume, mask *volume.Mask) (*volume.Volume, error) {
	return data.Transform(func(idx int, src, dst []float64) error {
		if mask.Contains(idx) {
			copy(dst, src)
		}
		return nil
	})
}

// SortByLabels returns a copy whose samples are stably sorted by label;
// chunks follow their samples. The receiver is unchanged.
func (ds *Dataset) SortByLabels() (*Dataset, error) {
	order := make([]int, len(ds.Labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ds.Labels[order[a]] < ds.Labels[order[b]] })

	data, err := ds.Data.SelectSamples(order)
	if err != nil {
		return nil, fmt.Errorf("SortByLabels: %w", err)
	}
	out := *ds
	out.Data = data
	out.Labels = make([]string, len(order))
	out.Chunks = make([]int, len(order))
	for k, s := range order {
		out.Labels[k] = ds.Labels[s]
		out.Chunks[k] = ds.Chunks[s]
	}
	out.Pixdim = append([]float64(nil), ds.Pixdim...)

	return &out, nil
}

// Write stores a per-voxel result as a single-sample NIfTI image carrying the
// dataset's affine. A ".gz" suffix compresses it.
func (ds *Dataset) Write(path string, scores *volume.Scalar) error {
	if !scores.Shape().Equal(ds.Data.Shape()) {
		return fmt.Errorf("braindata: scores %s, data %s: %w", scores.Shape(), ds.Data.Shape(), volume.ErrDimensionMismatch)
	}
	img, err := nifti.FromScalar(scores, ds.Affine, ds.Pixdim)
	if err != nil {
		return err
	}
	img.Description = "searchlight rsa"

	return nifti.WriteFile(path, img)
}
