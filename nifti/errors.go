// SPDX-License-Identifier: MIT

package nifti

import "errors"

// Sentinel errors for NIfTI I/O.
var (
	// ErrBadHeader indicates a header that is not a single-file NIfTI-1 header
	// or carries inconsistent dimensions.
	ErrBadHeader = errors.New("nifti: invalid NIfTI-1 header")
	// ErrUnsupportedDatatype indicates a voxel datatype this package does not decode.
	ErrUnsupportedDatatype = errors.New("nifti: unsupported datatype")
	// ErrTruncated indicates a file that ends before all voxels were read.
	ErrTruncated = errors.New("nifti: truncated voxel data")
)
