// SPDX-License-Identifier: MIT

package matrix

const opUpperTriangle = "UpperTriangle"

// UpperTriangle flattens the strict upper triangle (i<j) of a square matrix in
// row-major order: (0,1), (0,2), …, (0,n-1), (1,2), … .
// Two matrices of the same size always yield index-aligned slices.
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: O(n²) time, n(n-1)/2 output.
func UpperTriangle(m Matrix) ([]float64, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opUpperTriangle, err)
	}
	n := m.Rows()
	if n < 2 {
		return []float64{}, nil
	}
	out := make([]float64, 0, n*(n-1)/2)

	if d, ok := m.(*Dense); ok {
		for i := 0; i < n; i++ {
			out = append(out, d.data[i*n+i+1:(i+1)*n]...)
		}
		return out, nil
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v, err := m.At(i, j)
			if err != nil {
				return nil, matrixErrorf(opUpperTriangle, err)
			}
			out = append(out, v)
		}
	}

	return out, nil
}
