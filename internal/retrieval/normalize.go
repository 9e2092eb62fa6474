package retrieval

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NormalizeL1 returns a copy of m with every row divided by the sum of its
// absolute values. All-zero rows are left unchanged.
func NormalizeL1(m mat.Matrix) *mat.Dense {
	return scaleRows(m, 1)
}

// NormalizeL2 returns a copy of m with unit-length rows. All-zero rows are
// left unchanged.
func NormalizeL2(m mat.Matrix) *mat.Dense {
	return scaleRows(m, 2)
}

func scaleRows(m mat.Matrix, norm float64) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return &mat.Dense{}
	}
	out := mat.DenseCopyOf(m)
	r, _ := out.Dims()
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		if n := floats.Norm(row, norm); n > 0 {
			floats.Scale(1/n, row)
		}
	}
	return out
}
