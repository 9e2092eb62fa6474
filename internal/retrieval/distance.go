package retrieval

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CosineDistances returns the nq x ng matrix of 1 - cos(q_i, g_j).
// A zero row has similarity 0, and so distance 1, to every other row.
func CosineDistances(q, g mat.Matrix) (*mat.Dense, error) {
	nq, dq := q.Dims()
	ng, dg := g.Dims()
	if nq == 0 || ng == 0 {
		return nil, ErrEmpty
	}
	if dq != dg {
		return nil, fmt.Errorf("%w: query has %d columns, gallery has %d", ErrDimensionMismatch, dq, dg)
	}
	qn := NormalizeL2(q)
	gn := NormalizeL2(g)

	dist := mat.NewDense(nq, ng, nil)
	dist.Mul(qn, gn.T())
	dist.Apply(func(_, _ int, sim float64) float64 { return 1 - sim }, dist)
	return dist, nil
}

// CosineDistanceRow returns the distances from query row i to every gallery row.
func CosineDistanceRow(q mat.Matrix, i int, g mat.Matrix) ([]float64, error) {
	nq, dq := q.Dims()
	ng, dg := g.Dims()
	if nq == 0 || ng == 0 {
		return nil, ErrEmpty
	}
	if dq != dg {
		return nil, fmt.Errorf("%w: query has %d columns, gallery has %d", ErrDimensionMismatch, dq, dg)
	}
	if i < 0 || i >= nq {
		return nil, fmt.Errorf("%w: query %d of %d", ErrIndexOutOfRange, i, nq)
	}
	qi := mat.Row(nil, i, q)
	if n := floats.Norm(qi, 2); n > 0 {
		floats.Scale(1/n, qi)
	}
	gn := NormalizeL2(g)

	sims := mat.NewVecDense(ng, nil)
	sims.MulVec(gn, mat.NewVecDense(dq, qi))
	out := make([]float64, ng)
	for j := range out {
		out[j] = 1 - sims.AtVec(j)
	}
	return out, nil
}
