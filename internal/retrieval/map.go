package retrieval

import (
	"errors"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmpty             = errors.New("retrieval: empty query or gallery")
	ErrShapeMismatch     = errors.New("retrieval: row count does not match label count")
	ErrDimensionMismatch = errors.New("retrieval: query and gallery dimensions differ")
	ErrIndexOutOfRange   = errors.New("retrieval: query index out of range")
)

// Option adjusts how rankings are scored.
type Option func(*options)

type options struct {
	excludeSelf bool
}

// WithExcludeSelf drops gallery item i from the ranking of query i. Use it
// when query and gallery are the same matrix.
func WithExcludeSelf(exclude bool) Option {
	return func(o *options) { o.excludeSelf = exclude }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MeanAveragePrecision scores query rows against gallery rows that share one
// label vector.
func MeanAveragePrecision(q, g mat.Matrix, labels []int, opts ...Option) (float64, error) {
	return MeanAveragePrecisionLabels(q, g, labels, labels, opts...)
}

// MeanAveragePrecisionLabels is MeanAveragePrecision with separate query and
// gallery labels.
func MeanAveragePrecisionLabels(q, g mat.Matrix, qLabels, gLabels []int, opts ...Option) (float64, error) {
	aps, err := PerQuery(q, g, qLabels, gLabels, opts...)
	if err != nil {
		return 0, err
	}
	return stat.Mean(aps, nil), nil
}

// PerQuery returns the average precision of every query row.
func PerQuery(q, g mat.Matrix, qLabels, gLabels []int, opts ...Option) ([]float64, error) {
	o := collect(opts)
	if err := checkLabels(q, g, qLabels, gLabels); err != nil {
		return nil, err
	}
	dist, err := CosineDistances(q, g)
	if err != nil {
		return nil, err
	}
	nq, ng := dist.Dims()
	aps := make([]float64, nq)
	row := make([]float64, ng)
	for i := 0; i < nq; i++ {
		mat.Row(row, i, dist)
		order := Rank(row)
		if o.excludeSelf {
			order = dropIndex(order, i)
		}
		aps[i] = AveragePrecision(order, qLabels[i], gLabels)
	}
	return aps, nil
}

// Ranking is the ordered gallery of one query together with the distance of
// every gallery row (indexed by gallery row, not by rank).
type Ranking struct {
	Order     []int
	Distances []float64
	AP        float64
}

// RankQuery ranks the gallery for query row i and scores it.
func RankQuery(q, g mat.Matrix, qLabels, gLabels []int, i int, opts ...Option) (*Ranking, error) {
	o := collect(opts)
	if err := checkLabels(q, g, qLabels, gLabels); err != nil {
		return nil, err
	}
	dist, err := CosineDistanceRow(q, i, g)
	if err != nil {
		return nil, err
	}
	order := Rank(dist)
	if o.excludeSelf {
		order = dropIndex(order, i)
	}
	return &Ranking{
		Order:     order,
		Distances: dist,
		AP:        AveragePrecision(order, qLabels[i], gLabels),
	}, nil
}

// RoundPercent converts a fraction to a percentage rounded to two decimals.
// The exact binary value is rounded with ties to even, so 1/32 gives 3.12.
func RoundPercent(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v*100, 'f', 2, 64), 64)
	if err != nil {
		return v * 100
	}
	return r
}

func checkLabels(q, g mat.Matrix, qLabels, gLabels []int) error {
	nq, _ := q.Dims()
	ng, _ := g.Dims()
	if nq == 0 || ng == 0 {
		return ErrEmpty
	}
	if nq != len(qLabels) {
		return fmt.Errorf("%w: %d query rows, %d labels", ErrShapeMismatch, nq, len(qLabels))
	}
	if ng != len(gLabels) {
		return fmt.Errorf("%w: %d gallery rows, %d labels", ErrShapeMismatch, ng, len(gLabels))
	}
	return nil
}
