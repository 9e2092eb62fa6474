package retrieval

import (
	"math"
	"sort"
)

// Rank returns gallery indices ordered by ascending distance. Ties keep index
// order and NaN distances sort last.
func Rank(dist []float64) []int {
	order := make([]int, len(dist))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := dist[order[a]], dist[order[b]]
		if math.IsNaN(db) {
			return !math.IsNaN(da)
		}
		return da < db
	})
	return order
}

// AveragePrecision walks a ranked gallery and averages the precision at every
// rank holding an item with the query's label. It is 0 when nothing is relevant.
func AveragePrecision(order []int, queryLabel int, galleryLabels []int) float64 {
	var p, r float64
	for j, idx := range order {
		if galleryLabels[idx] != queryLabel {
			continue
		}
		r++
		p += r / float64(j+1)
	}
	if r == 0 {
		return 0
	}
	return p / r
}

func dropIndex(order []int, idx int) []int {
	out := order[:0]
	for _, v := range order {
		if v != idx {
			out = append(out, v)
		}
	}
	return out
}
