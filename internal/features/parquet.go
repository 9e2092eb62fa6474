package features

import (
	"fmt"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/gonum/mat"
)

// featureRow is one sample of a modality. Index is the sample position shared
// with the label file.
type featureRow struct {
	Index  int64     `parquet:"index"`
	Vector []float64 `parquet:"vector"`
}

type labelRow struct {
	Index int64 `parquet:"index"`
	Label int64 `parquet:"label"`
}

type parquetCodec struct{}

func (parquetCodec) readMatrix(path string) (*mat.Dense, error) {
	rows, err := parquet.ReadFile[featureRow](path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadShape)
	}
	if err := sortByIndex(rows, func(r featureRow) int64 { return r.Index }); err != nil {
		return nil, err
	}
	dim := len(rows[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty vectors", ErrBadShape)
	}
	m := mat.NewDense(len(rows), dim, nil)
	for i, r := range rows {
		if len(r.Vector) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrBadShape, r.Index, len(r.Vector), dim)
		}
		m.SetRow(i, r.Vector)
	}
	return m, nil
}

func (parquetCodec) readLabels(path string) ([]int, error) {
	rows, err := parquet.ReadFile[labelRow](path)
	if err != nil {
		return nil, err
	}
	if err := sortByIndex(rows, func(r labelRow) int64 { return r.Index }); err != nil {
		return nil, err
	}
	labels := make([]int, len(rows))
	for i, r := range rows {
		labels[i] = int(r.Label)
	}
	return labels, nil
}

func (parquetCodec) writeMatrix(path string, m *mat.Dense) error {
	r, _ := m.Dims()
	rows := make([]featureRow, r)
	for i := range rows {
		rows[i] = featureRow{Index: int64(i), Vector: mat.Row(nil, i, m)}
	}
	return writeParquet(path, rows)
}

func (parquetCodec) writeLabels(path string, labels []int) error {
	rows := make([]labelRow, len(labels))
	for i, v := range labels {
		rows[i] = labelRow{Index: int64(i), Label: int64(v)}
	}
	return writeParquet(path, rows)
}

func writeParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	pw := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		_ = f.Close()
		return err
	}
	if err := pw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// sortByIndex orders rows by their sample index and checks that the indices
// are exactly 0..n-1.
func sortByIndex[T any](rows []T, index func(T) int64) error {
	sort.SliceStable(rows, func(i, j int) bool { return index(rows[i]) < index(rows[j]) })
	for i, r := range rows {
		if index(r) != int64(i) {
			return fmt.Errorf("%w: sample indices are not contiguous at %d", ErrBadShape, i)
		}
	}
	return nil
}
