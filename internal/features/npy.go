package features

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sbinet/npyio/npy"
	"gonum.org/v1/gonum/mat"
)

// npyCodec handles the NumPy .npy files written by numpy.save.
type npyCodec struct{}

func (npyCodec) readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, err
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 2 || shape[0] == 0 || shape[1] == 0 {
		return nil, fmt.Errorf("%w: want a non-empty 2-D array, got %v", ErrBadShape, shape)
	}

	var data []float64
	switch dtype := strings.TrimLeft(r.Header.Descr.Type, "<>|="); dtype {
	case "f8":
		if err := r.Read(&data); err != nil {
			return nil, err
		}
	case "f4":
		// torch features are usually saved as float32
		var raw []float32
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		data = make([]float64, len(raw))
		for i, v := range raw {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported feature dtype %q", ErrBadShape, dtype)
	}

	rows, cols := shape[0], shape[1]
	if !r.Header.Descr.Fortran {
		return mat.NewDense(rows, cols, data), nil
	}
	m := mat.NewDense(rows, cols, nil)
	m.Copy(mat.NewDense(cols, rows, data).T())
	return m, nil
}

func (npyCodec) readLabels(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, err
	}
	shape := r.Header.Descr.Shape
	// (n,) and (n, 1) are both accepted
	if len(shape) == 0 || len(shape) > 2 || (len(shape) == 2 && shape[1] != 1) {
		return nil, fmt.Errorf("%w: want a label vector, got %v", ErrBadShape, shape)
	}

	switch dtype := strings.TrimLeft(r.Header.Descr.Type, "<>|="); dtype {
	case "i1":
		return readInts[int8](r)
	case "i2":
		return readInts[int16](r)
	case "i4":
		return readInts[int32](r)
	case "i8":
		return readInts[int64](r)
	case "u1":
		return readInts[uint8](r)
	case "u2":
		return readInts[uint16](r)
	case "u4":
		return readInts[uint32](r)
	case "u8":
		return readInts[uint64](r)
	case "f4":
		return readIntegralFloats[float32](r)
	case "f8":
		return readIntegralFloats[float64](r)
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrBadLabel, dtype)
	}
}

func readInts[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64](r *npy.Reader) ([]int, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out, nil
}

func readIntegralFloats[T float32 | float64](r *npy.Reader) ([]int, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		f := float64(v)
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v at index %d", ErrBadLabel, f, i)
		}
		out[i] = int(f)
	}
	return out, nil
}

func (npyCodec) writeMatrix(path string, m *mat.Dense) error {
	return writeFile(path, func(f *os.File) error { return npy.Write(f, m) })
}

func (npyCodec) writeLabels(path string, labels []int) error {
	raw := make([]int64, len(labels))
	for i, v := range labels {
		raw[i] = int64(v)
	}
	return writeFile(path, func(f *os.File) error { return npy.Write(f, raw) })
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
