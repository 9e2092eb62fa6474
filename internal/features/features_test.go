package features

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"cmcl/internal/domain"
)

func sampleSet(views int) *domain.FeatureSet {
	return &domain.FeatureSet{
		Views: views,
		Features: map[domain.Modality]*mat.Dense{
			domain.Image: mat.NewDense(3, 2, []float64{1, 0, 0, 1, 0.5, 0.5}),
			domain.Point: mat.NewDense(3, 4, []float64{1, 2, 3, 4, 4, 3, 2, 1, 0, 0, 1, 0}),
			domain.Mesh:  mat.NewDense(3, 3, []float64{0.1, 0.2, 0.7, 0.3, 0.3, 0.4, 1, 0, 0}),
		},
		Labels: []int{4, 0, 4},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatNPY, f)

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	_, err = ParseFormat("hdf5")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestPaths(t *testing.T) {
	files := Paths("run", 4, FormatNPY)
	assert.Equal(t, filepath.Join("run", "img_feat_4.npy"), files.Image)
	assert.Equal(t, filepath.Join("run", "pt_feat.npy"), files.Point)
	assert.Equal(t, filepath.Join("run", "mesh_feat.npy"), files.Mesh)
	assert.Equal(t, filepath.Join("run", "label.npy"), files.Labels)
	assert.Equal(t, files.Point, files.Matrix(domain.Point))
}

func TestWriteThenLoad(t *testing.T) {
	for _, format := range []Format{FormatNPY, FormatParquet} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			want := sampleSet(2)

			w, err := NewWriter(format)
			require.NoError(t, err)
			require.NoError(t, w.Write(dir, want))

			l, err := NewLoader(format)
			require.NoError(t, err)
			got, err := l.Load(context.Background(), dir, 2)
			require.NoError(t, err)

			assert.Equal(t, 2, got.Views)
			assert.Equal(t, want.Labels, got.Labels)
			for _, m := range domain.Modalities {
				assert.True(t, mat.Equal(want.Matrix(m), got.Matrix(m)), "modality %s", m)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(FormatNPY)
	require.NoError(t, err)
	require.NoError(t, w.Write(dir, sampleSet(1)))

	l, err := NewLoader(FormatNPY)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), dir, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "img_feat_4.npy")
}

func TestLoad_Cancelled(t *testing.T) {
	l, err := NewLoader(FormatNPY)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, t.TempDir(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_RowCountMismatch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(FormatNPY)
	require.NoError(t, err)
	require.NoError(t, w.Write(dir, sampleSet(1)))
	writeNPY(t, filepath.Join(dir, "label.npy"), []int64{1, 2})

	l, err := NewLoader(FormatNPY)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), dir, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestWrite_RejectsInconsistentSet(t *testing.T) {
	fs := sampleSet(1)
	fs.Labels = fs.Labels[:2]
	w, err := NewWriter(FormatParquet)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Write(t.TempDir(), fs), ErrShapeMismatch)

	fs = sampleSet(1)
	delete(fs.Features, domain.Mesh)
	assert.ErrorIs(t, w.Write(t.TempDir(), fs), ErrBadShape)
}

func TestNPYLabels_Dtypes(t *testing.T) {
	dir := t.TempDir()
	c := npyCodec{}

	path := filepath.Join(dir, "i4.npy")
	writeNPY(t, path, []int32{3, 1, 2})
	labels, err := c.readLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, labels)

	path = filepath.Join(dir, "f8.npy")
	writeNPY(t, path, []float64{0, 39, 7})
	labels, err = c.readLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 39, 7}, labels)

	path = filepath.Join(dir, "frac.npy")
	writeNPY(t, path, []float64{0, 1.5})
	_, err = c.readLabels(path)
	assert.ErrorIs(t, err, ErrBadLabel)
}

func TestNPYMatrix_RejectsVectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pt_feat.npy")
	writeNPY(t, path, []float32{1, 2, 3})
	_, err := npyCodec{}.readMatrix(path)
	assert.ErrorIs(t, err, ErrBadShape)
}

func writeNPY(t *testing.T, path string, val any) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, npy.Write(f, val))
}
