// Package features reads and writes the per-run feature files produced by the
// training pipeline: one matrix per modality plus a label vector.
package features

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"cmcl/internal/domain"
)

// Format names an on-disk array encoding.
type Format string

const (
	FormatNPY     Format = "npy"
	FormatParquet Format = "parquet"
)

var (
	ErrUnknownFormat = errors.New("features: unknown format")
	ErrShapeMismatch = errors.New("features: row counts differ between files")
	ErrBadShape      = errors.New("features: unexpected array shape")
	ErrBadLabel      = errors.New("features: label is not an integer")
)

// ParseFormat accepts "npy" and "parquet"; the empty string selects npy.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatNPY, "":
		return FormatNPY, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Files are the paths of one run for one image view count.
type Files struct {
	Image  string
	Point  string
	Mesh   string
	Labels string
}

// Paths applies the naming convention img_feat_{views}, pt_feat, mesh_feat and
// label inside dir.
func Paths(dir string, views int, f Format) Files {
	ext := "." + string(f)
	return Files{
		Image:  filepath.Join(dir, fmt.Sprintf("img_feat_%d%s", views, ext)),
		Point:  filepath.Join(dir, "pt_feat"+ext),
		Mesh:   filepath.Join(dir, "mesh_feat"+ext),
		Labels: filepath.Join(dir, "label"+ext),
	}
}

// Matrix returns the feature path of a modality.
func (f Files) Matrix(m domain.Modality) string {
	switch m {
	case domain.Image:
		return f.Image
	case domain.Point:
		return f.Point
	default:
		return f.Mesh
	}
}

type codec interface {
	readMatrix(path string) (*mat.Dense, error)
	readLabels(path string) ([]int, error)
	writeMatrix(path string, m *mat.Dense) error
	writeLabels(path string, labels []int) error
}

func newCodec(f Format) (codec, error) {
	switch f {
	case FormatNPY:
		return npyCodec{}, nil
	case FormatParquet:
		return parquetCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Loader reads feature sets in a single format.
type Loader struct {
	format Format
	codec  codec
}

// NewLoader creates a loader for the given format.
func NewLoader(f Format) (*Loader, error) {
	c, err := newCodec(f)
	if err != nil {
		return nil, err
	}
	return &Loader{format: f, codec: c}, nil
}

// Format returns the format this loader reads.
func (l *Loader) Format() Format { return l.format }

// Load reads the image features for the view count, the point and mesh
// features and the labels from dir. Matrices are returned as stored.
func (l *Loader) Load(ctx context.Context, dir string, views int) (*domain.FeatureSet, error) {
	files := Paths(dir, views, l.format)
	fs := &domain.FeatureSet{Views: views, Features: make(map[domain.Modality]*mat.Dense, len(domain.Modalities))}
	for _, m := range domain.Modalities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := files.Matrix(m)
		data, err := l.codec.readMatrix(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		fs.Features[m] = data
	}
	labels, err := l.codec.readLabels(files.Labels)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", files.Labels, err)
	}
	fs.Labels = labels
	if err := Validate(fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// Writer stores feature sets in a single format.
type Writer struct {
	format Format
	codec  codec
}

// NewWriter creates a writer for the given format.
func NewWriter(f Format) (*Writer, error) {
	c, err := newCodec(f)
	if err != nil {
		return nil, err
	}
	return &Writer{format: f, codec: c}, nil
}

// Write stores fs in dir under the naming convention. Existing files are
// overwritten.
func (w *Writer) Write(dir string, fs *domain.FeatureSet) error {
	if err := Validate(fs); err != nil {
		return err
	}
	files := Paths(dir, fs.Views, w.format)
	for _, m := range domain.Modalities {
		path := files.Matrix(m)
		if err := w.codec.writeMatrix(path, fs.Features[m]); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.codec.writeLabels(files.Labels, fs.Labels); err != nil {
		return fmt.Errorf("write %s: %w", files.Labels, err)
	}
	return nil
}

// Validate checks that every modality is present and that all matrices have
// one row per label.
func Validate(fs *domain.FeatureSet) error {
	n := len(fs.Labels)
	if n == 0 {
		return fmt.Errorf("%w: no labels", ErrBadShape)
	}
	for _, m := range domain.Modalities {
		data := fs.Matrix(m)
		if data == nil || data.IsEmpty() {
			return fmt.Errorf("%w: missing %s features", ErrBadShape, m)
		}
		if r, _ := data.Dims(); r != n {
			return fmt.Errorf("%w: %s has %d rows, %d labels", ErrShapeMismatch, m, r, n)
		}
	}
	return nil
}
