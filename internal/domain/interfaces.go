package domain

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Modality is one of the co-embedded input representations of a 3D object.
type Modality string

const (
	Image Modality = "image"
	Point Modality = "point"
	Mesh  Modality = "mesh"
)

// Modalities lists every modality in report order.
var Modalities = []Modality{Image, Mesh, Point}

// Title returns the display name used in pair names ("Image", "Point", "Mesh").
func (m Modality) Title() string {
	switch m {
	case Image:
		return "Image"
	case Point:
		return "Point"
	case Mesh:
		return "Mesh"
	default:
		return string(m)
	}
}

// Pair is an ordered (query, gallery) modality combination.
type Pair struct {
	Query   Modality
	Gallery Modality
}

// Name returns the report label, e.g. "Image2Mesh".
func (p Pair) Name() string { return p.Query.Title() + "2" + p.Gallery.Title() }

// SelfRetrieval reports whether query and gallery come from the same modality.
func (p Pair) SelfRetrieval() bool { return p.Query == p.Gallery }

// FeatureSet holds one evaluation run: a feature matrix per modality and the
// shared label vector. Row i of every matrix describes sample i.
type FeatureSet struct {
	Views    int
	Features map[Modality]*mat.Dense
	Labels   []int
}

// Samples returns the number of labelled samples.
func (fs *FeatureSet) Samples() int { return len(fs.Labels) }

// Matrix returns the feature matrix of a modality, or nil when absent.
func (fs *FeatureSet) Matrix(m Modality) *mat.Dense { return fs.Features[m] }

// PairResult is the retrieval quality of one pair.
type PairResult struct {
	Pair       Pair
	MAP        float64 // mean average precision in [0, 1]
	Percent    float64 // MAP*100 rounded to two decimals
	Queries    int
	NoRelevant int // queries without any relevant gallery item
}

// Report collects the results of the nine pairs for one view count.
type Report struct {
	Dir     string
	Views   int
	Samples int
	Results []PairResult
}

// RankedItem is one gallery entry in a query's ranking.
type RankedItem struct {
	Rank     int // 1-based
	Index    int
	Distance float64
	Label    int
	Relevant bool
}

// QueryResult is the ranked gallery of a single query.
type QueryResult struct {
	Pair       Pair
	Views      int
	QueryIndex int
	QueryLabel int
	AP         float64
	Items      []RankedItem
}

// FeatureLoader reads a run directory for a given image view count.
type FeatureLoader interface {
	Load(ctx context.Context, dir string, views int) (*FeatureSet, error)
}

// EvaluationService defines the operations exposed by the application core.
type EvaluationService interface {
	Evaluate(ctx context.Context, dir string, views int) (*Report, error)
	Query(views int, pair Pair, queryIndex, topK int) (*QueryResult, error)
}
