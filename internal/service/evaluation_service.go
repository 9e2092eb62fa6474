package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cmcl/internal/domain"
	"cmcl/internal/retrieval"
)

var (
	ErrNotEvaluated = errors.New("no features loaded for this view count")
	ErrUnknownPair  = errors.New("unknown modality pair")
)

// Options tune an evaluation run.
type Options struct {
	// ExcludeSelf drops the query itself from same-modality galleries.
	ExcludeSelf bool
	// Parallelism bounds how many pairs are scored at once.
	Parallelism int
}

// Pairs returns the nine query/gallery combinations in report order.
func Pairs() []domain.Pair {
	return []domain.Pair{
		{Query: domain.Image, Gallery: domain.Image},
		{Query: domain.Image, Gallery: domain.Mesh},
		{Query: domain.Image, Gallery: domain.Point},
		{Query: domain.Mesh, Gallery: domain.Mesh},
		{Query: domain.Mesh, Gallery: domain.Image},
		{Query: domain.Mesh, Gallery: domain.Point},
		{Query: domain.Point, Gallery: domain.Point},
		{Query: domain.Point, Gallery: domain.Image},
		{Query: domain.Point, Gallery: domain.Mesh},
	}
}

// ParsePair resolves a report label such as "Image2Mesh".
func ParsePair(name string) (domain.Pair, error) {
	for _, p := range Pairs() {
		if p.Name() == name {
			return p, nil
		}
	}
	return domain.Pair{}, fmt.Errorf("%w: %q", ErrUnknownPair, name)
}

var _ domain.EvaluationService = (*EvaluationServiceImpl)(nil)

type EvaluationServiceImpl struct {
	loader domain.FeatureLoader
	logger *zap.Logger
	opts   Options

	mu sync.RWMutex
	// normalized feature sets of the most recent run, keyed by view count
	sets map[int]*domain.FeatureSet
}

func NewEvaluationService(loader domain.FeatureLoader, logger *zap.Logger, opts Options) *EvaluationServiceImpl {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &EvaluationServiceImpl{loader: loader, logger: logger, opts: opts, sets: make(map[int]*domain.FeatureSet)}
}

// Evaluate loads the run for one view count and scores every pair.
func (s *EvaluationServiceImpl) Evaluate(ctx context.Context, dir string, views int) (*domain.Report, error) {
	start := time.Now()
	raw, err := s.loader.Load(ctx, dir, views)
	if err != nil {
		return nil, err
	}
	// L1 row normalization before cosine ranking
	fs := &domain.FeatureSet{Views: raw.Views, Labels: raw.Labels, Features: make(map[domain.Modality]*mat.Dense, len(raw.Features))}
	for m, x := range raw.Features {
		fs.Features[m] = retrieval.NormalizeL1(x)
	}

	pairs := Pairs()
	results := make([]domain.PairResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Parallelism)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.scorePair(fs, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sets[views] = fs
	s.mu.Unlock()

	s.logger.Info("evaluation finished",
		zap.String("dir", dir),
		zap.Int("views", views),
		zap.Int("samples", fs.Samples()),
		zap.Duration("elapsed", time.Since(start)))
	return &domain.Report{Dir: dir, Views: views, Samples: fs.Samples(), Results: results}, nil
}

// EvaluateViews runs Evaluate for each view count in order.
func (s *EvaluationServiceImpl) EvaluateViews(ctx context.Context, dir string, views []int) ([]*domain.Report, error) {
	reports := make([]*domain.Report, 0, len(views))
	for _, v := range views {
		r, err := s.Evaluate(ctx, dir, v)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (s *EvaluationServiceImpl) scorePair(fs *domain.FeatureSet, p domain.Pair) (domain.PairResult, error) {
	start := time.Now()
	aps, err := retrieval.PerQuery(fs.Matrix(p.Query), fs.Matrix(p.Gallery), fs.Labels, fs.Labels, s.pairOptions(p)...)
	if err != nil {
		return domain.PairResult{}, err
	}
	res := domain.PairResult{Pair: p, MAP: stat.Mean(aps, nil), Queries: len(aps)}
	for _, ap := range aps {
		if ap == 0 {
			res.NoRelevant++
		}
	}
	res.Percent = retrieval.RoundPercent(res.MAP)
	s.logger.Debug("pair scored",
		zap.String("pair", p.Name()),
		zap.Float64("map", res.MAP),
		zap.Int("no_relevant", res.NoRelevant),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (s *EvaluationServiceImpl) pairOptions(p domain.Pair) []retrieval.Option {
	return []retrieval.Option{retrieval.WithExcludeSelf(s.opts.ExcludeSelf && p.SelfRetrieval())}
}

// Query ranks the gallery of pair for one query of a previously evaluated
// view count and returns the topK nearest items (all items when topK <= 0).
func (s *EvaluationServiceImpl) Query(views int, pair domain.Pair, queryIndex, topK int) (*domain.QueryResult, error) {
	s.mu.RLock()
	fs, ok := s.sets[views]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotEvaluated, views)
	}
	q, g := fs.Matrix(pair.Query), fs.Matrix(pair.Gallery)
	if q == nil || g == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, pair.Name())
	}
	ranking, err := retrieval.RankQuery(q, g, fs.Labels, fs.Labels, queryIndex, s.pairOptions(pair)...)
	if err != nil {
		return nil, err
	}

	n := len(ranking.Order)
	if topK > 0 && topK < n {
		n = topK
	}
	qLabel := fs.Labels[queryIndex]
	items := make([]domain.RankedItem, n)
	for rank, idx := range ranking.Order[:n] {
		items[rank] = domain.RankedItem{
			Rank:     rank + 1,
			Index:    idx,
			Distance: ranking.Distances[idx],
			Label:    fs.Labels[idx],
			Relevant: fs.Labels[idx] == qLabel,
		}
	}
	return &domain.QueryResult{
		Pair:       pair,
		Views:      views,
		QueryIndex: queryIndex,
		QueryLabel: qLabel,
		AP:         ranking.AP,
		Items:      items,
	}, nil
}
