// Package relevance scores how well an attached image matches the complaint text.
package relevance

import (
	"context"
	"errors"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/embedding"
	"github.com/spec-kit/grievance-service/internal/observability"
)

// DefaultThreshold is the minimum score (exclusive) for an image to count as relevant.
const DefaultThreshold = 25.0

// Scorer compares image and text embeddings. It never returns an error:
// anything that prevents a score yields a failing verdict with score 0.
type Scorer struct {
	embedder  embedding.Embedder
	threshold float64
	maxPixels int64
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithMaxPixels bounds the decoded image size. Non-positive values keep DefaultMaxPixels.
func WithMaxPixels(n int64) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

// NewScorer builds a Scorer. A non-positive threshold selects DefaultThreshold.
func NewScorer(embedder embedding.Embedder, threshold float64, logger *zap.Logger, metrics *observability.Metrics, opts ...Option) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &Scorer{embedder: embedder, threshold: threshold, maxPixels: DefaultMaxPixels, logger: logger, metrics: metrics}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns {Relevant: score > threshold, Score: 100 * cos(image, text)}.
func (s *Scorer) Score(ctx context.Context, raw []byte, text string) domain.RelevanceVerdict {
	ctx, span := observability.StartSpan(ctx, "relevance.Score", attribute.Int("image.bytes", len(raw)))
	defer span.End()

	score, err := s.score(ctx, raw, text)
	if err != nil {
		s.logger.Warn("image relevance scoring failed", zap.Error(err))
		span.RecordError(err)
		return domain.RelevanceVerdict{Relevant: false, Score: 0}
	}

	s.metrics.ObserveRelevanceScore(score)
	verdict := domain.RelevanceVerdict{Relevant: score > s.threshold, Score: score}
	span.SetAttributes(attribute.Float64("score", score), attribute.Bool("relevant", verdict.Relevant))
	return verdict
}

func (s *Scorer) score(ctx context.Context, raw []byte, text string) (float64, error) {
	payload, err := Preprocess(raw, s.maxPixels)
	if err != nil {
		return 0, err
	}

	var imageVec, textVec []float32
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.embedder.EmbedImage(gctx, payload)
		imageVec = v
		return err
	})
	g.Go(func() error {
		v, err := s.embedder.EmbedText(gctx, text)
		textVec = v
		return err
	})
	err = g.Wait()
	s.metrics.ObserveModelCall("embedding", err, time.Since(start))
	if err != nil {
		return 0, err
	}

	return Similarity(imageVec, textVec)
}

// Similarity returns 100 * dot(a/|a|, b/|b|).
func Similarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, errors.New("embedding dimensions do not match")
	}
	na, err := normalize(a)
	if err != nil {
		return 0, err
	}
	nb, err := normalize(b)
	if err != nil {
		return 0, err
	}

	var dot float64
	for i := range na {
		dot += na[i] * nb[i]
	}
	return 100 * dot, nil
}

func normalize(v []float32) ([]float64, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, errors.New("embedding has zero norm")
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out, nil
}
