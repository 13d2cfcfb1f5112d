// Package embedding orchestrates calls to an embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docrag/internal/domain"
)

// DefaultConcurrency bounds parallel single-text requests in EmbedAll.
const DefaultConcurrency = 8

// EmbedAll embeds texts and returns vectors in input order. Providers that
// implement domain.BatchEmbedder are called once; others are fanned out with at
// most concurrency requests in flight. Any failure fails the whole call and
// no partial result is returned.
func EmbedAll(ctx context.Context, e domain.Embedder, texts []string, concurrency int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.InvalidInputf("nothing to embed")
	}
	var (
		vectors [][]float32
		err     error
	)
	if be, ok := e.(domain.BatchEmbedder); ok {
		vectors, err = be.EmbedMany(ctx, texts)
		if err != nil {
			return nil, Classify("embed batch", err)
		}
	} else {
		vectors, err = fanOut(ctx, e, texts, concurrency)
		if err != nil {
			return nil, err
		}
	}
	if err := validate(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedOne embeds a single text and classifies the failure, if any.
func EmbedOne(ctx context.Context, e domain.Embedder, text string) ([]float32, error) {
	v, err := e.Embed(ctx, text)
	if err != nil {
		return nil, Classify("embed", err)
	}
	if len(v) == 0 {
		return nil, &domain.ProviderError{Op: "embed", Err: errors.New("empty embedding")}
	}
	return v, nil
}

func fanOut(ctx context.Context, e domain.Embedder, texts []string, concurrency int) ([][]float32, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range texts {
		i := i
		g.Go(func() error {
			v, err := e.Embed(gctx, texts[i])
			if err != nil {
				return fmt.Errorf("text %d: %w", i, Classify("embed", err))
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return &domain.ProviderError{Op: "embed", Err: fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))}
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return &domain.ProviderError{Op: "embed", Err: fmt.Errorf("empty embedding for text %d", i)}
		}
		if len(v) != dim {
			return &domain.ProviderError{Op: "embed", Err: fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)}
		}
	}
	return nil
}

// Classify wraps err in a domain.ProviderError unless it already is one.
// Deadline expiry is transient; every other unclassified failure is permanent.
func Classify(op string, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.ProviderError{
		Op:        op,
		Transient: errors.Is(err, context.DeadlineExceeded),
		Err:       err,
	}
}
