package embedding

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"docrag/internal/domain"
)

// slowEmbedder answers later for earlier inputs so completion order is reversed.
type slowEmbedder struct {
	failOn   string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (e *slowEmbedder) Name() string   { return "slow" }
func (e *slowEmbedder) Dimension() int { return 2 }

func (e *slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := e.inflight.Add(1)
	defer e.inflight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if text == e.failOn {
		return nil, &domain.ProviderError{Op: "embed", Transient: true, Err: errors.New("rate limited")}
	}
	i, _ := strconv.Atoi(text)
	select {
	case <-time.After(time.Duration(20-i) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []float32{float32(i), 1}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	e := &slowEmbedder{}
	vectors, err := EmbedAll(context.Background(), e, texts(12), 4)
	if err != nil {
		t.Fatalf("EmbedAll failed: %v", err)
	}
	if len(vectors) != 12 {
		t.Fatalf("EmbedAll returned %d vectors, want 12", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d = %v, want first component %d", i, v, i)
		}
	}
	if p := e.peak.Load(); p > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", p)
	}
}

func TestEmbedAllFailsWholeBatch(t *testing.T) {
	e := &slowEmbedder{failOn: "3"}
	vectors, err := EmbedAll(context.Background(), e, texts(8), 2)
	if err == nil {
		t.Fatalf("EmbedAll succeeded with %d vectors, want error", len(vectors))
	}
	if vectors != nil {
		t.Errorf("EmbedAll returned partial result %v", vectors)
	}
	if !domain.IsTransient(err) {
		t.Errorf("error %v lost its transient classification", err)
	}
}

func TestEmbedAllDeadlineIsTransient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := EmbedAll(ctx, &slowEmbedder{}, texts(4), 1)
	if err == nil {
		t.Fatal("EmbedAll succeeded past its deadline")
	}
	if !domain.IsTransient(err) {
		t.Errorf("deadline error %v is not transient", err)
	}
}

type batchEmbedder struct {
	out [][]float32
	err error
}

func (b *batchEmbedder) Name() string   { return "batch" }
func (b *batchEmbedder) Dimension() int { return 0 }
func (b *batchEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("not used")
}
func (b *batchEmbedder) EmbedMany(context.Context, []string) ([][]float32, error) {
	return b.out, b.err
}

func TestEmbedAllValidatesBatch(t *testing.T) {
	tests := []struct {
		name string
		b    *batchEmbedder
		ok   bool
	}{
		{name: "ok", b: &batchEmbedder{out: [][]float32{{1, 2}, {3, 4}}}, ok: true},
		{name: "short", b: &batchEmbedder{out: [][]float32{{1, 2}}}},
		{name: "ragged", b: &batchEmbedder{out: [][]float32{{1, 2}, {3}}}},
		{name: "empty vector", b: &batchEmbedder{out: [][]float32{{1, 2}, {}}}},
		{name: "provider failure", b: &batchEmbedder{err: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EmbedAll(context.Background(), tt.b, []string{"a", "b"}, 1)
			if tt.ok {
				if err != nil {
					t.Fatalf("EmbedAll failed: %v", err)
				}
				return
			}
			var pe *domain.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("EmbedAll error = %v, want ProviderError", err)
			}
			if pe.Transient {
				t.Errorf("error %v classified as transient", err)
			}
		})
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	if _, err := EmbedAll(context.Background(), &slowEmbedder{}, nil, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("EmbedAll(nil) error = %v, want ErrInvalidInput", err)
	}
}

func TestEmbedOne(t *testing.T) {
	v, err := EmbedOne(context.Background(), &slowEmbedder{}, "5")
	if err != nil || len(v) != 2 || v[0] != 5 {
		t.Fatalf("EmbedOne = %v, %v; want [5 1]", v, err)
	}
	_, err = EmbedOne(context.Background(), &batchEmbedder{}, "x")
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Op != "embed" {
		t.Errorf("EmbedOne error = %v, want ProviderError", err)
	}
}
