package session

import (
	"context"

	"docrag/internal/assembler"
	"docrag/internal/domain"
)

// Status tells the request layer why a retrieval did or did not produce context.
type Status int

const (
	StatusNoActiveDocument Status = iota
	StatusNoMatch
	StatusMatched
)

func (s Status) String() string {
	switch s {
	case StatusNoActiveDocument:
		return "no_active_document"
	case StatusNoMatch:
		return "no_match"
	case StatusMatched:
		return "matched"
	}
	return "unknown"
}

// Retrieval is the outcome of Retrieve. Context is empty unless Status is
// StatusMatched.
type Retrieval struct {
	Status   Status
	Document string
	Context  string
	Hits     []domain.Hit
}

// Retrieve answers question with a bounded context drawn from the tenant's
// active document. A missing document is reported through Status, while
// provider and input failures are returned as errors.
func (s *Store) Retrieve(ctx context.Context, tenant, question string) (Retrieval, error) {
	sess, ok := s.Current(tenant)
	if !ok {
		return Retrieval{Status: StatusNoActiveDocument}, nil
	}
	out := Retrieval{Status: StatusNoMatch, Document: sess.DocumentName}
	hits, err := s.search(ctx, sess, question)
	if err != nil {
		return out, err
	}
	if s.opts.MaxDistance > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Distance <= s.opts.MaxDistance {
				kept = append(kept, h)
			}
		}
		hits = kept
	}
	out.Hits = hits
	if out.Context, err = assembler.Assemble(hits, sess.Chunks, s.opts.MaxChunks); err != nil {
		return out, err
	}
	if out.Context != "" {
		out.Status = StatusMatched
	}
	return out, nil
}
