// Package service wires document retrieval, prompt selection, answer
// generation and transcript history into the operations the request layer uses.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/history"
	"docrag/internal/prompt"
	"docrag/internal/session"
)

// HistoryStore records exchanges. A nil HistoryStore disables transcripts.
type HistoryStore interface {
	Record(ctx context.Context, ex history.Exchange) (history.Exchange, error)
	List(ctx context.Context, tenant string, limit int) ([]history.Exchange, error)
}

// ErrHistoryDisabled is returned by History when no store is configured.
var ErrHistoryDisabled = errors.New("history disabled")

// Assistant answers questions, grounded in the tenant's active document when
// there is one.
type Assistant struct {
	store               *session.Store
	generator           domain.AnswerGenerator
	summarizer          domain.Summarizer
	summaryMaxSentences int
	history             HistoryStore
}

func NewAssistant(store *session.Store, generator domain.AnswerGenerator, summarizer domain.Summarizer, summaryMaxSentences int, history HistoryStore) *Assistant {
	return &Assistant{
		store:               store,
		generator:           generator,
		summarizer:          summarizer,
		summaryMaxSentences: summaryMaxSentences,
		history:             history,
	}
}

// UploadResult describes a freshly activated document.
type UploadResult struct {
	Document  string
	Chunks    int
	Dimension int
	Summary   string
}

// Upload makes text the tenant's active document.
func (a *Assistant) Upload(ctx context.Context, tenant, name, text string) (UploadResult, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = "document"
	}
	sess, err := a.store.Activate(ctx, tenant, name, text)
	if err != nil {
		return UploadResult{}, err
	}
	res := UploadResult{
		Document:  sess.DocumentName,
		Chunks:    len(sess.Chunks),
		Dimension: sess.Index.Dimension(),
	}
	if a.summarizer != nil {
		if res.Summary, err = a.summarizer.Summarize(text, a.summaryMaxSentences); err != nil {
			log.Printf("summarize %q: %v", name, err)
			res.Summary = ""
		}
	}
	return res, nil
}

// Answer is the outcome of Ask.
type Answer struct {
	Text     string
	Intent   prompt.Intent
	Status   session.Status
	Document string
	Context  string
	Hits     []domain.Hit
}

// Grounded reports whether the answer was generated from document content.
func (a Answer) Grounded() bool { return a.Status == session.StatusMatched }

// Ask answers question. Without an active document, or when nothing in it
// matches, the question is answered without document context.
func (a *Assistant) Ask(ctx context.Context, tenant, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, domain.InvalidInputf("empty question")
	}
	intent := prompt.DetectIntent(question)
	r, err := a.store.Retrieve(ctx, tenant, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	text, err := a.generator.Generate(ctx, prompt.Build(intent, question, r.Context))
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	ans := Answer{
		Text:     text,
		Intent:   intent,
		Status:   r.Status,
		Document: r.Document,
		Context:  r.Context,
		Hits:     r.Hits,
	}
	a.record(ctx, tenant, question, ans)
	return ans, nil
}

func (a *Assistant) record(ctx context.Context, tenant, question string, ans Answer) {
	if a.history == nil {
		return
	}
	ex := history.Exchange{
		Tenant:   tenant,
		Question: question,
		Answer:   ans.Text,
		Quiz:     ans.Intent == prompt.IntentQuiz,
	}
	if ans.Status != session.StatusNoActiveDocument {
		ex.Document = ans.Document
	}
	if _, err := a.history.Record(ctx, ex); err != nil {
		log.Printf("record exchange for %s: %v", tenant, err)
	}
}

// Reset clears the tenant's active document.
func (a *Assistant) Reset(tenant string) { a.store.Clear(tenant) }

// ActiveDocument returns the name of the tenant's active document.
func (a *Assistant) ActiveDocument(tenant string) (string, bool) {
	sess, ok := a.store.Current(tenant)
	if !ok {
		return "", false
	}
	return sess.DocumentName, true
}

// History lists the tenant's recent exchanges, newest first.
func (a *Assistant) History(ctx context.Context, tenant string, limit int) ([]history.Exchange, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.List(ctx, tenant, limit)
}
