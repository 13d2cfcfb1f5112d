// Package prompt decides what kind of answer a question asks for and renders
// the prompt handed to the answer generator.
package prompt

import (
	"fmt"
	"strings"

	"docrag/internal/domain"
)

// Intent is the kind of answer a question asks for.
type Intent int

const (
	IntentQuestion Intent = iota
	IntentQuiz
	IntentNotes
)

func (i Intent) String() string {
	switch i {
	case IntentQuiz:
		return "quiz"
	case IntentNotes:
		return "notes"
	default:
		return "question"
	}
}

var (
	quizKeywords  = []string{"quiz", "mcq", "test", "questions", "multiple choice"}
	notesKeywords = []string{"notes", "study guide", "revision sheet"}
)

// DetectIntent reports IntentQuiz when the question mentions a quiz keyword,
// IntentNotes for a notes keyword, and IntentQuestion otherwise. Quiz wins
// when both appear.
func DetectIntent(question string) Intent {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, quizKeywords):
		return IntentQuiz
	case containsAny(q, notesKeywords):
		return IntentNotes
	default:
		return IntentQuestion
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

const educationalSystem = "You are an educational assistant."

const quizFormat = `Format the quiz in HTML using:
<div class='quiz'>
  <div class='question'>Question</div>
  <ul class='options'>
    <li>A</li><li>B</li><li>C</li><li>D</li>
  </ul>
  <p><b>Correct Answer:</b> ...</p>
  <hr>
</div>`

// Build renders the prompt for question. A non-empty context selects the
// grounded templates, which forbid outside knowledge.
func Build(intent Intent, question, context string) domain.Prompt {
	if context == "" {
		return ungrounded(intent, question)
	}
	p := domain.Prompt{System: educationalSystem, Context: context}
	switch intent {
	case IntentQuiz:
		p.User = fmt.Sprintf(`Generate a quiz STRICTLY from the following document content.
Do NOT use outside knowledge.

%s

Document Content:
%s

Task:
Generate 5 MCQs based ONLY on the document.`, quizFormat, context)
	case IntentNotes:
		p.User = fmt.Sprintf(`Create detailed study notes STRICTLY from the following document content.
Use simple language, examples, and bullet points.
Do NOT use outside knowledge.

Document Content:
%s

Request:
%s`, context, question)
	default:
		p.User = fmt.Sprintf(`Answer the question using ONLY the document content below.
Use simple language.

Document Content:
%s

Question:
%s`, context, question)
	}
	return p
}

func ungrounded(intent Intent, question string) domain.Prompt {
	switch intent {
	case IntentQuiz:
		return domain.Prompt{User: fmt.Sprintf(`Generate a quiz in HTML format with 5 MCQs on the topic below.
Each question must have 4 options and the correct answer.

Topic:
%s`, question)}
	case IntentNotes:
		return domain.Prompt{User: fmt.Sprintf(`Create detailed study notes for students on the topic below.
Use simple language, examples, and bullet points.

Topic:
%s`, question)}
	}
	return domain.Prompt{User: fmt.Sprintf("Answer the student query in simple language:\n\n%s", question)}
}
