package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Animal is an append-only knowledge record. Answers maps question IDs to
// ternary answers; entries are only ever added or corrected through the
// learning updater, never silently overwritten.
type Animal struct {
	ID             uuid.UUID            `json:"id"`
	Name           string               `json:"name"`
	Answers        map[uuid.UUID]Answer `json:"answers"`
	CorrectGuesses int                  `json:"correct_guesses"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Answer returns the recorded answer for a question, defaulting to
// AnswerUnknown for entries that were never recorded.
func (a *Animal) Answer(questionID uuid.UUID) Answer {
	if ans, ok := a.Answers[questionID]; ok {
		return ans
	}
	return AnswerUnknown
}

// Recorded reports whether an explicit entry exists, regardless of value.
func (a *Animal) Recorded(questionID uuid.UUID) bool {
	_, ok := a.Answers[questionID]
	return ok
}

type Question struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeName canonicalizes animal names and question text for duplicate
// detection: lowercased, trimmed, inner whitespace collapsed.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
