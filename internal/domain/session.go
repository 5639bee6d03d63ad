package domain

import (
	"time"

	"github.com/google/uuid"
)

// QA is one asked question and the player's answer. An AnswerUnknown here is
// the player's explicit "maybe": it disqualifies no candidate.
type QA struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     Answer    `json:"answer"`
}

// Session is the ephemeral state of one game round. It never touches the
// knowledge store; abandoning a session leaves persisted state unmodified.
type Session struct {
	ID         uuid.UUID
	Candidates []uuid.UUID
	History    []QA
	Asked      map[uuid.UUID]bool
	StartedAt  time.Time

	// Last guess surfaced to the player, kept so reconciliation can
	// distinguish a new animal from its closest known neighbor.
	LastGuessID         *uuid.UUID
	LastGuessConfidence float64
}

func NewSession(candidateIDs []uuid.UUID) *Session {
	return &Session{
		ID:         uuid.New(),
		Candidates: candidateIDs,
		Asked:      make(map[uuid.UUID]bool),
		StartedAt:  time.Now(),
	}
}
