package domain

import (
	"context"

	"github.com/google/uuid"
)

// KnowledgeView is the read-only surface of the knowledge store. The entropy
// engine and belief tracker see only this; they never mutate persisted state.
type KnowledgeView interface {
	Animals() []Animal
	Questions() []Question
	AnimalByID(id uuid.UUID) (Animal, bool)
	AnimalByName(name string) (Animal, bool)
	QuestionByText(text string) (Question, bool)
	// Answer defaults to AnswerUnknown for entries never recorded.
	Answer(animalID, questionID uuid.UUID) Answer
	// Coverage counts animals with a known (yes/no) answer to the question.
	Coverage(questionID uuid.UUID) int
	Stats() Stats
}

// KnowledgeStore adds the mutating surface used only by the learning updater
// at end-of-session reconciliation.
type KnowledgeStore interface {
	KnowledgeView
	// AddAnimal registers a new animal. With merge unset a case-insensitive
	// name collision fails with ErrDuplicateAnimal; with merge set the
	// existing animal's unknown slots are filled from initialAnswers and its
	// ID returned, making retries idempotent.
	AddAnimal(name string, initialAnswers map[uuid.UUID]Answer, merge bool) (uuid.UUID, error)
	// AddQuestion registers a question, failing with ErrDuplicateQuestion
	// when normalized text already exists.
	AddQuestion(text string) (uuid.UUID, error)
	// RecordAnswer writes one matrix cell. Overwriting a known answer with a
	// different value requires the correction flag; a plain write surfaces
	// ErrConflictingAnswer and leaves the cell untouched.
	RecordAnswer(animalID, questionID uuid.UUID, answer Answer, correction bool) error
	RecordCorrectGuess(animalID uuid.UUID) error
	RecordGame(rec GameRecord)
	Snapshot() *Snapshot
	Restore(snap *Snapshot) error
}

// Persister loads and saves knowledge snapshots. Load returns an empty
// snapshot on first run. Save failures are reported upward, never swallowed.
type Persister interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// ExtractedFeature is one question/answer pair derived from a free-text
// animal description.
type ExtractedFeature struct {
	QuestionText string
	Answer       Answer
}

// Extractor turns a free-text description into candidate features. The core
// treats these as ordinary new questions and answers, deduplicated through
// the knowledge store.
type Extractor interface {
	Extract(ctx context.Context, description string) ([]ExtractedFeature, error)
}

// Distinction is a new discriminating question with answers for the two
// animals it must tell apart.
type Distinction struct {
	QuestionText  string
	SubjectAnswer Answer
	OtherAnswer   Answer
}

// QuestionProvider supplies a distinguishing question when no stored question
// separates two animals. Interactive surfaces implement it by prompting the
// player; tests stub it.
type QuestionProvider interface {
	Distinguish(ctx context.Context, subject, other Animal) (Distinction, error)
}
