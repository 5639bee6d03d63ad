package belief

import (
	"errors"
	"testing"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/engine"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func fixture(t *testing.T) (*knowledge.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	s := knowledge.NewStore()
	q1, _ := s.AddQuestion("Is it a mammal?")
	q2, _ := s.AddQuestion("Does it bark?")
	if _, err := s.AddAnimal("Dog", map[uuid.UUID]domain.Answer{q1: domain.AnswerYes, q2: domain.AnswerYes}, false); err != nil {
		t.Fatalf("AddAnimal: %v", err)
	}
	if _, err := s.AddAnimal("Cat", map[uuid.UUID]domain.Answer{q1: domain.AnswerYes, q2: domain.AnswerNo}, false); err != nil {
		t.Fatalf("AddAnimal: %v", err)
	}
	return s, q1, q2
}

func TestApplyAnswer_FiltersCandidates(t *testing.T) {
	s, _, q2 := fixture(t)
	tr := NewTracker(s, zap.NewNop())

	session := tr.NewSession()
	if len(session.Candidates) != 2 {
		t.Fatalf("initial candidates = %d, want 2", len(session.Candidates))
	}

	// After "it barks": only Dog remains; confidence 1.0; guess recommended.
	tr.ApplyAnswer(session, q2, domain.AnswerYes)
	if len(session.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(session.Candidates))
	}

	guess, err := tr.TopCandidate(session)
	if err != nil {
		t.Fatalf("TopCandidate: %v", err)
	}
	if guess.Animal.Name != "Dog" {
		t.Errorf("top candidate = %s, want Dog", guess.Animal.Name)
	}
	if guess.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", guess.Confidence)
	}
	if !tr.ShouldGuess(guess.Confidence, false) {
		t.Errorf("guess not recommended at confidence 1.0")
	}
}

func TestApplyAnswer_MaybeDisqualifiesNothing(t *testing.T) {
	s, _, q2 := fixture(t)
	tr := NewTracker(s, zap.NewNop())
	sel := engine.NewSelector(s, zap.NewNop())

	session := tr.NewSession()
	tr.ApplyAnswer(session, q2, domain.AnswerUnknown)

	if len(session.Candidates) != 2 {
		t.Fatalf("maybe shrank candidates to %d, want 2", len(session.Candidates))
	}
	if session.Asked[q2] {
		t.Fatal("maybe consumed the question")
	}

	// The engine can still offer the undetermined question: q2 stays
	// discriminating and unasked because maybe contributed no information.
	q, _, err := sel.SelectNextQuestion(tr.Candidates(session), session.Asked)
	if err != nil {
		t.Fatalf("SelectNextQuestion after maybe: %v", err)
	}
	if q == nil || q.ID != q2 {
		t.Fatalf("expected the discriminating question again, got %v", q)
	}
}

func TestApplyAnswer_Monotonic(t *testing.T) {
	s, q1, q2 := fixture(t)
	tr := NewTracker(s, zap.NewNop())

	session := tr.NewSession()
	prev := len(session.Candidates)
	for _, qa := range []domain.QA{
		{QuestionID: q1, Answer: domain.AnswerYes},
		{QuestionID: q2, Answer: domain.AnswerUnknown},
		{QuestionID: q2, Answer: domain.AnswerNo},
	} {
		tr.ApplyAnswer(session, qa.QuestionID, qa.Answer)
		if len(session.Candidates) > prev {
			t.Fatalf("candidate set grew from %d to %d", prev, len(session.Candidates))
		}
		prev = len(session.Candidates)
	}
}

func TestApplyAnswer_StoredUnknownDoesNotDisqualify(t *testing.T) {
	s, _, _ := fixture(t)
	q3, _ := s.AddQuestion("Does it purr?")
	tr := NewTracker(s, zap.NewNop())

	// Neither animal has q3 recorded; a yes answer keeps both.
	session := tr.NewSession()
	tr.ApplyAnswer(session, q3, domain.AnswerYes)
	if len(session.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(session.Candidates))
	}

	// But a stored unknown is not a match: confidence reflects only known
	// agreements.
	guess, err := tr.TopCandidate(session)
	if err != nil {
		t.Fatalf("TopCandidate: %v", err)
	}
	if guess.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 for unknown-only history", guess.Confidence)
	}
}

func TestTopCandidate_NoCandidates(t *testing.T) {
	s := knowledge.NewStore()
	tr := NewTracker(s, zap.NewNop())

	session := tr.NewSession()
	if _, err := tr.TopCandidate(session); !errors.Is(err, domain.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestTopCandidate_TieBreakOnCorrectGuesses(t *testing.T) {
	s := knowledge.NewStore()
	q, _ := s.AddQuestion("Is it a mammal?")
	_, _ = s.AddAnimal("Dog", map[uuid.UUID]domain.Answer{q: domain.AnswerYes}, false)
	cat, _ := s.AddAnimal("Cat", map[uuid.UUID]domain.Answer{q: domain.AnswerYes}, false)
	for i := 0; i < 3; i++ {
		if err := s.RecordCorrectGuess(cat); err != nil {
			t.Fatalf("RecordCorrectGuess: %v", err)
		}
	}

	tr := NewTracker(s, zap.NewNop())
	session := tr.NewSession()
	tr.ApplyAnswer(session, q, domain.AnswerYes)

	guess, err := tr.TopCandidate(session)
	if err != nil {
		t.Fatalf("TopCandidate: %v", err)
	}
	if guess.Animal.Name != "Cat" {
		t.Errorf("tie broke to %s, want Cat (more correct guesses)", guess.Animal.Name)
	}
}

func TestShouldGuess(t *testing.T) {
	tr := NewTracker(knowledge.NewStore(), zap.NewNop())

	if tr.ShouldGuess(0.5, false) {
		t.Error("recommended guess below threshold")
	}
	if !tr.ShouldGuess(0.9, false) {
		t.Error("did not recommend guess above threshold")
	}
	if !tr.ShouldGuess(0.1, true) {
		t.Error("did not recommend guess when questions exhausted")
	}
}
