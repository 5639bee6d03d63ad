package belief

import (
	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultConfidenceThreshold = 0.85
)

// Guess is a ranked candidate with its heuristic confidence. Confidence is a
// consistency ratio, not a calibrated probability.
type Guess struct {
	Animal     domain.Animal `json:"animal"`
	Confidence float64       `json:"confidence"`
}

// Tracker maintains per-session candidate sets and confidence. It reads the
// knowledge store but never mutates it.
type Tracker struct {
	view   domain.KnowledgeView
	logger *zap.Logger

	ConfidenceThreshold float64
}

func NewTracker(view domain.KnowledgeView, logger *zap.Logger) *Tracker {
	return &Tracker{
		view:                view,
		logger:              logger,
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
}

// NewSession starts a round with every known animal as a candidate.
func (t *Tracker) NewSession() *domain.Session {
	animals := t.view.Animals()
	ids := make([]uuid.UUID, len(animals))
	for i := range animals {
		ids[i] = animals[i].ID
	}
	return domain.NewSession(ids)
}

// ApplyAnswer appends the answer to the session history and recomputes the
// candidate set. An animal survives iff for every answered question its
// stored answer matches or is unknown; the player's explicit "maybe"
// (AnswerUnknown) disqualifies nothing. The candidate set after N+1 answers
// is always a subset of the set after N.
//
// A question is consumed only by a yes/no answer: after a "maybe" it stays
// unasked and the selector may offer it again. The per-session question
// limit still bounds the round.
func (t *Tracker) ApplyAnswer(s *domain.Session, questionID uuid.UUID, answer domain.Answer) {
	s.History = append(s.History, domain.QA{QuestionID: questionID, Answer: answer})

	if !answer.Known() {
		return
	}
	s.Asked[questionID] = true

	kept := s.Candidates[:0]
	for _, id := range s.Candidates {
		stored := t.view.Answer(id, questionID)
		if !stored.Known() || stored == answer {
			kept = append(kept, id)
		}
	}
	s.Candidates = kept

	t.logger.Debug("applied answer",
		zap.String("question_id", questionID.String()),
		zap.String("answer", string(answer)),
		zap.Int("candidates", len(s.Candidates)))
}

// Candidates resolves the session's surviving candidate animals.
func (t *Tracker) Candidates(s *domain.Session) []domain.Animal {
	out := make([]domain.Animal, 0, len(s.Candidates))
	for _, id := range s.Candidates {
		if a, ok := t.view.AnimalByID(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// TopCandidate ranks the surviving candidates and returns the best with its
// confidence: known-answer matches over total history length, clamped to
// [0,1]. Ties break on the historical correct-guess counter, then
// lexicographic ID. An empty candidate set returns domain.ErrNoCandidates so
// the caller falls back to the new-animal path rather than receiving a
// degenerate confidence.
func (t *Tracker) TopCandidate(s *domain.Session) (Guess, error) {
	candidates := t.Candidates(s)
	if len(candidates) == 0 {
		return Guess{}, domain.ErrNoCandidates
	}

	best := candidates[0]
	bestConf := t.confidence(&candidates[0], s.History)
	for i := 1; i < len(candidates); i++ {
		conf := t.confidence(&candidates[i], s.History)
		if betterGuess(&candidates[i], conf, &best, bestConf) {
			best = candidates[i]
			bestConf = conf
		}
	}
	return Guess{Animal: best, Confidence: bestConf}, nil
}

// ShouldGuess is the guess policy: guess once confidence reaches the
// threshold, or once no further question can discriminate.
func (t *Tracker) ShouldGuess(confidence float64, exhausted bool) bool {
	return exhausted || confidence >= t.ConfidenceThreshold
}

func (t *Tracker) confidence(a *domain.Animal, history []domain.QA) float64 {
	if len(history) == 0 {
		return 0
	}
	matches := 0
	for _, qa := range history {
		if !qa.Answer.Known() {
			continue
		}
		if stored := a.Answer(qa.QuestionID); stored.Known() && stored == qa.Answer {
			matches++
		}
	}
	conf := float64(matches) / float64(len(history))
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

func betterGuess(a *domain.Animal, conf float64, best *domain.Animal, bestConf float64) bool {
	if conf != bestConf {
		return conf > bestConf
	}
	if a.CorrectGuesses != best.CorrectGuesses {
		return a.CorrectGuesses > best.CorrectGuesses
	}
	return a.ID.String() < best.ID.String()
}
