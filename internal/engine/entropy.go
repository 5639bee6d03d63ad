package engine

import (
	"math"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Selector picks the next question by information gain over the candidate
// set. It is pure with respect to the knowledge store: reads only.
type Selector struct {
	view   domain.KnowledgeView
	logger *zap.Logger
}

func NewSelector(view domain.KnowledgeView, logger *zap.Logger) *Selector {
	return &Selector{view: view, logger: logger}
}

// SelectNextQuestion returns the unasked question with the highest
// information gain over candidates, domain.ErrQuestionsExhausted when every
// unasked question has zero gain, or domain.ErrNoCandidates for an empty
// candidate set. Ties break on answer coverage among the candidates, then
// lexicographic question ID, so selection is deterministic.
// Cost is O(questions × candidates) per call.
func (s *Selector) SelectNextQuestion(candidates []domain.Animal, asked map[uuid.UUID]bool) (*domain.Question, float64, error) {
	if len(candidates) == 0 {
		return nil, 0, domain.ErrNoCandidates
	}

	var (
		best         *domain.Question
		bestGain     float64
		bestCoverage int
	)
	for _, q := range s.view.Questions() {
		if asked[q.ID] {
			continue
		}
		gain := Gain(candidates, q.ID)
		if gain <= 0 {
			continue
		}
		coverage := candidateCoverage(candidates, q.ID)
		if best == nil || betterSplit(gain, coverage, q.ID, bestGain, bestCoverage, best.ID) {
			qq := q
			best = &qq
			bestGain = gain
			bestCoverage = coverage
		}
	}

	if best == nil {
		return nil, 0, domain.ErrQuestionsExhausted
	}

	s.logger.Debug("selected question",
		zap.String("question_id", best.ID.String()),
		zap.Float64("gain", bestGain),
		zap.Int("candidates", len(candidates)))
	return best, bestGain, nil
}

// Gain computes the base-2 information gain of partitioning candidates by
// their recorded answer to the question, with unknown as its own bucket.
// With every candidate equally likely, the prior entropy is log2(n) and the
// weighted residual entropy of groups of size n_i is Σ (n_i/n)·log2(n_i), so
// the gain reduces to the Shannon entropy of the group-size proportions.
// It is always >= 0 and <= log2(n), and 0 when all candidates agree.
func Gain(candidates []domain.Animal, questionID uuid.UUID) float64 {
	groups := make(map[domain.Answer]int, 3)
	for i := range candidates {
		groups[candidates[i].Answer(questionID)]++
	}
	if len(groups) <= 1 {
		return 0
	}

	total := float64(len(candidates))
	gain := 0.0
	for _, n := range groups {
		p := float64(n) / total
		gain -= p * math.Log2(p)
	}
	return gain
}

func candidateCoverage(candidates []domain.Animal, questionID uuid.UUID) int {
	count := 0
	for i := range candidates {
		if candidates[i].Answer(questionID).Known() {
			count++
		}
	}
	return count
}

func betterSplit(gain float64, coverage int, id uuid.UUID, bestGain float64, bestCoverage int, bestID uuid.UUID) bool {
	if gain != bestGain {
		return gain > bestGain
	}
	if coverage != bestCoverage {
		return coverage > bestCoverage
	}
	return id.String() < bestID.String()
}
