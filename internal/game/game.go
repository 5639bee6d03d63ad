// Package game orchestrates rounds of the guessing game on top of the
// knowledge store, entropy engine, belief tracker, and learning updater. Both
// the CLI and the HTTP API drive games exclusively through this service.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkrasnove/faunaguess/internal/belief"
	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/engine"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/dkrasnove/faunaguess/internal/learning"
	"github.com/dkrasnove/faunaguess/internal/seed"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

type Options struct {
	ConfidenceThreshold   float64
	MinRelevantConfidence float64
	MaxQuestions          int
}

func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold:   belief.DefaultConfidenceThreshold,
		MinRelevantConfidence: learning.DefaultMinRelevantConfidence,
		MaxQuestions:          10,
	}
}

// Guess is the service's guess surface: the ranked candidate plus whether
// the policy recommends guessing now.
type Guess struct {
	Animal     domain.Animal `json:"animal"`
	Confidence float64       `json:"confidence"`
	Recommend  bool          `json:"recommend"`
	Exhausted  bool          `json:"exhausted"`
}

// Service owns active sessions and the end-of-session write path. Session
// state never touches the store until Finish; Abandon discards a session
// without any store mutation. All session operations serialize on one
// mutex, so concurrent requests against the same session cannot corrupt
// its history and reconciliations cannot interleave partial writes.
type Service struct {
	store     domain.KnowledgeStore
	selector  *engine.Selector
	tracker   *belief.Tracker
	updater   *learning.Updater
	persister domain.Persister
	logger    *zap.Logger
	opts      Options

	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func New(store domain.KnowledgeStore, persister domain.Persister, extractor domain.Extractor, opts Options, logger *zap.Logger) *Service {
	tracker := belief.NewTracker(store, logger)
	tracker.ConfidenceThreshold = opts.ConfidenceThreshold

	updater := learning.NewUpdater(store, extractor, logger)
	updater.MinRelevantConfidence = opts.MinRelevantConfidence

	return &Service{
		store:     store,
		selector:  engine.NewSelector(store, logger),
		tracker:   tracker,
		updater:   updater,
		persister: persister,
		logger:    logger,
		opts:      opts,
		sessions:  make(map[uuid.UUID]*domain.Session),
	}
}

// SetQuestionProvider wires the distinguishing-question collaborator into
// the learning updater.
func (s *Service) SetQuestionProvider(p domain.QuestionProvider) {
	s.updater.SetQuestionProvider(p)
}

// Init loads persisted knowledge, seeding the starter set on first run.
func (s *Service) Init(ctx context.Context, seedData *seed.Data) error {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if !snap.Empty() || seedData == nil {
		return nil
	}

	if err := seed.Apply(s.store, seedData); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	s.logger.Info("seeded knowledge base",
		zap.Int("animals", len(seedData.Animals)),
		zap.Int("questions", len(seedData.Questions)))
	return s.Save(ctx)
}

// StartSession begins a round with every known animal as a candidate.
func (s *Service) StartSession() *domain.Session {
	session := s.tracker.NewSession()
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.Int("candidates", len(session.Candidates)))
	return session
}

// Session returns the live session. The pointer is owned by the service;
// callers that share a session across goroutines go through the Service
// methods instead of reading it directly.
func (s *Service) Session(id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

// lookup resolves a session id. Callers hold s.mu.
func (s *Service) lookup(id uuid.UUID) (*domain.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// SessionStatus reports the surviving candidate count and answers given so
// far, read under the session lock.
func (s *Service) SessionStatus(id uuid.UUID) (candidates, answered int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id)
	if err != nil {
		return 0, 0, err
	}
	return len(session.Candidates), len(session.History), nil
}

// NextQuestion picks the highest-gain unasked question, or signals
// domain.ErrQuestionsExhausted once the question limit is reached or nothing
// can split the candidates further, or domain.ErrNoCandidates when no animal
// is consistent with the history.
func (s *Service) NextQuestion(sessionID uuid.UUID) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.History) >= s.opts.MaxQuestions {
		return nil, domain.ErrQuestionsExhausted
	}
	q, _, err := s.selector.SelectNextQuestion(s.tracker.Candidates(session), session.Asked)
	return q, err
}

// SubmitAnswer records the player's answer into the session.
func (s *Service) SubmitAnswer(sessionID, questionID uuid.UUID, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if !domain.ValidAnswer(string(answer)) {
		return fmt.Errorf("invalid answer %q", answer)
	}
	found := false
	for _, q := range s.store.Questions() {
		if q.ID == questionID {
			found = true
			break
		}
	}
	if !found {
		return knowledge.ErrQuestionNotFound
	}
	s.tracker.ApplyAnswer(session, questionID, answer)
	return nil
}

// Guess returns the top candidate with the policy recommendation, and
// remembers it so reconciliation can use the round's closest neighbor.
// domain.ErrNoCandidates directs the caller to the new-animal path.
func (s *Service) Guess(sessionID uuid.UUID) (Guess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return Guess{}, err
	}

	top, err := s.tracker.TopCandidate(session)
	if err != nil {
		return Guess{}, err
	}

	exhausted := len(session.History) >= s.opts.MaxQuestions
	if !exhausted {
		if _, _, qErr := s.selector.SelectNextQuestion(s.tracker.Candidates(session), session.Asked); qErr != nil {
			exhausted = true
		}
	}

	id := top.Animal.ID
	session.LastGuessID = &id
	session.LastGuessConfidence = top.Confidence

	return Guess{
		Animal:     top.Animal,
		Confidence: top.Confidence,
		Recommend:  s.tracker.ShouldGuess(top.Confidence, exhausted),
		Exhausted:  exhausted,
	}, nil
}

// Finish reconciles the outcome into the store, drops the session, and
// saves. A save failure does not void the reconciliation: the result is
// returned alongside an error wrapping persist.ErrPersistenceFailure for the
// caller to report or retry.
func (s *Service) Finish(ctx context.Context, sessionID uuid.UUID, outcome learning.Outcome) (*learning.Result, error) {
	// One reconciliation at a time: interleaved partial writes would break
	// the store's append-only invariants.
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.updater.Reconcile(ctx, session, outcome)
	if err != nil {
		return nil, err
	}
	delete(s.sessions, sessionID)

	if err := s.persister.Save(ctx, s.store.Snapshot()); err != nil {
		s.logger.Error("save failed after reconciliation", zap.Error(err))
		return result, err
	}
	return result, nil
}

// Abandon drops a session without touching the store.
func (s *Service) Abandon(sessionID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Cleanup drops sessions started more than maxAge ago and returns how many
// were removed. Server mode runs it periodically so walked-away-from
// sessions do not accumulate.
func (s *Service) Cleanup(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, session := range s.sessions {
		if session.StartedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("removed stale sessions", zap.Int("count", removed))
	}
	return removed
}

func (s *Service) Save(ctx context.Context) error {
	return s.persister.Save(ctx, s.store.Snapshot())
}

// AnimalByName resolves a name case-insensitively.
func (s *Service) AnimalByName(name string) (domain.Animal, bool) {
	return s.store.AnimalByName(name)
}

func (s *Service) Animals() []domain.Animal     { return s.store.Animals() }
func (s *Service) Questions() []domain.Question { return s.store.Questions() }
func (s *Service) Stats() domain.Stats          { return s.store.Stats() }
