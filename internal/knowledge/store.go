package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrDuplicateAnimal   = errors.New("animal already exists")
	ErrDuplicateQuestion = errors.New("question already exists")
	ErrConflictingAnswer = errors.New("conflicting answer for recorded entry")
	ErrAnimalNotFound    = errors.New("animal not found")
	ErrQuestionNotFound  = errors.New("question not found")
)

// Store is the in-memory knowledge base: animals, questions, and the sparse
// animal×question answer matrix. It is append-only across sessions; cells are
// corrected only via the explicit correction flag. Reads are safe for
// concurrent use; all writes happen inside end-of-session reconciliation.
type Store struct {
	mu        sync.RWMutex
	animals   map[uuid.UUID]*domain.Animal
	questions map[uuid.UUID]*domain.Question
	byName    map[string]uuid.UUID // normalized animal name -> ID
	byText    map[string]uuid.UUID // normalized question text -> ID
	records   []domain.GameRecord
	stats     domain.Stats
}

func NewStore() *Store {
	return &Store{
		animals:   make(map[uuid.UUID]*domain.Animal),
		questions: make(map[uuid.UUID]*domain.Question),
		byName:    make(map[string]uuid.UUID),
		byText:    make(map[string]uuid.UUID),
	}
}

func (s *Store) AddAnimal(name string, initialAnswers map[uuid.UUID]domain.Answer, merge bool) (uuid.UUID, error) {
	key := domain.NormalizeName(name)
	if key == "" {
		return uuid.Nil, fmt.Errorf("animal name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byName[key]; ok {
		if !merge {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrDuplicateAnimal, name)
		}
		// Merge fills unknown slots only; known answers are left alone so a
		// retried reconciliation is a no-op rather than an overwrite.
		existing := s.animals[existingID]
		for qID, ans := range initialAnswers {
			if _, known := s.questions[qID]; !known {
				continue
			}
			if !existing.Answer(qID).Known() {
				existing.Answers[qID] = ans
			}
		}
		return existingID, nil
	}

	animal := &domain.Animal{
		ID:        uuid.New(),
		Name:      name,
		Answers:   make(map[uuid.UUID]domain.Answer, len(initialAnswers)),
		CreatedAt: time.Now(),
	}
	for qID, ans := range initialAnswers {
		if _, known := s.questions[qID]; !known {
			continue
		}
		animal.Answers[qID] = ans
	}
	s.animals[animal.ID] = animal
	s.byName[key] = animal.ID
	return animal.ID, nil
}

func (s *Store) AddQuestion(text string) (uuid.UUID, error) {
	key := domain.NormalizeName(text)
	if key == "" {
		return uuid.Nil, fmt.Errorf("question text is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byText[key]; ok {
		return id, fmt.Errorf("%w: %s", ErrDuplicateQuestion, text)
	}

	q := &domain.Question{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.questions[q.ID] = q
	s.byText[key] = q.ID
	return q.ID, nil
}

func (s *Store) RecordAnswer(animalID, questionID uuid.UUID, answer domain.Answer, correction bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	animal, ok := s.animals[animalID]
	if !ok {
		return ErrAnimalNotFound
	}
	if _, ok := s.questions[questionID]; !ok {
		return ErrQuestionNotFound
	}

	current, recorded := animal.Answers[questionID]
	if recorded && current.Known() && current != answer && !correction {
		return fmt.Errorf("%w: %s has %s recorded, got %s", ErrConflictingAnswer, animal.Name, current, answer)
	}
	animal.Answers[questionID] = answer
	return nil
}

func (s *Store) RecordCorrectGuess(animalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	animal, ok := s.animals[animalID]
	if !ok {
		return ErrAnimalNotFound
	}
	animal.CorrectGuesses++
	return nil
}

func (s *Store) RecordGame(rec domain.GameRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.stats.Played++
	if rec.Success {
		s.stats.Correct++
	}
}

func (s *Store) Animals() []domain.Animal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Animal, 0, len(s.animals))
	for _, a := range s.animals {
		out = append(out, copyAnimal(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *Store) Questions() []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *Store) AnimalByID(id uuid.UUID) (domain.Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.animals[id]
	if !ok {
		return domain.Animal{}, false
	}
	return copyAnimal(a), true
}

func (s *Store) AnimalByName(name string) (domain.Animal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[domain.NormalizeName(name)]
	if !ok {
		return domain.Animal{}, false
	}
	return copyAnimal(s.animals[id]), true
}

func (s *Store) QuestionByText(text string) (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byText[domain.NormalizeName(text)]
	if !ok {
		return domain.Question{}, false
	}
	return *s.questions[id], true
}

func (s *Store) Answer(animalID, questionID uuid.UUID) domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	animal, ok := s.animals[animalID]
	if !ok {
		return domain.AnswerUnknown
	}
	return animal.Answer(questionID)
}

func (s *Store) Coverage(questionID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.animals {
		if a.Answer(questionID).Known() {
			count++
		}
	}
	return count
}

func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Snapshot exports the full state as plain data for persistence collaborators.
func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.Snapshot{
		Animals:   make([]domain.Animal, 0, len(s.animals)),
		Questions: make([]domain.Question, 0, len(s.questions)),
		Records:   make([]domain.GameRecord, len(s.records)),
		Stats:     s.stats,
	}
	for _, a := range s.animals {
		snap.Animals = append(snap.Animals, copyAnimal(a))
	}
	for _, q := range s.questions {
		snap.Questions = append(snap.Questions, *q)
	}
	copy(snap.Records, s.records)
	sort.Slice(snap.Animals, func(i, j int) bool { return snap.Animals[i].ID.String() < snap.Animals[j].ID.String() })
	sort.Slice(snap.Questions, func(i, j int) bool { return snap.Questions[i].ID.String() < snap.Questions[j].ID.String() })
	return snap
}

// Restore replaces the store's state with the snapshot. Answers referencing
// questions absent from the snapshot are dropped.
func (s *Store) Restore(snap *domain.Snapshot) error {
	if snap == nil {
		snap = &domain.Snapshot{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	animals := make(map[uuid.UUID]*domain.Animal, len(snap.Animals))
	questions := make(map[uuid.UUID]*domain.Question, len(snap.Questions))
	byName := make(map[string]uuid.UUID, len(snap.Animals))
	byText := make(map[string]uuid.UUID, len(snap.Questions))

	for i := range snap.Questions {
		q := snap.Questions[i]
		key := domain.NormalizeName(q.Text)
		if _, ok := byText[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.Text)
		}
		questions[q.ID] = &q
		byText[key] = q.ID
	}
	for i := range snap.Animals {
		src := snap.Animals[i]
		key := domain.NormalizeName(src.Name)
		if _, ok := byName[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAnimal, src.Name)
		}
		a := copyAnimal(&src)
		for qID := range a.Answers {
			if _, ok := questions[qID]; !ok {
				delete(a.Answers, qID)
			}
		}
		animals[a.ID] = &a
		byName[key] = a.ID
	}

	s.animals = animals
	s.questions = questions
	s.byName = byName
	s.byText = byText
	s.records = append([]domain.GameRecord(nil), snap.Records...)
	s.stats = snap.Stats
	return nil
}

func copyAnimal(a *domain.Animal) domain.Animal {
	out := *a
	out.Answers = make(map[uuid.UUID]domain.Answer, len(a.Answers))
	for qID, ans := range a.Answers {
		out.Answers[qID] = ans
	}
	return out
}
