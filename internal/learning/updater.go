package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMinRelevantConfidence is the floor below which the previous top
	// candidate is not considered a meaningful neighbor of a new animal.
	DefaultMinRelevantConfidence = 0.3
)

type OutcomeKind string

const (
	// OutcomeCorrect confirms the guessed animal.
	OutcomeCorrect OutcomeKind = "correct"
	// OutcomeKnown names the true animal; it may or may not exist yet.
	OutcomeKnown OutcomeKind = "known"
	// OutcomeNew registers a brand-new animal, optionally with a free-text
	// description for feature extraction.
	OutcomeNew OutcomeKind = "new"
)

// Outcome is the ground truth delivered by the player at session end.
// Distinction optionally pre-supplies a distinguishing question for
// non-interactive surfaces; when nil the configured QuestionProvider is
// consulted instead.
type Outcome struct {
	Kind        OutcomeKind
	AnimalName  string
	Description string
	Distinction *domain.Distinction
}

// Conflict records a contradiction between a stored answer and a session
// answer. Conflicts are surfaced as data-quality issues, never silently
// resolved; the stored answer stands.
type Conflict struct {
	AnimalID   uuid.UUID     `json:"animal_id"`
	QuestionID uuid.UUID     `json:"question_id"`
	Stored     domain.Answer `json:"stored"`
	Given      domain.Answer `json:"given"`
}

// Result summarizes what reconciliation changed.
type Result struct {
	AnimalID        uuid.UUID  `json:"animal_id"`
	AnimalCreated   bool       `json:"animal_created"`
	AnswersLearned  int        `json:"answers_learned"`
	NewQuestionID   *uuid.UUID `json:"new_question_id,omitempty"`
	Conflicts       []Conflict `json:"conflicts,omitempty"`
	DistinguishedID *uuid.UUID `json:"distinguished_from,omitempty"`
}

// Updater reconciles a finished session into the knowledge store. It is the
// only component that mutates persisted state, and it runs once per session
// at termination. Every operation is a merge or a no-op on retry, so
// replaying the same reconciliation after a crash is idempotent.
type Updater struct {
	store     domain.KnowledgeStore
	extractor domain.Extractor
	provider  domain.QuestionProvider
	logger    *zap.Logger

	MinRelevantConfidence float64
}

func NewUpdater(store domain.KnowledgeStore, extractor domain.Extractor, logger *zap.Logger) *Updater {
	return &Updater{
		store:                 store,
		extractor:             extractor,
		logger:                logger,
		MinRelevantConfidence: DefaultMinRelevantConfidence,
	}
}

// SetQuestionProvider wires the collaborator that supplies a distinguishing
// question when no stored question separates two animals.
func (u *Updater) SetQuestionProvider(p domain.QuestionProvider) {
	u.provider = p
}

// Reconcile applies the session outcome to the knowledge store.
func (u *Updater) Reconcile(ctx context.Context, session *domain.Session, outcome Outcome) (*Result, error) {
	switch outcome.Kind {
	case OutcomeCorrect:
		return u.reconcileCorrect(session)
	case OutcomeKnown, OutcomeNew:
		return u.reconcileLearned(ctx, session, outcome)
	}
	return nil, fmt.Errorf("unknown outcome kind %q", outcome.Kind)
}

func (u *Updater) reconcileCorrect(session *domain.Session) (*Result, error) {
	if session.LastGuessID == nil {
		return nil, errors.New("correct outcome without a guess")
	}
	id := *session.LastGuessID
	animal, ok := u.store.AnimalByID(id)
	if !ok {
		return nil, knowledge.ErrAnimalNotFound
	}
	if err := u.store.RecordCorrectGuess(id); err != nil {
		return nil, err
	}
	u.recordGame(session, animal.Name, true, "")
	u.logger.Info("confirmed guess", zap.String("animal", animal.Name))
	return &Result{AnimalID: id}, nil
}

// reconcileLearned handles both the wrong-guess-but-known and the brand-new
// outcome: the two converge because an unrecognized "known" name is treated
// as new, and a colliding "new" name merges into the existing animal.
func (u *Updater) reconcileLearned(ctx context.Context, session *domain.Session, outcome Outcome) (*Result, error) {
	if outcome.AnimalName == "" {
		return nil, errors.New("animal name is required")
	}

	res := &Result{}

	existing, existed := u.store.AnimalByName(outcome.AnimalName)
	if existed {
		res.AnimalID = existing.ID
	} else {
		id, err := u.store.AddAnimal(outcome.AnimalName, nil, true)
		if err != nil {
			return nil, fmt.Errorf("add animal: %w", err)
		}
		res.AnimalID = id
		res.AnimalCreated = true
	}

	// Online-learning step: fill unknown slots from the session's answers.
	// A stored known answer that disagrees is a conflict to report, never an
	// overwrite.
	for _, qa := range session.History {
		if !qa.Answer.Known() {
			continue
		}
		learned, conflict := u.learnAnswer(res.AnimalID, qa.QuestionID, qa.Answer)
		res.AnswersLearned += learned
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
		}
	}

	if outcome.Description != "" && u.extractor != nil {
		if err := u.applyDescription(ctx, res, outcome.Description); err != nil {
			u.logger.Warn("feature extraction failed", zap.Error(err))
		}
	}

	// Make the animal immediately distinguishable from the round's top
	// candidate. For a wrongly guessed known animal this is unconditional;
	// for a brand-new animal the previous guess must have been a relevant
	// neighbor, or there is nothing meaningful to separate it from.
	if session.LastGuessID != nil && *session.LastGuessID != res.AnimalID &&
		(outcome.Kind != OutcomeNew || session.LastGuessConfidence >= u.MinRelevantConfidence) {
		if err := u.ensureDistinguishable(ctx, res, *session.LastGuessID, outcome.Distinction); err != nil {
			u.logger.Warn("distinguishing question flow failed", zap.Error(err))
		}
	}

	u.recordGame(session, outcome.AnimalName, false, outcome.Description)
	u.logger.Info("learned from game",
		zap.String("animal", outcome.AnimalName),
		zap.Bool("created", res.AnimalCreated),
		zap.Int("answers_learned", res.AnswersLearned),
		zap.Int("conflicts", len(res.Conflicts)))
	return res, nil
}

// learnAnswer writes one answer without the correction flag. Returns how
// many cells were learned (0 or 1) and any conflict encountered.
func (u *Updater) learnAnswer(animalID, questionID uuid.UUID, ans domain.Answer) (int, *Conflict) {
	stored := u.store.Answer(animalID, questionID)
	err := u.store.RecordAnswer(animalID, questionID, ans, false)
	if err == nil {
		if !stored.Known() {
			return 1, nil
		}
		return 0, nil
	}
	if errors.Is(err, knowledge.ErrConflictingAnswer) {
		return 0, &Conflict{AnimalID: animalID, QuestionID: questionID, Stored: stored, Given: ans}
	}
	u.logger.Warn("record answer failed",
		zap.String("animal_id", animalID.String()),
		zap.String("question_id", questionID.String()),
		zap.Error(err))
	return 0, nil
}

// applyDescription folds extracted features in as ordinary questions and
// answers, deduplicating question text through the store.
func (u *Updater) applyDescription(ctx context.Context, res *Result, description string) error {
	features, err := u.extractor.Extract(ctx, description)
	if err != nil {
		return err
	}
	for _, f := range features {
		qID, err := u.addOrFindQuestion(f.QuestionText)
		if err != nil {
			u.logger.Warn("skipping extracted feature", zap.String("question", f.QuestionText), zap.Error(err))
			continue
		}
		learned, conflict := u.learnAnswer(res.AnimalID, qID, f.Answer)
		res.AnswersLearned += learned
		if conflict != nil {
			res.Conflicts = append(res.Conflicts, *conflict)
		}
	}
	return nil
}

// ensureDistinguishable checks whether any stored question already separates
// the animal from its neighbor, and if not registers a new discriminating
// question for both animals, taken from the pre-supplied distinction or the
// question provider.
func (u *Updater) ensureDistinguishable(ctx context.Context, res *Result, neighborID uuid.UUID, supplied *domain.Distinction) error {
	subject, ok := u.store.AnimalByID(res.AnimalID)
	if !ok {
		return knowledge.ErrAnimalNotFound
	}
	neighbor, ok := u.store.AnimalByID(neighborID)
	if !ok {
		return knowledge.ErrAnimalNotFound
	}

	if distinguishable(&subject, &neighbor, u.store.Questions()) {
		return nil
	}

	var d domain.Distinction
	switch {
	case supplied != nil:
		d = *supplied
	case u.provider != nil:
		var err error
		d, err = u.provider.Distinguish(ctx, subject, neighbor)
		if err != nil {
			return fmt.Errorf("distinguish %s from %s: %w", subject.Name, neighbor.Name, err)
		}
	default:
		u.logger.Warn("no distinguishing question available",
			zap.String("subject", subject.Name),
			zap.String("neighbor", neighbor.Name))
		return nil
	}
	qID, err := u.addOrFindQuestion(d.QuestionText)
	if err != nil {
		return err
	}
	if _, conflict := u.learnAnswer(subject.ID, qID, d.SubjectAnswer); conflict != nil {
		res.Conflicts = append(res.Conflicts, *conflict)
	}
	if _, conflict := u.learnAnswer(neighbor.ID, qID, d.OtherAnswer); conflict != nil {
		res.Conflicts = append(res.Conflicts, *conflict)
	}
	res.NewQuestionID = &qID
	res.DistinguishedID = &neighborID
	return nil
}

// addOrFindQuestion registers the question, falling back to the existing ID
// on a duplicate so retries merge instead of erroring.
func (u *Updater) addOrFindQuestion(text string) (uuid.UUID, error) {
	id, err := u.store.AddQuestion(text)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, knowledge.ErrDuplicateQuestion) {
		if q, ok := u.store.QuestionByText(text); ok {
			return q.ID, nil
		}
	}
	return uuid.Nil, err
}

func (u *Updater) recordGame(session *domain.Session, animal string, success bool, description string) {
	answers := make(map[uuid.UUID]domain.Answer, len(session.History))
	for _, qa := range session.History {
		answers[qa.QuestionID] = qa.Answer
	}
	u.store.RecordGame(domain.GameRecord{
		PlayedAt:    time.Now(),
		Animal:      animal,
		Answers:     answers,
		Success:     success,
		Description: description,
	})
}

// distinguishable reports whether some question has known, differing answers
// for both animals.
func distinguishable(a, b *domain.Animal, questions []domain.Question) bool {
	for _, q := range questions {
		av, bv := a.Answer(q.ID), b.Answer(q.ID)
		if av.Known() && bv.Known() && av != bv {
			return true
		}
	}
	return false
}
