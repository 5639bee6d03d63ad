package game

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/dkrasnove/faunaguess/internal/extract"
	"github.com/dkrasnove/faunaguess/internal/knowledge"
	"github.com/dkrasnove/faunaguess/internal/learning"
	"github.com/dkrasnove/faunaguess/internal/persist"
	"github.com/dkrasnove/faunaguess/internal/seed"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newTestService(t *testing.T) (*Service, *knowledge.Store, string) {
	t.Helper()
	store := knowledge.NewStore()
	path := filepath.Join(t.TempDir(), "kb.json")
	persister := persist.NewFileStore(path, zap.NewNop())
	svc := New(store, persister, extract.NewMockExtractor(), DefaultOptions(), zap.NewNop())
	return svc, store, path
}

// twoAnimals seeds Dog and Cat separated by a single question.
func twoAnimals(t *testing.T, store *knowledge.Store) (bark uuid.UUID, dog uuid.UUID, cat uuid.UUID) {
	t.Helper()
	bark, err := store.AddQuestion("Does it bark?")
	if err != nil {
		t.Fatal(err)
	}
	dog, err = store.AddAnimal("Dog", map[uuid.UUID]domain.Answer{bark: domain.AnswerYes}, false)
	if err != nil {
		t.Fatal(err)
	}
	cat, err = store.AddAnimal("Cat", map[uuid.UUID]domain.Answer{bark: domain.AnswerNo}, false)
	if err != nil {
		t.Fatal(err)
	}
	return bark, dog, cat
}

func TestInit_SeedsOnFirstRunOnly(t *testing.T) {
	svc, _, path := newTestService(t)
	ctx := context.Background()

	if err := svc.Init(ctx, seed.Default()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := len(svc.Animals()); got != 10 {
		t.Fatalf("animals after seed = %d, want 10", got)
	}

	// A second service over the same file loads the persisted set instead of
	// seeding again.
	store2 := knowledge.NewStore()
	svc2 := New(store2, persist.NewFileStore(path, zap.NewNop()), extract.NewMockExtractor(), DefaultOptions(), zap.NewNop())
	if err := svc2.Init(ctx, seed.Default()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if got := len(svc2.Animals()); got != 10 {
		t.Errorf("animals after reload = %d, want 10", got)
	}
}

func TestPlayRound_CorrectGuess(t *testing.T) {
	svc, store, path := newTestService(t)
	bark, dogID, _ := twoAnimals(t, store)
	ctx := context.Background()

	session := svc.StartSession()
	if len(session.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(session.Candidates))
	}

	q, err := svc.NextQuestion(session.ID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if q.ID != bark {
		t.Fatalf("selected %q, want the bark question", q.Text)
	}

	if err := svc.SubmitAnswer(session.ID, q.ID, domain.AnswerYes); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	guess, err := svc.Guess(session.ID)
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if guess.Animal.ID != dogID {
		t.Errorf("guessed %q, want Dog", guess.Animal.Name)
	}
	if guess.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", guess.Confidence)
	}
	if !guess.Recommend {
		t.Error("expected a guess recommendation")
	}

	result, err := svc.Finish(ctx, session.ID, learning.Outcome{Kind: learning.OutcomeCorrect})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.AnimalID != dogID {
		t.Errorf("reconciled %v, want Dog", result.AnimalID)
	}
	if got := svc.Stats(); got.Played != 1 || got.Correct != 1 {
		t.Errorf("stats = %+v, want 1 played 1 correct", got)
	}
	if _, err := svc.Session(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session still live after Finish: %v", err)
	}

	// The round survived the restart.
	snap, err := persist.NewFileStore(path, zap.NewNop()).Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Stats.Played != 1 {
		t.Errorf("persisted Played = %d, want 1", snap.Stats.Played)
	}
}

func TestPlayRound_LearnsNewAnimal(t *testing.T) {
	svc, store, _ := newTestService(t)
	bark, _, _ := twoAnimals(t, store)
	ctx := context.Background()

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerNo); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Guess(session.ID); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Finish(ctx, session.ID, learning.Outcome{
		Kind:       learning.OutcomeNew,
		AnimalName: "Fox",
	})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !result.AnimalCreated {
		t.Error("expected a new animal")
	}
	fox, ok := svc.AnimalByName("fox")
	if !ok {
		t.Fatal("Fox not stored")
	}
	if got := store.Answer(fox.ID, bark); got != domain.AnswerNo {
		t.Errorf("Fox/bark = %q, want no", got)
	}
}

func TestNextQuestion_MaxQuestionsLimit(t *testing.T) {
	store := knowledge.NewStore()
	bark, _, _ := twoAnimals(t, store)
	if _, err := store.AddQuestion("Can it fly?"); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.MaxQuestions = 1
	svc := New(store, persist.NewFileStore(filepath.Join(t.TempDir(), "kb.json"), zap.NewNop()),
		extract.NewMockExtractor(), opts, zap.NewNop())

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerUnknown); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.NextQuestion(session.ID); !errors.Is(err, domain.ErrQuestionsExhausted) {
		t.Errorf("expected ErrQuestionsExhausted at the limit, got %v", err)
	}
}

func TestNextQuestion_MaybeDoesNotConsumeQuestion(t *testing.T) {
	svc, store, _ := newTestService(t)
	bark, _, _ := twoAnimals(t, store)

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerUnknown); err != nil {
		t.Fatal(err)
	}

	// A maybe carries no information, so the only discriminating question
	// must come back instead of an exhausted signal.
	q, err := svc.NextQuestion(session.ID)
	if err != nil {
		t.Fatalf("NextQuestion after maybe: %v", err)
	}
	if q.ID != bark {
		t.Fatalf("selected %q, want the bark question again", q.Text)
	}

	// A yes/no answer consumes it.
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerYes); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.NextQuestion(session.ID); !errors.Is(err, domain.ErrQuestionsExhausted) {
		t.Errorf("expected ErrQuestionsExhausted after the known answer, got %v", err)
	}
}

func TestGuess_NoCandidates(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, dogID, catID := twoAnimals(t, store)
	fly, err := store.AddQuestion("Can it fly?")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []uuid.UUID{dogID, catID} {
		if err := store.RecordAnswer(id, fly, domain.AnswerNo, false); err != nil {
			t.Fatal(err)
		}
	}

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, fly, domain.AnswerYes); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Guess(session.ID); !errors.Is(err, domain.ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestAbandon_LeavesStoreUntouched(t *testing.T) {
	svc, store, _ := newTestService(t)
	bark, _, _ := twoAnimals(t, store)

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerYes); err != nil {
		t.Fatal(err)
	}
	svc.Abandon(session.ID)

	if got := store.Stats(); got.Played != 0 {
		t.Errorf("stats after abandon = %+v, want zero", got)
	}
	if _, err := svc.Session(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session still live after Abandon: %v", err)
	}
}

func TestSubmitAnswer_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	bark, _, _ := twoAnimals(t, store)

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, uuid.New(), domain.AnswerYes); !errors.Is(err, knowledge.ErrQuestionNotFound) {
		t.Errorf("expected ErrQuestionNotFound, got %v", err)
	}
	if err := svc.SubmitAnswer(session.ID, bark, domain.Answer("perhaps")); err == nil {
		t.Error("expected error for invalid answer")
	}
	if err := svc.SubmitAnswer(uuid.New(), bark, domain.AnswerYes); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCleanup_RemovesStaleSessions(t *testing.T) {
	svc, store, _ := newTestService(t)
	twoAnimals(t, store)

	stale := svc.StartSession()
	stale.StartedAt = time.Now().Add(-2 * time.Hour)
	fresh := svc.StartSession()

	if removed := svc.Cleanup(time.Hour); removed != 1 {
		t.Fatalf("Cleanup removed %d sessions, want 1", removed)
	}
	if _, err := svc.Session(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session survived cleanup: %v", err)
	}
	if _, err := svc.Session(fresh.ID); err != nil {
		t.Errorf("fresh session swept: %v", err)
	}
}

func TestSubmitAnswer_ConcurrentRequests(t *testing.T) {
	svc, store, _ := newTestService(t)
	bark, _, _ := twoAnimals(t, store)

	session := svc.StartSession()

	// Parallel answers to one session must serialize: every submission lands
	// in the history exactly once.
	var g errgroup.Group
	const n = 16
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return svc.SubmitAnswer(session.ID, bark, domain.AnswerUnknown)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent SubmitAnswer: %v", err)
	}

	_, answered, err := svc.SessionStatus(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if answered != n {
		t.Errorf("history length = %d, want %d", answered, n)
	}
}

// failingPersister loads fine but refuses to save.
type failingPersister struct{}

func (failingPersister) Load(context.Context) (*domain.Snapshot, error) {
	return &domain.Snapshot{}, nil
}

func (failingPersister) Save(context.Context, *domain.Snapshot) error {
	return fmt.Errorf("%w: disk full", persist.ErrPersistenceFailure)
}

func TestFinish_SaveFailureKeepsResult(t *testing.T) {
	store := knowledge.NewStore()
	bark, dogID, _ := twoAnimals(t, store)
	svc := New(store, failingPersister{}, extract.NewMockExtractor(), DefaultOptions(), zap.NewNop())

	session := svc.StartSession()
	if err := svc.SubmitAnswer(session.ID, bark, domain.AnswerYes); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Guess(session.ID); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Finish(context.Background(), session.ID, learning.Outcome{Kind: learning.OutcomeCorrect})
	if !errors.Is(err, persist.ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
	if result == nil || result.AnimalID != dogID {
		t.Errorf("reconciliation result lost on save failure: %+v", result)
	}

	// The in-memory learning still took effect.
	if got := store.Stats(); got.Correct != 1 {
		t.Errorf("stats = %+v, want the confirmed guess recorded", got)
	}
}
