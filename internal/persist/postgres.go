package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore persists snapshots in Postgres for server deployments.
// Save replaces the stored state in one transaction, matching the snapshot's
// whole-state semantics.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the tables if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS questions (
			id UUID PRIMARY KEY,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS animals (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			correct_guesses INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS animal_answers (
			animal_id UUID NOT NULL REFERENCES animals(id),
			question_id UUID NOT NULL REFERENCES questions(id),
			answer TEXT NOT NULL,
			PRIMARY KEY (animal_id, question_id)
		);
		CREATE TABLE IF NOT EXISTS game_records (
			id BIGSERIAL PRIMARY KEY,
			played_at TIMESTAMPTZ NOT NULL,
			animal TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			answers JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS stats (
			id INT PRIMARY KEY DEFAULT 1,
			played INT NOT NULL DEFAULT 0,
			correct INT NOT NULL DEFAULT 0
		);`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrPersistenceFailure, err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}

	rows, err := p.db.Query(ctx, `SELECT id, text, created_at FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load questions: %v", ErrPersistenceFailure, err)
	}
	defer rows.Close()
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan question: %v", ErrPersistenceFailure, err)
		}
		snap.Questions = append(snap.Questions, q)
	}
	rows.Close()

	rows, err = p.db.Query(ctx, `SELECT id, name, correct_guesses, created_at FROM animals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load animals: %v", ErrPersistenceFailure, err)
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var a domain.Animal
		if err := rows.Scan(&a.ID, &a.Name, &a.CorrectGuesses, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan animal: %v", ErrPersistenceFailure, err)
		}
		a.Answers = make(map[uuid.UUID]domain.Answer)
		byID[a.ID] = len(snap.Animals)
		snap.Animals = append(snap.Animals, a)
	}
	rows.Close()

	rows, err = p.db.Query(ctx, `SELECT animal_id, question_id, answer FROM animal_answers`)
	if err != nil {
		return nil, fmt.Errorf("%w: load answers: %v", ErrPersistenceFailure, err)
	}
	defer rows.Close()
	for rows.Next() {
		var animalID, questionID uuid.UUID
		var answer string
		if err := rows.Scan(&animalID, &questionID, &answer); err != nil {
			return nil, fmt.Errorf("%w: scan answer: %v", ErrPersistenceFailure, err)
		}
		if i, ok := byID[animalID]; ok {
			snap.Animals[i].Answers[questionID] = domain.Answer(answer)
		}
	}
	rows.Close()

	rows, err = p.db.Query(ctx, `SELECT played_at, animal, success, description, answers FROM game_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load game records: %v", ErrPersistenceFailure, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.GameRecord
		var answers []byte
		if err := rows.Scan(&rec.PlayedAt, &rec.Animal, &rec.Success, &rec.Description, &answers); err != nil {
			return nil, fmt.Errorf("%w: scan game record: %v", ErrPersistenceFailure, err)
		}
		if err := json.Unmarshal(answers, &rec.Answers); err != nil {
			return nil, fmt.Errorf("%w: parse game record answers: %v", ErrPersistenceFailure, err)
		}
		snap.Records = append(snap.Records, rec)
	}
	rows.Close()

	err = p.db.QueryRow(ctx, `SELECT played, correct FROM stats WHERE id = 1`).
		Scan(&snap.Stats.Played, &snap.Stats.Correct)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: load stats: %v", ErrPersistenceFailure, err)
	}

	return snap, nil
}

func (p *PostgresStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistenceFailure, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range []string{
		`DELETE FROM animal_answers`,
		`DELETE FROM game_records`,
		`DELETE FROM animals`,
		`DELETE FROM questions`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: clear tables: %v", ErrPersistenceFailure, err)
		}
	}

	for _, q := range snap.Questions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, text, created_at) VALUES ($1, $2, $3)`,
			q.ID, q.Text, q.CreatedAt,
		); err != nil {
			return fmt.Errorf("%w: insert question: %v", ErrPersistenceFailure, err)
		}
	}
	for _, a := range snap.Animals {
		if _, err := tx.Exec(ctx,
			`INSERT INTO animals (id, name, correct_guesses, created_at) VALUES ($1, $2, $3, $4)`,
			a.ID, a.Name, a.CorrectGuesses, a.CreatedAt,
		); err != nil {
			return fmt.Errorf("%w: insert animal: %v", ErrPersistenceFailure, err)
		}
		for qID, ans := range a.Answers {
			if _, err := tx.Exec(ctx,
				`INSERT INTO animal_answers (animal_id, question_id, answer) VALUES ($1, $2, $3)`,
				a.ID, qID, string(ans),
			); err != nil {
				return fmt.Errorf("%w: insert answer: %v", ErrPersistenceFailure, err)
			}
		}
	}
	for _, rec := range snap.Records {
		answers, err := json.Marshal(rec.Answers)
		if err != nil {
			return fmt.Errorf("%w: encode game record: %v", ErrPersistenceFailure, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_records (played_at, animal, success, description, answers) VALUES ($1, $2, $3, $4, $5)`,
			rec.PlayedAt, rec.Animal, rec.Success, rec.Description, answers,
		); err != nil {
			return fmt.Errorf("%w: insert game record: %v", ErrPersistenceFailure, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO stats (id, played, correct) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET played = EXCLUDED.played, correct = EXCLUDED.correct`,
		snap.Stats.Played, snap.Stats.Correct,
	); err != nil {
		return fmt.Errorf("%w: upsert stats: %v", ErrPersistenceFailure, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersistenceFailure, err)
	}

	p.logger.Debug("saved snapshot to postgres",
		zap.Int("animals", len(snap.Animals)),
		zap.Int("questions", len(snap.Questions)))
	return nil
}
