package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rohan-flutterint/hr-voice-screen/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chunk TEXT NOT NULL,
		source TEXT NOT NULL,
		embedding TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'recruiter',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS screens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		candidate TEXT NOT NULL DEFAULT '',
		role_hint TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'in_progress',
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS screen_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		screen_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		rationale TEXT NOT NULL DEFAULT '',
		ideal_answer TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (screen_id) REFERENCES screens(id)
	);

	CREATE TABLE IF NOT EXISTS screen_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		screen_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		ideal_answer TEXT NOT NULL DEFAULT '',
		candidate_answer TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		sem_score REAL NOT NULL DEFAULT 0,
		rubric_score REAL NOT NULL DEFAULT 0,
		rubric_details TEXT NOT NULL DEFAULT '{}',
		FOREIGN KEY (screen_id) REFERENCES screens(id),
		UNIQUE (screen_id, position)
	);

	CREATE TABLE IF NOT EXISTS screen_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateScreen persists a screening session together with its generated
// question battery inside one transaction.
func (s *Store) CreateScreen(publicID, candidate, roleHint string, questions []model.QuestionRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO screens (public_id, candidate, role_hint, status, started_at) VALUES (?, ?, ?, 'in_progress', ?)`,
		publicID, candidate, roleHint, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	screenID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range questions {
		tags, err := json.Marshal(q.Tags)
		if err != nil {
			return 0, err
		}
		_, err = tx.Exec(
			`INSERT INTO screen_questions (screen_id, position, question, difficulty, rationale, ideal_answer, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			screenID, i, q.Question, q.Difficulty, q.Rationale, q.IdealAnswer, string(tags),
		)
		if err != nil {
			return 0, err
		}
	}

	return screenID, tx.Commit()
}

// GetScreenByPublicID returns a screen by its public identifier.
func (s *Store) GetScreenByPublicID(publicID string) (*model.Screen, error) {
	var sc model.Screen
	err := s.db.QueryRow(
		`SELECT s.id, s.public_id, s.candidate, s.role_hint, s.status, s.started_at, s.completed_at,
		        (SELECT COUNT(*) FROM screen_questions q WHERE q.screen_id = s.id)
		 FROM screens s WHERE s.public_id = ?`, publicID,
	).Scan(&sc.ID, &sc.PublicID, &sc.Candidate, &sc.RoleHint, &sc.Status, &sc.StartedAt, &sc.CompletedAt, &sc.NumQuestions)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListScreens returns all screens, newest first.
func (s *Store) ListScreens() ([]model.Screen, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.public_id, s.candidate, s.role_hint, s.status, s.started_at, s.completed_at,
		        (SELECT COUNT(*) FROM screen_questions q WHERE q.screen_id = s.id)
		 FROM screens s ORDER BY s.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var screens []model.Screen
	for rows.Next() {
		var sc model.Screen
		if err := rows.Scan(&sc.ID, &sc.PublicID, &sc.Candidate, &sc.RoleHint, &sc.Status, &sc.StartedAt, &sc.CompletedAt, &sc.NumQuestions); err != nil {
			return nil, err
		}
		screens = append(screens, sc)
	}
	return screens, rows.Err()
}

// CompleteScreen marks a screen as completed.
func (s *Store) CompleteScreen(screenID int64) error {
	now := time.Now()
	_, err := s.db.Exec(
		`UPDATE screens SET status = ?, completed_at = ? WHERE id = ?`,
		model.ScreenCompleted, now, screenID,
	)
	return err
}

// GetScreenQuestions returns the question battery for a screen in position order.
func (s *Store) GetScreenQuestions(screenID int64) ([]model.QuestionRecord, error) {
	rows, err := s.db.Query(
		`SELECT question, difficulty, rationale, ideal_answer, tags
		 FROM screen_questions WHERE screen_id = ? ORDER BY position`, screenID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.QuestionRecord
	for rows.Next() {
		var q model.QuestionRecord
		var tags string
		if err := rows.Scan(&q.Question, &q.Difficulty, &q.Rationale, &q.IdealAnswer, &tags); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
			q.Tags = []string{}
		}
		if q.Tags == nil {
			q.Tags = []string{}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AppendAnswer persists one scored answer at the given position.
func (s *Store) AppendAnswer(screenID int64, position int, r model.AnswerResult) error {
	details, err := json.Marshal(r.RubricDetails)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO screen_answers (screen_id, position, question, difficulty, ideal_answer, candidate_answer, score, sem_score, rubric_score, rubric_details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		screenID, position, r.Question, r.Difficulty, r.IdealAnswer, r.CandidateAnswer,
		r.Score, r.SemScore, r.RubricScore, string(details),
	)
	return err
}

// GetScreenAnswers returns the recorded answers for a screen in position order.
func (s *Store) GetScreenAnswers(screenID int64) ([]model.AnswerResult, error) {
	rows, err := s.db.Query(
		`SELECT question, difficulty, ideal_answer, candidate_answer, score, sem_score, rubric_score, rubric_details
		 FROM screen_answers WHERE screen_id = ? ORDER BY position`, screenID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.AnswerResult
	for rows.Next() {
		var r model.AnswerResult
		var details string
		if err := rows.Scan(&r.Question, &r.Difficulty, &r.IdealAnswer, &r.CandidateAnswer, &r.Score, &r.SemScore, &r.RubricScore, &details); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(details), &r.RubricDetails); err != nil {
			r.RubricDetails = model.RubricDetails{}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ScreenCount returns the number of screens in the database.
func (s *Store) ScreenCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM screens`).Scan(&count)
	return count, err
}
