package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JointStats counts how often a joint was in each state during a session.
type JointStats struct {
	Joint     string  `json:"joint"`
	Good      int     `json:"good"`
	Warning   int     `json:"warning"`
	Danger    int     `json:"danger"`
	DeadZone  int     `json:"deadZone"`
	MeanAngle float64 `json:"meanAngle"`
}

// Session is the summary of one tracking run.
type Session struct {
	ID              string       `json:"id"`
	Exercise        string       `json:"exercise,omitempty"`
	Manual          bool         `json:"manual"`
	StartedAt       time.Time    `json:"startedAt"`
	EndedAt         time.Time    `json:"endedAt"`
	Frames          int          `json:"frames"`
	EvaluatedFrames int          `json:"evaluatedFrames"`
	CorrectFrames   int          `json:"correctFrames"`
	MeanProgress    float64      `json:"meanProgress"`
	Joints          []JointStats `json:"joints,omitempty"`
}

// CorrectRatio is the share of evaluated frames that had correct form.
func (s *Session) CorrectRatio() float64 {
	if s.EvaluatedFrames == 0 {
		return 0
	}
	return float64(s.CorrectFrames) / float64(s.EvaluatedFrames)
}

// Duration is the wall time the session covered.
func (s *Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository stores session summaries.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session and its joint stats in one transaction.
// An empty ID is filled with a new UUID.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	manual := 0
	if s.Manual {
		manual = 1
	}

	_, err = tx.Exec(
		`INSERT INTO sessions (id, exercise, manual, started_at, ended_at, frames, evaluated_frames, correct_frames, mean_progress)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Exercise, manual, s.StartedAt, s.EndedAt, s.Frames, s.EvaluatedFrames, s.CorrectFrames, s.MeanProgress,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO session_joints (session_id, joint, good, warning, danger, dead_zone, mean_angle)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, j := range s.Joints {
		if _, err := stmt.Exec(s.ID, j.Joint, j.Good, j.Warning, j.Danger, j.DeadZone, j.MeanAngle); err != nil {
			return fmt.Errorf("insert joint stats: %w", err)
		}
	}

	return tx.Commit()
}

const sessionColumns = `id, exercise, manual, started_at, ended_at, frames, evaluated_frames, correct_frames, mean_progress`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	s := &Session{}
	var manual int
	err := row.Scan(&s.ID, &s.Exercise, &manual, &s.StartedAt, &s.EndedAt,
		&s.Frames, &s.EvaluatedFrames, &s.CorrectFrames, &s.MeanProgress)
	if err != nil {
		return nil, err
	}
	s.Manual = manual != 0
	return s, nil
}

// GetByID retrieves a session with its joint stats.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Joints, err = r.joints(id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) joints(sessionID string) ([]JointStats, error) {
	rows, err := r.db.Query(
		`SELECT joint, good, warning, danger, dead_zone, mean_angle
		 FROM session_joints WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JointStats
	for rows.Next() {
		var j JointStats
		if err := rows.Scan(&j.Joint, &j.Good, &j.Warning, &j.Danger, &j.DeadZone, &j.MeanAngle); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// List returns the most recent sessions first, without joint stats.
// A limit <= 0 returns every session.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session and its joint stats.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
