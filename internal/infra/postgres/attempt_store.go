package postgres

import (
	"context"
	"fmt"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists attempts and their answer rows. The insert path runs
// in a single transaction so a crash mid-insert cannot leave an attempt
// without its answers.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) InsertAttempt(ctx context.Context, quizID, memberID int64, questions []domain.AttemptQuestion) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var attemptID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, member_id, submitted_at) VALUES ($1, $2, now()) RETURNING id`,
		quizID, memberID,
	).Scan(&attemptID)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}

	for _, question := range questions {
		for _, answer := range question.Answers {
			_, err = tx.Exec(ctx,
				`INSERT INTO attempt_answers (attempt_id, question_id, answer_id, is_chosen) VALUES ($1, $2, $3, $4)`,
				attemptID, question.QuestionID, answer.AnswerID, answer.Chosen,
			)
			if err != nil {
				return 0, fmt.Errorf("insert attempt answer: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit attempt: %w", err)
	}
	return attemptID, nil
}

func (s *AttemptStore) Attempts(ctx context.Context, quizID int64) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, member_id, submitted_at FROM attempts WHERE quiz_id=$1 ORDER BY id`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var attempt domain.Attempt
		if err := rows.Scan(&attempt.ID, &attempt.QuizID, &attempt.MemberID, &attempt.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func (s *AttemptStore) ChosenSelections(ctx context.Context, quizID int64) ([]domain.AttemptSelection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT aa.attempt_id, aa.question_id, aa.answer_id
		   FROM attempt_answers aa
		   JOIN attempts a ON a.id = aa.attempt_id
		  WHERE a.quiz_id = $1 AND aa.is_chosen`,
		quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer rows.Close()

	var out []domain.AttemptSelection
	for rows.Next() {
		var sel domain.AttemptSelection
		if err := rows.Scan(&sel.AttemptID, &sel.QuestionID, &sel.AnswerID); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}
