package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. Appends
// happen under one lock, so an insert is trivially all-or-nothing.
type AttemptStore struct {
	mu       sync.RWMutex
	nextID   int64
	attempts []domain.Attempt
	rows     []attemptRow
}

type attemptRow struct {
	attemptID  int64
	questionID int64
	answerID   int64
	chosen     bool
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) InsertAttempt(_ context.Context, quizID, memberID int64, questions []domain.AttemptQuestion) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.attempts = append(s.attempts, domain.Attempt{
		ID:          id,
		QuizID:      quizID,
		MemberID:    memberID,
		SubmittedAt: time.Now(),
	})
	for _, question := range questions {
		for _, answer := range question.Answers {
			s.rows = append(s.rows, attemptRow{
				attemptID:  id,
				questionID: question.QuestionID,
				answerID:   answer.AnswerID,
				chosen:     answer.Chosen,
			})
		}
	}
	return id, nil
}

func (s *AttemptStore) Attempts(_ context.Context, quizID int64) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (s *AttemptStore) ChosenSelections(_ context.Context, quizID int64) ([]domain.AttemptSelection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inQuiz := make(map[int64]bool)
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID {
			inQuiz[attempt.ID] = true
		}
	}

	var out []domain.AttemptSelection
	for _, row := range s.rows {
		if row.chosen && inQuiz[row.attemptID] {
			out = append(out, domain.AttemptSelection{
				AttemptID:  row.attemptID,
				QuestionID: row.questionID,
				AnswerID:   row.answerID,
			})
		}
	}
	return out, nil
}
