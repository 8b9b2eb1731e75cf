package app

import (
	"context"
	"fmt"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// AttemptStore persists submitted attempts. InsertAttempt must write the
// Attempt row and every AttemptAnswer row in one atomic transaction; a crash
// mid-insert must never leave an orphaned attempt with partial answers.
type AttemptStore interface {
	InsertAttempt(ctx context.Context, quizID, memberID int64, questions []domain.AttemptQuestion) (int64, error)
	Attempts(ctx context.Context, quizID int64) ([]domain.Attempt, error)
	ChosenSelections(ctx context.Context, quizID int64) ([]domain.AttemptSelection, error)
}

// GradingService persists final quiz submissions and computes per-question
// correctness reports from the durable record. Its grading predicate is the
// exact-set counterpart of the live engine's tri-state marks: a question
// counts as fully correct only when the chosen answer set equals the
// question's correct answer set, with no partial credit.
type GradingService struct {
	store   AttemptStore
	quizzes QuizRepository
}

func NewGradingService(store AttemptStore, quizzes QuizRepository) *GradingService {
	return &GradingService{store: store, quizzes: quizzes}
}

// RecordAttempt validates and persists one member's submission, returning the
// new attempt ID.
func (g *GradingService) RecordAttempt(ctx context.Context, quizID, memberID int64, questions []domain.AttemptQuestion) (int64, error) {
	if len(questions) == 0 {
		return 0, domain.ErrEmptyAttempt
	}
	if _, err := g.quizzes.GetQuiz(ctx, quizID); err != nil {
		return 0, err
	}
	id, err := g.store.InsertAttempt(ctx, quizID, memberID, questions)
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	return id, nil
}

// QuestionReport computes, for each question of the quiz, the rounded
// percentage of persisted attempts whose chosen answers match the correct
// set exactly.
func (g *GradingService) QuestionReport(ctx context.Context, quizID int64) ([]domain.QuestionReport, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := g.store.Attempts(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	selections, err := g.store.ChosenSelections(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load selections: %w", err)
	}

	// attempt -> question -> chosen answer IDs
	chosen := make(map[int64]map[int64]map[int64]bool)
	for _, sel := range selections {
		byQuestion, ok := chosen[sel.AttemptID]
		if !ok {
			byQuestion = make(map[int64]map[int64]bool)
			chosen[sel.AttemptID] = byQuestion
		}
		set, ok := byQuestion[sel.QuestionID]
		if !ok {
			set = make(map[int64]bool)
			byQuestion[sel.QuestionID] = set
		}
		set[sel.AnswerID] = true
	}

	reports := make([]domain.QuestionReport, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		correct := question.CorrectSet()
		fully := 0
		for _, attempt := range attempts {
			if setsEqual(chosen[attempt.ID][question.ID], correct) {
				fully++
			}
		}
		reports = append(reports, domain.QuestionReport{
			QuestionID:             question.ID,
			Content:                question.Content,
			PercentageFullyCorrect: roundedPercent(fully, len(attempts)),
			Answers:                question.Answers,
		})
	}
	return reports, nil
}

func setsEqual(a, b map[int64]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func roundedPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total/2) / total
}
