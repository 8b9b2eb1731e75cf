package app

import (
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

type sessionState int8

const (
	sessionOpen sessionState = iota
	sessionFrozen
)

// quizSession is the ephemeral aggregation context for one live quiz run in
// one room. The participant set is snapshotted at launch; connections joining
// the room later are not added. The marks table is owned exclusively by the
// session and mutated only through setMark under the LiveService lock.
type quizSession struct {
	roomKey   string
	quizID    int64
	questions int
	state     sessionState
	openedAt  time.Time
	marks     map[ConnectionID][]domain.AnswerMark
	timer     *time.Timer
}

func newQuizSession(roomKey string, quizID int64, questions int, participants []ConnectionID, now time.Time) *quizSession {
	s := &quizSession{
		roomKey:   roomKey,
		quizID:    quizID,
		questions: questions,
		openedAt:  now,
		marks:     make(map[ConnectionID][]domain.AnswerMark, len(participants)),
	}
	for _, id := range participants {
		s.marks[id] = make([]domain.AnswerMark, questions)
	}
	return s
}

// setMark records a participant's tri-state toggle for one question.
// Last write wins; repeating the same toggle is a no-op by construction.
func (s *quizSession) setMark(id ConnectionID, questionIndex int, mark domain.AnswerMark) error {
	if s.state != sessionOpen {
		return domain.ErrSessionFrozen
	}
	row, ok := s.marks[id]
	if !ok {
		return domain.ErrNotParticipant
	}
	if questionIndex < 0 || questionIndex >= s.questions {
		return domain.ErrQuestionOutOfRange
	}
	row[questionIndex] = mark
	return nil
}

// tally scans the question's column across all participant rows. Rows of
// disconnected participants are retained so unanswered counts stay meaningful.
func (s *quizSession) tally(questionIndex int) (domain.Tally, error) {
	if questionIndex < 0 || questionIndex >= s.questions {
		return domain.Tally{}, domain.ErrQuestionOutOfRange
	}
	t := domain.Tally{QuestionIndex: questionIndex}
	for _, row := range s.marks {
		switch row[questionIndex] {
		case domain.MarkCorrect:
			t.Correct++
		case domain.MarkIncorrect:
			t.Incorrect++
		default:
			t.Unanswered++
		}
	}
	return t, nil
}

// freeze moves the session to its terminal state and stops the expiry timer.
// It reports whether the session was open.
func (s *quizSession) freeze() bool {
	if s.state == sessionFrozen {
		return false
	}
	s.state = sessionFrozen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}
