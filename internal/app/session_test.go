package app

import (
	"testing"
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

func newTestSession(participants ...ConnectionID) *quizSession {
	return newQuizSession("room-r", 1, 3, participants, time.Now())
}

func TestTallyConservation(t *testing.T) {
	s := newTestSession("c1", "c2", "c3")

	toggles := []struct {
		id   ConnectionID
		q    int
		mark domain.AnswerMark
	}{
		{"c1", 0, domain.MarkCorrect},
		{"c2", 0, domain.MarkIncorrect},
		{"c1", 1, domain.MarkIncorrect},
		{"c1", 0, domain.MarkUnanswered}, // un-toggled again
		{"c3", 2, domain.MarkCorrect},
	}
	for _, tg := range toggles {
		if err := s.setMark(tg.id, tg.q, tg.mark); err != nil {
			t.Fatalf("setMark(%s,%d): %v", tg.id, tg.q, err)
		}
		for q := 0; q < 3; q++ {
			tally, err := s.tally(q)
			if err != nil {
				t.Fatalf("tally(%d): %v", q, err)
			}
			if sum := tally.Correct + tally.Incorrect + tally.Unanswered; sum != 3 {
				t.Fatalf("question %d: tally sums to %d, want 3 (%+v)", q, sum, tally)
			}
		}
	}
}

func TestToggleIsIdempotent(t *testing.T) {
	s := newTestSession("c1", "c2")

	for i := 0; i < 2; i++ {
		if err := s.setMark("c1", 0, domain.MarkCorrect); err != nil {
			t.Fatalf("setMark: %v", err)
		}
	}
	tally, _ := s.tally(0)
	if tally.Correct != 1 || tally.Incorrect != 0 || tally.Unanswered != 1 {
		t.Fatalf("expected {1 0 1}, got %+v", tally)
	}
}

func TestLastWriteWins(t *testing.T) {
	s := newTestSession("c1")

	_ = s.setMark("c1", 1, domain.MarkCorrect)
	_ = s.setMark("c1", 1, domain.MarkIncorrect)

	tally, _ := s.tally(1)
	if tally.Incorrect != 1 || tally.Correct != 0 {
		t.Fatalf("expected overwrite to incorrect, got %+v", tally)
	}
}

func TestFrozenSessionDropsToggles(t *testing.T) {
	s := newTestSession("c1")

	if !s.freeze() {
		t.Fatalf("expected freeze to report transition")
	}
	if s.freeze() {
		t.Fatalf("expected second freeze to be a no-op")
	}
	if err := s.setMark("c1", 0, domain.MarkCorrect); err != domain.ErrSessionFrozen {
		t.Fatalf("expected ErrSessionFrozen, got %v", err)
	}
}

func TestToggleValidation(t *testing.T) {
	s := newTestSession("c1")

	if err := s.setMark("ghost", 0, domain.MarkCorrect); err != domain.ErrNotParticipant {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if err := s.setMark("c1", 3, domain.MarkCorrect); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
	if _, err := s.tally(-1); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
}
