package domain

import "time"

// Member roles as persisted by the membership service.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Member is the acting identity behind a connection or REST request,
// resolved by the (out-of-core) auth layer.
type Member struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsTeacher reports whether the member may launch or end live quizzes.
func (m Member) IsTeacher() bool { return m.Role == RoleTeacher }

// AnswerMark is the tri-state slot a participant holds per live question.
type AnswerMark int8

const (
	MarkUnanswered AnswerMark = iota
	MarkCorrect
	MarkIncorrect
)

// MarkFrom maps a toggle payload (true/false/null) to a tri-state mark.
func MarkFrom(correct *bool) AnswerMark {
	switch {
	case correct == nil:
		return MarkUnanswered
	case *correct:
		return MarkCorrect
	default:
		return MarkIncorrect
	}
}

// Tally is the per-question aggregate served live during a quiz session.
type Tally struct {
	QuestionIndex int `json:"questionIndex"`
	Correct       int `json:"correct"`
	Incorrect     int `json:"incorrect"`
	Unanswered    int `json:"unanswered"`
}

// Answer is one selectable option of a question.
type Answer struct {
	ID      int64  `json:"answer_id"`
	Content string `json:"content"`
	Correct bool   `json:"is_correct"`
}

// Question models an MCQ question; any subset of answers may be correct.
type Question struct {
	ID      int64    `json:"id"`
	Content string   `json:"content"`
	Answers []Answer `json:"answers"`
}

// CorrectSet returns the IDs of the answers flagged correct.
func (q Question) CorrectSet() map[int64]bool {
	set := make(map[int64]bool, len(q.Answers))
	for _, a := range q.Answers {
		if a.Correct {
			set[a.ID] = true
		}
	}
	return set
}

// Quiz is a collection of questions owned by a room.
type Quiz struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Attempt is the durable record of one member's final quiz submission.
type Attempt struct {
	ID          int64     `json:"id"`
	QuizID      int64     `json:"quiz_id"`
	MemberID    int64     `json:"member_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AttemptAnswer is one (question, answer) selection inside a submission.
type AttemptAnswer struct {
	AnswerID int64 `json:"answer_id"`
	Chosen   bool  `json:"isChosen"`
}

// AttemptQuestion groups the selections a member submitted for one question.
type AttemptQuestion struct {
	QuestionID int64           `json:"id"`
	Answers    []AttemptAnswer `json:"answers"`
}

// AttemptSelection is a flattened chosen row as persisted, used for reports.
type AttemptSelection struct {
	AttemptID  int64
	QuestionID int64
	AnswerID   int64
}

// QuestionReport is the derived per-question grading summary.
type QuestionReport struct {
	QuestionID             int64    `json:"question_id"`
	Content                string   `json:"content"`
	PercentageFullyCorrect int      `json:"percentage_fully_correct"`
	Answers                []Answer `json:"answers"`
}
