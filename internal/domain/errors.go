package domain

import "errors"

var (
	// ErrRoomNotFound indicates a join or launch referenced an unknown room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when no live session is open for a room.
	ErrSessionNotFound = errors.New("live session not found")
	// ErrSessionFrozen indicates a toggle arrived after the end signal.
	ErrSessionFrozen = errors.New("live session frozen")
	// ErrNotParticipant indicates the connection was not in the launch snapshot.
	ErrNotParticipant = errors.New("not a session participant")
	// ErrQuestionOutOfRange indicates a question index outside the quiz.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrEmptyAttempt indicates a submission carried no selections.
	ErrEmptyAttempt = errors.New("attempt has no answers")
)
