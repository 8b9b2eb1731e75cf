package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// RoomDirectory answers whether a room key refers to a persisted chat room.
type RoomDirectory interface {
	RoomExists(ctx context.Context, roomKey string) (bool, error)
}

// Presence marks rooms with an open live session in shared infrastructure
// (e.g. Redis) so sibling surfaces can show a "quiz in progress" badge.
// Both calls are best-effort.
type Presence interface {
	MarkLive(ctx context.Context, roomKey string)
	ClearLive(ctx context.Context, roomKey string)
}

// defaultSessionTTL bounds how long an abandoned session may stay open
// before it is force-frozen to reclaim its answer table.
const defaultSessionTTL = 2 * time.Hour

// Message is the tagged union of inbound real-time events. Fields beyond
// Type are meaningful only for the types that use them.
type Message struct {
	Type          string
	Room          string
	QuizID        int64
	QuestionIndex int
	Correct       *bool
}

// LiveService is the single dispatcher for connection and room events: the
// broadcast hub plus the per-room live quiz aggregation engine. Handlers
// never return errors to the transport; malformed or unauthorized events are
// logged and dropped, matching the channel's best-effort delivery.
type LiveService struct {
	hub        *Hub
	registry   *Registry
	quizzes    QuizRepository
	rooms      RoomDirectory
	presence   Presence // optional
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*quizSession // by room key
}

func NewLiveService(registry *Registry, hub *Hub, quizzes QuizRepository, rooms RoomDirectory, presence Presence, sessionTTL time.Duration) *LiveService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &LiveService{
		hub:        hub,
		registry:   registry,
		quizzes:    quizzes,
		rooms:      rooms,
		presence:   presence,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]*quizSession),
	}
}

// Connect registers a member's connection with the hub.
func (s *LiveService) Connect(member domain.Member) (ConnectionID, <-chan Event) {
	return s.hub.Connect(member)
}

// Disconnect drops a connection. The participant's answer row survives in any
// open session, but a session whose room has emptied is frozen and discarded.
func (s *LiveService) Disconnect(id ConnectionID) {
	vacated := s.hub.Disconnect(id)
	if vacated != "" && len(s.registry.RoomMembers(vacated)) == 0 {
		s.dropSession(context.Background(), vacated)
	}
}

// Dispatch routes one inbound event from a connection.
func (s *LiveService) Dispatch(ctx context.Context, id ConnectionID, msg Message) {
	switch msg.Type {
	case EventJoinRoom:
		s.joinRoom(ctx, id, msg.Room)
	case EventSendMessage, EventDeleteMessage, EventPromptResponse:
		s.relay(id, msg.Type, msg.Room)
	case EventStartQuiz:
		s.startQuiz(ctx, id, msg.Room, msg.QuizID)
	case EventEndQuiz:
		s.endQuiz(ctx, id, msg.Room)
	case EventNewAnswer:
		s.toggleAnswer(id, msg.QuestionIndex, msg.Correct)
	default:
		log.Printf("live: dropping unknown event %q from %s", msg.Type, id)
	}
}

// Tally returns the live aggregate for one question of a room's session.
func (s *LiveService) Tally(roomKey string, questionIndex int) (domain.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomKey]
	if !ok {
		return domain.Tally{}, domain.ErrSessionNotFound
	}
	return session.tally(questionIndex)
}

// SessionOpen reports whether a room currently has an open live session.
func (s *LiveService) SessionOpen(roomKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[roomKey]
	return ok && session.state == sessionOpen
}

func (s *LiveService) joinRoom(ctx context.Context, id ConnectionID, roomKey string) {
	if roomKey == "" {
		return
	}
	exists, err := s.rooms.RoomExists(ctx, roomKey)
	if err != nil {
		log.Printf("live: room lookup for %q failed: %v", roomKey, err)
		return
	}
	if !exists {
		log.Printf("live: join to %q from %s dropped: %v", roomKey, id, domain.ErrRoomNotFound)
		return
	}
	prev := s.hub.JoinRoom(id, roomKey)
	if prev != "" && prev != roomKey && len(s.registry.RoomMembers(prev)) == 0 {
		s.dropSession(ctx, prev)
	}
}

// relay forwards a re-fetch hint to the other connections in the sender's
// room. The room in the payload must match the sender's current room.
func (s *LiveService) relay(id ConnectionID, eventType, roomKey string) {
	current, ok := s.registry.RoomOf(id)
	if !ok || current != roomKey {
		return
	}
	s.hub.Broadcast(roomKey, eventType, map[string]any{"room": roomKey}, id)
}

func (s *LiveService) startQuiz(ctx context.Context, id ConnectionID, roomKey string, quizID int64) {
	member, ok := s.registry.MemberOf(id)
	if !ok || !member.IsTeacher() {
		return
	}
	current, ok := s.registry.RoomOf(id)
	if !ok || current != roomKey {
		return
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		log.Printf("live: cannot launch quiz %d in %q: %v", quizID, roomKey, err)
		return
	}

	s.mu.Lock()
	if existing, ok := s.sessions[roomKey]; ok && existing.state == sessionOpen {
		s.mu.Unlock()
		log.Printf("live: quiz already running in %q, launch ignored", roomKey)
		return
	}
	session := newQuizSession(roomKey, quizID, len(quiz.Questions), s.studentConnections(roomKey), time.Now())
	session.timer = time.AfterFunc(s.sessionTTL, func() { s.expireSession(roomKey, session) })
	s.sessions[roomKey] = session
	s.mu.Unlock()

	if s.presence != nil {
		s.presence.MarkLive(ctx, roomKey)
	}
	s.hub.Broadcast(roomKey, EventQuizStarted, map[string]any{
		"room":          roomKey,
		"quizId":        quizID,
		"questionCount": len(quiz.Questions),
	}, "")
}

func (s *LiveService) endQuiz(ctx context.Context, id ConnectionID, roomKey string) {
	member, ok := s.registry.MemberOf(id)
	if !ok || !member.IsTeacher() {
		return
	}
	current, ok := s.registry.RoomOf(id)
	if !ok || current != roomKey {
		return
	}
	s.freezeSession(ctx, roomKey, true)
}

func (s *LiveService) toggleAnswer(id ConnectionID, questionIndex int, correct *bool) {
	roomKey, ok := s.registry.RoomOf(id)
	if !ok {
		return
	}

	s.mu.Lock()
	session, ok := s.sessions[roomKey]
	if !ok {
		s.mu.Unlock()
		return
	}
	if err := session.setMark(id, questionIndex, domain.MarkFrom(correct)); err != nil {
		s.mu.Unlock()
		log.Printf("live: toggle from %s dropped: %v", id, err)
		return
	}
	tally, err := session.tally(questionIndex)
	s.mu.Unlock()
	if err != nil {
		return
	}

	s.hub.Broadcast(roomKey, EventNewAnswer, map[string]any{
		"connectionId":  id,
		"questionIndex": questionIndex,
		"correct":       correct,
	}, id)
	s.hub.Broadcast(roomKey, EventTally, tally, "")
}

// studentConnections snapshots the room's current student membership; the
// monitoring teacher holds no answer row, so tallies sum to the student count.
func (s *LiveService) studentConnections(roomKey string) []ConnectionID {
	members := s.registry.RoomMembers(roomKey)
	students := members[:0]
	for _, id := range members {
		if m, ok := s.registry.MemberOf(id); ok && !m.IsTeacher() {
			students = append(students, id)
		}
	}
	return students
}

// freezeSession ends a room's session; when announce is set, the end signal
// is broadcast so each client submits its final attempt.
func (s *LiveService) freezeSession(ctx context.Context, roomKey string, announce bool) {
	s.mu.Lock()
	session, ok := s.sessions[roomKey]
	if !ok || !session.freeze() {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if s.presence != nil {
		s.presence.ClearLive(ctx, roomKey)
	}
	if announce {
		s.hub.Broadcast(roomKey, EventEndQuiz, map[string]any{"room": roomKey}, "")
	}
}

// dropSession freezes and removes the session of an emptied room.
func (s *LiveService) dropSession(ctx context.Context, roomKey string) {
	s.mu.Lock()
	session, ok := s.sessions[roomKey]
	if !ok {
		s.mu.Unlock()
		return
	}
	session.freeze()
	delete(s.sessions, roomKey)
	s.mu.Unlock()

	if s.presence != nil {
		s.presence.ClearLive(ctx, roomKey)
	}
}

// expireSession is the timer path that force-freezes an abandoned session.
func (s *LiveService) expireSession(roomKey string, session *quizSession) {
	s.mu.Lock()
	current, ok := s.sessions[roomKey]
	if !ok || current != session || !current.freeze() {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	log.Printf("live: session in %q exceeded %s, force-frozen", roomKey, s.sessionTTL)
	if s.presence != nil {
		s.presence.ClearLive(context.Background(), roomKey)
	}
	s.hub.Broadcast(roomKey, EventEndQuiz, map[string]any{"room": roomKey}, "")
}
