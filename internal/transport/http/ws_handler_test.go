package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/app"
	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
	"github.com/cormac-larkin/EduChan-sub000/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketLiveQuizFlow(t *testing.T) {
	registry := app.NewRegistry()
	hub := app.NewHub(registry)
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	live := app.NewLiveService(registry, hub, quizzes, memory.NewRoomDirectory("room-r"), nil, time.Hour)
	wsHandler := NewWSHandler(live, QueryMemberResolver{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	wsBase := "ws" + server.URL[len("http"):]

	teacher := dial(t, wsBase+"/ws?memberId=9&name=Byrne&role=teacher")
	defer teacher.Close()
	student := dial(t, wsBase+"/ws?memberId=1&name=Alice&role=student")
	defer student.Close()

	// Every connection is greeted with its ID, then roster snapshots.
	_, greeted := readUntil(teacher, t, "connected")
	if _, ok := greeted["connectionId"].(string); !ok {
		t.Fatalf("expected connection ID in greeting, got %+v", greeted)
	}
	readUntil(student, t, "connected")
	readUntil(teacher, t, "update-participants")

	send(t, teacher, "join-room", map[string]any{"room": "room-r"})
	send(t, student, "join-room", map[string]any{"room": "room-r"})
	waitFor(t, func() bool { return len(registry.RoomMembers("room-r")) == 2 })

	send(t, teacher, "start-quiz", map[string]any{"room": "room-r", "quizId": 1})
	_, started := readUntil(student, t, "quiz-started")
	if started["questionCount"] != float64(2) {
		t.Fatalf("expected 2 questions in launch signal, got %+v", started)
	}

	send(t, student, "new-answer", map[string]any{"questionIndex": 0, "correct": true})
	_, tally := readUntil(teacher, t, "tally")
	if tally["correct"] != float64(1) || tally["unanswered"] != float64(0) {
		t.Fatalf("expected live tally {1 0 0}, got %+v", tally)
	}

	send(t, teacher, "end-quiz", map[string]any{"room": "room-r"})
	readUntil(student, t, "end-quiz")
}

func TestWebSocketMessageRelay(t *testing.T) {
	registry := app.NewRegistry()
	hub := app.NewHub(registry)
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	live := app.NewLiveService(registry, hub, quizzes, memory.NewRoomDirectory("room-r"), nil, time.Hour)
	wsHandler := NewWSHandler(live, QueryMemberResolver{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	wsBase := "ws" + server.URL[len("http"):]
	alice := dial(t, wsBase+"/ws?memberId=1&name=Alice")
	defer alice.Close()
	bob := dial(t, wsBase+"/ws?memberId=2&name=Bob")
	defer bob.Close()

	send(t, alice, "join-room", map[string]any{"room": "room-r"})
	send(t, bob, "join-room", map[string]any{"room": "room-r"})
	waitFor(t, func() bool { return len(registry.RoomMembers("room-r")) == 2 })

	send(t, alice, "send-message", map[string]any{"room": "room-r"})
	_, payload := readUntil(bob, t, "send-message")
	if payload["room"] != "room-r" {
		t.Fatalf("expected re-fetch hint for room-r, got %+v", payload)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": eventType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

// readUntil skips events until one of the wanted type arrives. The payload
// map is nil for events whose payload is not a JSON object (e.g. the roster).
func readUntil(conn *websocket.Conn, t *testing.T, eventType string) (string, map[string]any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", eventType, err)
		}
		if msg.Type == eventType {
			var payload map[string]any
			_ = json.Unmarshal(msg.Payload, &payload)
			return msg.Type, payload
		}
	}
}

func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		1: {
			ID:    1,
			Title: "Warm-up",
			Questions: []domain.Question{
				{ID: 6, Content: "Which of these are prime?", Answers: []domain.Answer{
					{ID: 16, Content: "7", Correct: true},
					{ID: 17, Content: "9", Correct: false},
				}},
				{ID: 7, Content: "What is 2 + 2?", Answers: []domain.Answer{
					{ID: 20, Content: "4", Correct: true},
				}},
			},
		},
	}
}
