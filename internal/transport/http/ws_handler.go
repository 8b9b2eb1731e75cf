package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/cormac-larkin/EduChan-sub000/internal/app"
	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
	"github.com/gorilla/websocket"
)

// MemberResolver supplies the acting member behind a request. The real
// deployment resolves the session cookie; QueryMemberResolver covers tests
// and demo mode.
type MemberResolver interface {
	Resolve(r *http.Request) (domain.Member, error)
}

// QueryMemberResolver reads the member identity from query parameters.
type QueryMemberResolver struct{}

func (QueryMemberResolver) Resolve(r *http.Request) (domain.Member, error) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("memberId"), 10, 64)
	role := r.URL.Query().Get("role")
	if role != domain.RoleTeacher {
		role = domain.RoleStudent
	}
	return domain.Member{
		ID:   id,
		Name: r.URL.Query().Get("name"),
		Role: role,
	}, nil
}

type WSHandler struct {
	live     *app.LiveService
	resolver MemberResolver
	upgrader websocket.Upgrader
}

func NewWSHandler(live *app.LiveService, resolver MemberResolver) *WSHandler {
	return &WSHandler{
		live:     live,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type inboundPayload struct {
	Room          string `json:"room"`
	QuizID        int64  `json:"quizId"`
	QuestionIndex int    `json:"questionIndex"`
	Correct       *bool  `json:"correct"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the live
// session dispatcher. Read errors end the connection; event errors never do,
// since delivery on this channel is best-effort by contract.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	member, err := h.resolver.Resolve(r)
	if err != nil {
		http.Error(w, "unresolved member", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID, events := h.live.Connect(member)
	defer h.live.Disconnect(connID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload inboundPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				log.Printf("ws: dropping malformed %q payload from %s", inbound.Type, connID)
				continue
			}
		}
		h.live.Dispatch(r.Context(), connID, app.Message{
			Type:          inbound.Type,
			Room:          payload.Room,
			QuizID:        payload.QuizID,
			QuestionIndex: payload.QuestionIndex,
			Correct:       payload.Correct,
		})
	}

	h.live.Disconnect(connID)
	<-writerDone
}
