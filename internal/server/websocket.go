package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/rechenwerk/internal/agent"
	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

const (
	readTimeout  = 120 * time.Second
	pingInterval = 50 * time.Second
	writeTimeout = 10 * time.Second
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`    // "ping", "call", "ask", "state"
	Payload json.RawMessage `json:"payload"` // Message-specific payload
}

// WSAskPayload carries a natural-language question
type WSAskPayload struct {
	Text string `json:"text"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"`    // "pong", "result", "state", "error", "hello"
	Payload interface{} `json:"payload"` // Response-specific payload
}

// WSHelloPayload is sent once after the upgrade
type WSHelloPayload struct {
	SessionID string `json:"session_id"`
	Total     string `json:"total"`
	AskReady  bool   `json:"ask_ready"`
}

// WebSocketHandler gives every connection its own calculator session
type WebSocketHandler struct {
	deps     Deps
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(deps Deps, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logging.New("server-websocket"),
	}
}

// originChecker allows every origin for "*", the listed origins otherwise,
// and falls back to gorilla's same-origin check for an empty list
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := h.deps.NewSession()
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	var ag *agent.Agent
	if h.deps.NewAgent != nil {
		if ag, err = h.deps.NewAgent(session); err != nil {
			h.logger.Warn("Agent unavailable for session", "session", session.ID(), "error", err)
			ag = nil
		}
	}

	h.handleConnection(r.Context(), conn, session, ag)
}

// handleConnection handles a single WebSocket connection. Messages are
// processed in arrival order.
func (h *WebSocketHandler) handleConnection(parent context.Context, conn *websocket.Conn, session *dispatch.Session, ag *agent.Agent) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()

	h.logger.Info("WebSocket connection established",
		"remote", conn.RemoteAddr().String(),
		"session", session.ID(),
	)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	go h.keepAlive(ctx, conn)

	h.sendResponse(conn, WSResponse{Type: "hello", Payload: WSHelloPayload{
		SessionID: session.ID(),
		Total:     session.Format(session.Total()),
		AskReady:  ag != nil,
	}})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed", "session", session.ID())
			}
			return
		}

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong", Payload: nil})

		case "state":
			h.sendResponse(conn, WSResponse{Type: "state", Payload: buildResultPayload(session, nil, nil)})

		case "call":
			if len(msg.Payload) == 0 {
				h.sendError(conn, "INVALID_INPUT", "Call payload required")
				continue
			}
			results, err := session.Dispatch(ctx, string(msg.Payload))
			if results == nil && err != nil {
				h.sendErrorFrom(conn, err)
				continue
			}
			h.sendResponse(conn, WSResponse{Type: "result", Payload: buildResultPayload(session, results, err)})

		case "ask":
			if ag == nil {
				h.sendError(conn, "SERVICE_UNAVAILABLE", "No model configured")
				continue
			}
			var payload WSAskPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, "INVALID_INPUT", "Invalid ask payload")
				continue
			}
			turn, err := ag.Ask(ctx, payload.Text)
			out := buildResultPayload(session, turn.Results, err)
			out.Input = turn.Input
			out.Raw = turn.Raw
			h.sendResponse(conn, WSResponse{Type: "result", Payload: out})

		default:
			h.sendError(conn, "UNKNOWN_TYPE", "Unknown message type: "+msg.Type)
		}
	}
}

// keepAlive pings the peer until ctx is done
func (h *WebSocketHandler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, resp WSResponse) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

// sendError sends an error response via WebSocket
func (h *WebSocketHandler) sendError(conn *websocket.Conn, code, message string) {
	h.sendResponse(conn, WSResponse{
		Type: "error",
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

func (h *WebSocketHandler) sendErrorFrom(conn *websocket.Conn, err error) {
	p := newErrorPayload(err)
	h.sendError(conn, p.Code, p.Message)
}
