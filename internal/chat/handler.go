package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/Jihzza/danielcluckins/internal/booking"
	"github.com/Jihzza/danielcluckins/internal/conversation"
	"github.com/Jihzza/danielcluckins/pkg/logging"
)

// Service is the conversation pipeline surface the handler needs.
type Service interface {
	HandleMessage(ctx context.Context, sess booking.Session, message string) (*conversation.Reply, error)
	Welcome(ctx context.Context, sess booking.Session) (*conversation.Reply, error)
	History(ctx context.Context, conversationID string) ([]conversation.TranscriptMessage, error)
}

// Handler exposes the chat pipeline over HTTP and WebSocket.
type Handler struct {
	service Service
	logger  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // conversationID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the chat page sends over the socket.
type InboundMessage struct {
	Type           string `json:"type"` // "message", "ping"
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

// OutboundMessage is what we send back to the chat page.
type OutboundMessage struct {
	Type           string           `json:"type"` // "message", "history", "session", "typing", "pong", "error"
	Text           string           `json:"text,omitempty"`
	Role           string           `json:"role,omitempty"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Timestamp      string           `json:"timestamp,omitempty"`
	Booking        *booking.Result  `json:"booking,omitempty"`
	Messages       []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a chat handler.
func NewHandler(service Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("chat: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		logger:   logger,
		sessions: make(map[string]*wsConn),
	}
}

// generateConversationID creates a random conversation identifier.
func generateConversationID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "conv_" + uuid.NewString()
	}
	return "conv_" + hex.EncodeToString(b)
}

// HandleMessage is the HTTP entry point for one chat turn.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		UserID         string `json:"user_id"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = generateConversationID()
	}

	reply, err := h.service.HandleMessage(r.Context(), booking.Session{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
	}, req.Message)
	if err != nil {
		h.logger.Error("chat: message handling failed", "error", err, "conversation_id", req.ConversationID)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// HandleWelcome opens a conversation with the greeting.
func (h *Handler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		UserID         string `json:"user_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.ConversationID == "" {
		req.ConversationID = generateConversationID()
	}

	reply, err := h.service.Welcome(r.Context(), booking.Session{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
	})
	if err != nil {
		h.logger.Error("chat: welcome failed", "error", err, "conversation_id", req.ConversationID)
		http.Error(w, "failed to start conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// HandleHistory returns chat history for a conversation.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation")
	if conversationID == "" {
		http.Error(w, "conversation parameter required", http.StatusBadRequest)
		return
	}

	msgs, err := h.service.History(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("chat: failed to load history", "error", err, "conversation_id", conversationID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": toHistory(msgs)})
}

// HandleWebSocket upgrades to WebSocket and handles real-time chat.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation")
	if conversationID == "" {
		conversationID = generateConversationID()
	}
	userID := r.URL.Query().Get("user")

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:           "session",
		ConversationID: conversationID,
	})

	if msgs, err := h.service.History(r.Context(), conversationID); err == nil && len(msgs) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: toHistory(msgs)})
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[conversationID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[conversationID] == wsc {
			delete(h.sessions, conversationID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("chat: websocket opened", "conversation_id", conversationID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: websocket closed", "conversation_id", conversationID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		// Let the widget show a typing indicator while the turn runs.
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

		reply, err := h.service.HandleMessage(r.Context(), booking.Session{
			ConversationID: conversationID,
			UserID:         userID,
		}, msg.Text)
		if err != nil {
			h.logger.Error("chat: websocket message failed", "error", err, "conversation_id", conversationID)
			h.sendToSession(conversationID, OutboundMessage{
				Type: "error",
				Text: "Sorry, something went wrong. Please try again.",
			})
			continue
		}

		h.sendToSession(conversationID, OutboundMessage{
			Type:           "message",
			Role:           conversation.ChatRoleAssistant,
			Text:           reply.Message,
			ConversationID: reply.ConversationID,
			Timestamp:      reply.Timestamp.Format(time.RFC3339),
			Booking:        reply.Booking,
		})
	}
}

// sendToSession sends a message to an active WebSocket session.
func (h *Handler) sendToSession(conversationID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[conversationID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}

func toHistory(msgs []conversation.TranscriptMessage) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      m.Role,
			Text:      m.Body,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return history
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
