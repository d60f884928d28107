package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Jihzza/danielcluckins/internal/booking"
	"github.com/Jihzza/danielcluckins/internal/intent"
	"github.com/Jihzza/danielcluckins/internal/observability/metrics"
	"github.com/Jihzza/danielcluckins/pkg/logging"
)

var serviceTracer = otel.Tracer("danielcluckins.internal.conversation.service")

// llmUnavailableMessage is the canned reply when both LLM providers fail.
const llmUnavailableMessage = "I'm having a little trouble answering right now. You can still book a consultation by telling me the date, time and duration you'd like."

// bookingExecutor runs a complete intent to a final outcome.
type bookingExecutor interface {
	Execute(ctx context.Context, sess booking.Session, it intent.Intent) booking.Result
}

// chatLogger is the optional durable chat log behind the Redis transcript.
type chatLogger interface {
	InsertChatMessage(ctx context.Context, conversationID, role, content string) error
}

// Reply is one assistant turn, optionally carrying a booking outcome.
type Reply struct {
	ConversationID string          `json:"conversationId"`
	Message        string          `json:"message"`
	Booking        *booking.Result `json:"booking,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Service runs the message pipeline: classify, extract, and either execute a
// booking directly or hand the turn to the LLM and act on any command block
// it emits.
type Service struct {
	executor     bookingExecutor
	llm          LLMClient
	transcript   *TranscriptStore
	chatLog      chatLogger
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger
	historyLimit int64
	now          func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService wires the pipeline. transcript and chatLog may be nil; booking
// execution and LLM replies still work without history.
func NewService(executor bookingExecutor, llm LLMClient, transcript *TranscriptStore, chatLog chatLogger, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if executor == nil {
		panic("conversation: booking executor required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		executor:     executor,
		llm:          llm,
		transcript:   transcript,
		chatLog:      chatLog,
		metrics:      m,
		logger:       logger,
		historyLimit: 50,
		now:          time.Now,
	}
}

// WithHistoryLimit caps how many transcript turns feed the LLM context.
func (s *Service) WithHistoryLimit(limit int) *Service {
	if limit > 0 {
		s.historyLimit = int64(limit)
	}
	return s
}

// HandleMessage processes one visitor message and returns the assistant turn.
func (s *Service) HandleMessage(ctx context.Context, sess booking.Session, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("conversation: message required")
	}
	if sess.ConversationID == "" {
		sess.ConversationID = "conv_" + uuid.NewString()
	}

	ctx, span := serviceTracer.Start(ctx, "conversation.message")
	defer span.End()
	span.SetAttributes(attribute.String("chat.conversation_id", sess.ConversationID))

	s.record(ctx, sess.ConversationID, ChatRoleUser, message)

	kind := intent.Classify(message)
	s.metrics.ObserveClassification(string(kind))
	span.SetAttributes(attribute.String("chat.intent_kind", string(kind)))

	reply := &Reply{ConversationID: sess.ConversationID, Timestamp: s.now().UTC()}

	switch {
	case kind != intent.KindNone:
		it := intent.ExtractSlots(message, kind, s.now())
		if it.Complete() {
			res := s.runBooking(ctx, sess, it)
			reply.Message = res.Message
			reply.Booking = &res
		} else {
			reply.Message = missingFieldsQuestion(kind, it.MissingFields())
		}
	default:
		text, res := s.answerWithLLM(ctx, sess, message)
		reply.Message = text
		reply.Booking = res
	}

	s.record(ctx, sess.ConversationID, ChatRoleAssistant, reply.Message)
	return reply, nil
}

// Welcome opens a conversation with a greeting, storing it only once. The
// greeting comes from the oracle when one is configured and falls back to the
// static message otherwise.
func (s *Service) Welcome(ctx context.Context, sess booking.Session) (*Reply, error) {
	if sess.ConversationID == "" {
		sess.ConversationID = "conv_" + uuid.NewString()
	}

	greeting := s.generateWelcome(ctx)

	greeted, err := s.transcript.HasAssistantMessage(ctx, sess.ConversationID)
	if err != nil {
		s.logger.Warn("welcome transcript check failed", "error", err)
	}
	if !greeted {
		s.record(ctx, sess.ConversationID, ChatRoleAssistant, greeting)
	}

	return &Reply{
		ConversationID: sess.ConversationID,
		Message:        greeting,
		Timestamp:      s.now().UTC(),
	}, nil
}

func (s *Service) generateWelcome(ctx context.Context) string {
	if s.llm == nil {
		return welcomeMessage
	}
	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:   []string{systemPrompt},
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: welcomePrompt}},
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			s.logger.Warn("welcome generation failed, using static greeting", "error", err)
		}
		return welcomeMessage
	}
	// A command block in a greeting would be a hallucinated booking.
	if _, text, ok := intent.ParseCommand(resp.Text); ok {
		if stripped := strings.TrimSpace(text); stripped != "" {
			return stripped
		}
		return welcomeMessage
	}
	return resp.Text
}

// History returns the retained transcript for a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]TranscriptMessage, error) {
	return s.transcript.List(ctx, conversationID, s.historyLimit)
}

// answerWithLLM hands the turn to the oracle and executes any command block
// in its reply. LLM failure degrades to a canned answer instead of an error.
func (s *Service) answerWithLLM(ctx context.Context, sess booking.Session, message string) (string, *booking.Result) {
	if s.llm == nil {
		return llmUnavailableMessage, nil
	}

	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:   []string{systemPrompt},
		Messages: s.contextMessages(ctx, sess.ConversationID, message),
	})
	if err != nil {
		s.logger.Error("llm completion failed", "error", err, "conversation_id", sess.ConversationID)
		return llmUnavailableMessage, nil
	}

	parsed, text, ok := intent.ParseCommand(resp.Text)
	if !ok {
		return resp.Text, nil
	}

	res := s.runBooking(ctx, sess, parsed)
	combined := strings.TrimSpace(text)
	if combined == "" {
		combined = res.Message
	} else if res.Message != "" {
		combined = combined + "\n\n" + res.Message
	}
	return combined, &res
}

// contextMessages builds the LLM context from recent transcript turns plus
// the current message.
func (s *Service) contextMessages(ctx context.Context, conversationID, message string) []ChatMessage {
	history, err := s.transcript.List(ctx, conversationID, s.historyLimit)
	if err != nil {
		s.logger.Warn("transcript load failed, answering without history", "error", err)
		history = nil
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		if turn.Body == "" {
			continue
		}
		messages = append(messages, ChatMessage{Role: turn.Role, Content: turn.Body})
	}
	// The current message was already appended to the transcript; avoid
	// sending it twice.
	if n := len(messages); n > 0 && messages[n-1].Role == ChatRoleUser && messages[n-1].Content == message {
		messages = messages[:n-1]
	}
	return append(messages, ChatMessage{Role: ChatRoleUser, Content: message})
}

// runBooking executes an intent under the per-conversation guard so a
// double-send cannot create two checkout sessions.
func (s *Service) runBooking(ctx context.Context, sess booking.Session, it intent.Intent) booking.Result {
	if !s.acquire(sess.ConversationID) {
		return booking.Result{
			Success: false,
			Status:  booking.StatusFailed,
			Message: "I'm still finishing your previous booking. Give me just a moment.",
		}
	}
	defer s.release(sess.ConversationID)
	return s.executor.Execute(ctx, sess, it)
}

func (s *Service) acquire(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, busy := s.inFlight[conversationID]; busy {
		return false
	}
	s.inFlight[conversationID] = struct{}{}
	return true
}

func (s *Service) release(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, conversationID)
}

// record appends a turn to the transcript and the durable log, best effort.
func (s *Service) record(ctx context.Context, conversationID, role, content string) {
	if err := s.transcript.Append(ctx, conversationID, TranscriptMessage{Role: role, Body: content}); err != nil {
		s.logger.Warn("transcript append failed", "error", err, "conversation_id", conversationID)
	}
	if s.chatLog != nil {
		if err := s.chatLog.InsertChatMessage(ctx, conversationID, role, content); err != nil {
			s.logger.Warn("chat log insert failed", "error", err, "conversation_id", conversationID)
		}
	}
}

func missingFieldsQuestion(kind intent.Kind, missing []string) string {
	switch kind {
	case intent.KindAppointment:
		names := make([]string, 0, len(missing))
		for _, field := range missing {
			switch field {
			case "date":
				names = append(names, "the date")
			case "time":
				names = append(names, "the start time")
			case "duration":
				names = append(names, "how long you'd like (45, 60, 75, 90, 105 or 120 minutes)")
			}
		}
		return fmt.Sprintf("Happy to book that consultation. Could you tell me %s?", joinNatural(names))
	case intent.KindSubscription:
		return "Which coaching plan would you like: basic, standard or premium?"
	case intent.KindPitchDeck:
		return "Which project's pitch deck would you like: GalowClub or Perspectiv?"
	default:
		return "Could you tell me a bit more about what you'd like to book?"
	}
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 0:
		return "a bit more detail"
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
