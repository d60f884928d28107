package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Jihzza/danielcluckins/internal/booking"
	"github.com/Jihzza/danielcluckins/internal/intent"
)

type stubExecutor struct {
	res        booking.Result
	calls      int
	lastIntent intent.Intent
	entered    chan struct{}
	proceed    chan struct{}
}

func (s *stubExecutor) Execute(ctx context.Context, sess booking.Session, it intent.Intent) booking.Result {
	s.calls++
	s.lastIntent = it
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.proceed != nil {
		<-s.proceed
	}
	return s.res
}

type stubLLM struct {
	text    string
	err     error
	calls   int
	lastReq LLMRequest
}

func (s *stubLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text}, nil
}

func newTestService(t *testing.T, exec *stubExecutor, llm LLMClient) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	transcript := NewTranscriptStore(client, time.Hour)
	return NewService(exec, llm, transcript, nil, nil, nil)
}

func TestHandleMessageDirectBooking(t *testing.T) {
	exec := &stubExecutor{res: booking.Result{
		Success: true,
		Status:  booking.StatusConfirmed,
		Message: "Your consultation is ready.",
	}}
	llm := &stubLLM{text: "should not be called"}
	svc := newTestService(t, exec, llm)

	reply, err := svc.HandleMessage(context.Background(), booking.Session{ConversationID: "conv-1"},
		"I want to book a consultation tomorrow at 2pm for 1 hour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", exec.calls)
	}
	if llm.calls != 0 {
		t.Error("complete intents must bypass the LLM")
	}
	if exec.lastIntent.Kind != intent.KindAppointment {
		t.Errorf("Kind = %v, want appointment", exec.lastIntent.Kind)
	}
	if exec.lastIntent.Appointment.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60", exec.lastIntent.Appointment.DurationMinutes)
	}
	if reply.Booking == nil || reply.Booking.Status != booking.StatusConfirmed {
		t.Fatalf("Booking = %+v, want confirmed", reply.Booking)
	}
	if reply.Message != "Your consultation is ready." {
		t.Errorf("Message = %q", reply.Message)
	}

	history, err := svc.History(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Role != ChatRoleUser || history[1].Role != ChatRoleAssistant {
		t.Fatalf("history = %+v, want user then assistant turn", history)
	}
}

func TestHandleMessageAsksForMissingFields(t *testing.T) {
	exec := &stubExecutor{}
	svc := newTestService(t, exec, &stubLLM{})

	reply, err := svc.HandleMessage(context.Background(), booking.Session{ConversationID: "conv-1"},
		"I want to book a consultation tomorrow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.calls != 0 {
		t.Error("incomplete intents must not execute")
	}
	if reply.Booking != nil {
		t.Error("no booking result expected")
	}
	if !strings.Contains(reply.Message, "start time") {
		t.Errorf("Message = %q, should ask for the start time", reply.Message)
	}
}

func TestHandleMessageInformationalGoesToLLM(t *testing.T) {
	exec := &stubExecutor{}
	llm := &stubLLM{text: "The premium plan includes weekly calls."}
	svc := newTestService(t, exec, llm)

	reply, err := svc.HandleMessage(context.Background(), booking.Session{ConversationID: "conv-1"},
		"What does the premium plan include?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if llm.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", llm.calls)
	}
	if exec.calls != 0 {
		t.Error("informational turn must not execute a booking")
	}
	if reply.Message != "The premium plan includes weekly calls." {
		t.Errorf("Message = %q", reply.Message)
	}
	if len(llm.lastReq.System) == 0 || !strings.Contains(llm.lastReq.System[0], "BOOK_APPOINTMENT") {
		t.Error("system prompt with the command protocol must be sent")
	}
}

func TestHandleMessageExecutesLLMCommand(t *testing.T) {
	exec := &stubExecutor{res: booking.Result{
		Success: true,
		Status:  booking.StatusConfirmed,
		Message: "Signup link ready.",
	}}
	llm := &stubLLM{text: "Great, setting that up now.\n**BOOK_SUBSCRIPTION**\nPlan: premium\nName: Not provided\nEmail: Not provided\nPhone: Not provided"}
	svc := newTestService(t, exec, llm)

	reply, err := svc.HandleMessage(context.Background(), booking.Session{ConversationID: "conv-1"},
		"yes, go ahead with it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", exec.calls)
	}
	if exec.lastIntent.Kind != intent.KindSubscription || exec.lastIntent.Subscription.Plan != "premium" {
		t.Errorf("intent = %+v", exec.lastIntent)
	}
	if reply.Booking == nil || reply.Booking.Status != booking.StatusConfirmed {
		t.Fatalf("Booking = %+v", reply.Booking)
	}
	if !strings.Contains(reply.Message, "Great, setting that up now.") || !strings.Contains(reply.Message, "Signup link ready.") {
		t.Errorf("Message = %q, want prose plus outcome", reply.Message)
	}
	if strings.Contains(reply.Message, "BOOK_SUBSCRIPTION") {
		t.Errorf("command block leaked to the visitor: %q", reply.Message)
	}
}

func TestHandleMessageLLMFailureDegrades(t *testing.T) {
	svc := newTestService(t, &stubExecutor{}, &stubLLM{err: errors.New("both providers down")})

	reply, err := svc.HandleMessage(context.Background(), booking.Session{ConversationID: "conv-1"}, "hello there")
	if err != nil {
		t.Fatalf("llm failure must not error the turn: %v", err)
	}
	if reply.Message != llmUnavailableMessage {
		t.Errorf("Message = %q, want canned fallback", reply.Message)
	}
}

func TestHandleMessageAssignsConversationID(t *testing.T) {
	svc := newTestService(t, &stubExecutor{}, &stubLLM{text: "hi"})

	reply, err := svc.HandleMessage(context.Background(), booking.Session{}, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(reply.ConversationID, "conv_") {
		t.Errorf("ConversationID = %q, want generated id", reply.ConversationID)
	}
}

func TestHandleMessageEmptyMessage(t *testing.T) {
	svc := newTestService(t, &stubExecutor{}, &stubLLM{})
	if _, err := svc.HandleMessage(context.Background(), booking.Session{}, "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestWelcomeStoresGreetingOnce(t *testing.T) {
	svc := newTestService(t, &stubExecutor{}, &stubLLM{})
	ctx := context.Background()

	reply, err := svc.Welcome(ctx, booking.Session{ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if reply.Message != welcomeMessage {
		t.Errorf("Message = %q", reply.Message)
	}

	if _, err := svc.Welcome(ctx, booking.Session{ConversationID: "conv-1"}); err != nil {
		t.Fatalf("second welcome: %v", err)
	}

	history, err := svc.History(ctx, "conv-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want the greeting stored once", len(history))
	}
}

func TestWelcomeUsesGeneratedGreeting(t *testing.T) {
	llm := &stubLLM{text: "Hey there! Want to book a consultation or hear about coaching?"}
	svc := newTestService(t, &stubExecutor{}, llm)

	reply, err := svc.Welcome(context.Background(), booking.Session{ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if reply.Message != llm.text {
		t.Errorf("Message = %q, want the generated greeting", reply.Message)
	}
}

func TestWelcomeFallsBackWhenLLMFails(t *testing.T) {
	svc := newTestService(t, &stubExecutor{}, &stubLLM{err: errors.New("provider down")})

	reply, err := svc.Welcome(context.Background(), booking.Session{ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if reply.Message != welcomeMessage {
		t.Errorf("Message = %q, want static fallback", reply.Message)
	}
}

func TestBookingGuardBlocksConcurrentExecution(t *testing.T) {
	exec := &stubExecutor{
		res:     booking.Result{Success: true, Status: booking.StatusConfirmed, Message: "done"},
		entered: make(chan struct{}, 1),
		proceed: make(chan struct{}),
	}
	svc := newTestService(t, exec, &stubLLM{})
	sess := booking.Session{ConversationID: "conv-1"}
	msg := "book a consultation tomorrow at 2pm for 1 hour"

	done := make(chan *Reply, 1)
	go func() {
		reply, _ := svc.HandleMessage(context.Background(), sess, msg)
		done <- reply
	}()

	<-exec.entered

	second, err := svc.HandleMessage(context.Background(), sess, msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Booking == nil || second.Booking.Success {
		t.Fatalf("second booking = %+v, want guarded refusal", second.Booking)
	}
	if exec.calls != 1 {
		t.Fatalf("executor calls = %d, guard must prevent the second run", exec.calls)
	}

	close(exec.proceed)
	first := <-done
	if first.Booking == nil || !first.Booking.Success {
		t.Fatalf("first booking = %+v, want confirmed", first.Booking)
	}
}
