package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jihzza/danielcluckins/internal/intent"
	"github.com/Jihzza/danielcluckins/internal/observability/metrics"
	"github.com/Jihzza/danielcluckins/internal/payments"
	"github.com/Jihzza/danielcluckins/internal/storage"
	"github.com/Jihzza/danielcluckins/pkg/logging"
)

var executorTracer = otel.Tracer("danielcluckins.internal.booking.executor")

// CheckoutService creates hosted payment links.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.CheckoutResponse, error)
}

// Repository is the persistence surface the executor needs.
type Repository interface {
	InsertAppointment(ctx context.Context, rec storage.AppointmentRecord) (string, error)
	InsertSubscription(ctx context.Context, rec storage.SubscriptionRecord) (string, error)
	InsertPitchRequest(ctx context.Context, rec storage.PitchRequestRecord) (string, error)
	GetProfile(ctx context.Context, userID string) (*storage.Profile, error)
}

// DeckNotifier emails the team when an investor asks for a pitch deck.
type DeckNotifier interface {
	NotifyPitchDeckRequest(ctx context.Context, project, name, email, phone, role string) error
}

// Session identifies who is booking. UserID is empty for anonymous visitors.
type Session struct {
	ConversationID string
	UserID         string
}

// Executor turns a complete intent into a booking outcome. It degrades
// through checkout, then a pending database record, then a bare
// acknowledgement, and never returns an error to the conversation.
type Executor struct {
	checkout CheckoutService
	store    Repository
	notifier DeckNotifier
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

func NewExecutor(checkout CheckoutService, store Repository, notifier DeckNotifier, m *metrics.ChatMetrics, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{checkout: checkout, store: store, notifier: notifier, metrics: m, logger: logger}
}

// Execute runs the booking for a complete intent. Incomplete or invalid
// intents produce a failed result with a corrective message; they never reach
// Stripe or the database.
func (e *Executor) Execute(ctx context.Context, sess Session, it intent.Intent) Result {
	ctx, span := executorTracer.Start(ctx, "booking.execute",
		trace.WithAttributes(attribute.String("booking.kind", string(it.Kind))))
	defer span.End()

	var res Result
	switch it.Kind {
	case intent.KindAppointment:
		res = e.executeAppointment(ctx, sess, it.Appointment)
	case intent.KindSubscription:
		res = e.executeSubscription(ctx, sess, it.Subscription)
	case intent.KindPitchDeck:
		res = e.executePitchDeck(ctx, sess, it.PitchDeck)
	default:
		res = Result{Success: false, Status: StatusFailed, Message: "I couldn't work out what you'd like to book. Could you rephrase?"}
	}

	e.metrics.ObserveBooking(string(it.Kind), string(res.Status))
	span.SetAttributes(attribute.String("booking.status", string(res.Status)))
	return res
}

func (e *Executor) executeAppointment(ctx context.Context, sess Session, appt *intent.Appointment) Result {
	if appt == nil || appt.Date == "" || appt.StartTime == "" || appt.DurationMinutes == 0 {
		return Result{Success: false, Status: StatusFailed,
			Message: "I still need the date, time and duration before I can book your consultation."}
	}
	if !intent.ValidDuration(appt.DurationMinutes) {
		return Result{Success: false, Status: StatusFailed,
			Message: fmt.Sprintf("Consultations can be %s minutes long. Which would you like?", joinInts(intent.AllowedDurations))}
	}

	contact := e.resolveContact(ctx, sess, appt.ContactName, appt.ContactEmail, appt.ContactPhone)
	price := ConsultationPriceCents(appt.DurationMinutes)
	description := fmt.Sprintf("Consultation (%d minutes)", appt.DurationMinutes)

	checkoutResp, checkoutErr := e.createCheckout(ctx, payments.CheckoutParams{
		Mode:          payments.ModePayment,
		Description:   description,
		AmountCents:   price,
		CustomerEmail: contact.Email,
		Metadata: map[string]string{
			"kind":             string(intent.KindAppointment),
			"conversation_id":  sess.ConversationID,
			"user_id":          sess.UserID,
			"name":             contact.FullName,
			"email":            contact.Email,
			"phone":            contact.Phone,
			"date":             appt.Date,
			"time":             appt.StartTime,
			"duration_minutes": fmt.Sprintf("%d", appt.DurationMinutes),
		},
	})

	rec := storage.AppointmentRecord{
		UserID:          userIDPtr(sess),
		Date:            appt.Date,
		StartTime:       appt.StartTime,
		DurationMinutes: appt.DurationMinutes,
		ContactName:     contact.FullName,
		ContactEmail:    contact.Email,
		ContactPhone:    contact.Phone,
		PriceCents:      price,
	}

	if checkoutErr == nil {
		rec.Status = string(StatusConfirmed)
		rec.CheckoutSessionID = checkoutResp.ProviderID
		recordID, insertErr := e.store.InsertAppointment(ctx, rec)
		if insertErr != nil {
			// The payment link is live, so the booking still counts.
			e.logger.Warn("appointment record insert failed after checkout", "error", insertErr)
		}
		return Result{
			Success:     true,
			Status:      StatusConfirmed,
			CheckoutURL: checkoutResp.URL,
			RecordID:    recordID,
			Message: fmt.Sprintf("Your consultation on %s at %s (%d minutes) is ready. Total: %s EUR. Complete your payment here: %s",
				appt.Date, appt.StartTime, appt.DurationMinutes, FormatPrice(price), checkoutResp.URL),
		}
	}

	e.logger.Warn("checkout failed, recording appointment as pending", "error", checkoutErr)
	rec.Status = string(StatusPending)
	recordID, insertErr := e.store.InsertAppointment(ctx, rec)
	if insertErr == nil {
		return Result{
			Success:  true,
			Status:   StatusPending,
			RecordID: recordID,
			Degraded: true,
			Message: fmt.Sprintf("Your consultation request for %s at %s has been recorded. We'll be in touch shortly to confirm payment.",
				appt.Date, appt.StartTime),
		}
	}

	e.logger.Error("appointment fallback insert failed", "error", insertErr)
	return Result{
		Success:  true,
		Status:   StatusFailed,
		Degraded: true,
		Message:  "Your consultation request has been received. We'll get back to you as soon as possible.",
	}
}

func (e *Executor) executeSubscription(ctx context.Context, sess Session, sub *intent.Subscription) Result {
	if sub == nil || sub.Plan == "" {
		return Result{Success: false, Status: StatusFailed,
			Message: "Which coaching plan would you like: basic, standard or premium?"}
	}
	if !intent.ValidPlan(sub.Plan) {
		return Result{Success: false, Status: StatusFailed,
			Message: fmt.Sprintf("I don't recognise the %q plan. The options are basic, standard and premium.", sub.Plan)}
	}

	contact := e.resolveContact(ctx, sess, sub.Name, sub.Email, sub.Phone)
	price := PlanPriceCents(sub.Plan)
	description := fmt.Sprintf("%s Coaching Plan", titleCase(sub.Plan))

	checkoutResp, checkoutErr := e.createCheckout(ctx, payments.CheckoutParams{
		Mode:          payments.ModeSubscription,
		Description:   description,
		AmountCents:   price,
		CustomerEmail: contact.Email,
		Metadata: map[string]string{
			"kind":            string(intent.KindSubscription),
			"conversation_id": sess.ConversationID,
			"user_id":         sess.UserID,
			"name":            contact.FullName,
			"email":           contact.Email,
			"phone":           contact.Phone,
			"plan":            sub.Plan,
		},
	})

	rec := storage.SubscriptionRecord{
		UserID:     userIDPtr(sess),
		Plan:       sub.Plan,
		Name:       contact.FullName,
		Email:      contact.Email,
		Phone:      contact.Phone,
		PriceCents: price,
	}

	if checkoutErr == nil {
		rec.Status = string(StatusConfirmed)
		rec.CheckoutSessionID = checkoutResp.ProviderID
		recordID, insertErr := e.store.InsertSubscription(ctx, rec)
		if insertErr != nil {
			e.logger.Warn("subscription record insert failed after checkout", "error", insertErr)
		}
		return Result{
			Success:     true,
			Status:      StatusConfirmed,
			CheckoutURL: checkoutResp.URL,
			RecordID:    recordID,
			Message: fmt.Sprintf("The %s is %s EUR per month. Complete your signup here: %s",
				description, FormatPrice(price), checkoutResp.URL),
		}
	}

	e.logger.Warn("checkout failed, recording subscription as pending", "error", checkoutErr)
	rec.Status = string(StatusPending)
	recordID, insertErr := e.store.InsertSubscription(ctx, rec)
	if insertErr == nil {
		return Result{
			Success:  true,
			Status:   StatusPending,
			RecordID: recordID,
			Degraded: true,
			Message: fmt.Sprintf("Your %s signup has been recorded. We'll contact you shortly to complete it.",
				description),
		}
	}

	e.logger.Error("subscription fallback insert failed", "error", insertErr)
	return Result{
		Success:  true,
		Status:   StatusFailed,
		Degraded: true,
		Message:  "Your coaching signup request has been received. We'll get back to you as soon as possible.",
	}
}

func (e *Executor) executePitchDeck(ctx context.Context, sess Session, deck *intent.PitchDeck) Result {
	if deck == nil || deck.Project == "" {
		return Result{Success: false, Status: StatusFailed,
			Message: "Which project's pitch deck would you like: GalowClub or Perspectiv?"}
	}
	if !intent.ValidProject(deck.Project) {
		return Result{Success: false, Status: StatusFailed,
			Message: fmt.Sprintf("I don't have a pitch deck for %q. I can send you GalowClub or Perspectiv.", deck.Project)}
	}

	contact := e.resolveContact(ctx, sess, deck.Name, deck.Email, deck.Phone)

	rec := storage.PitchRequestRecord{
		UserID:  userIDPtr(sess),
		Project: deck.Project,
		Name:    contact.FullName,
		Email:   contact.Email,
		Phone:   contact.Phone,
		Role:    deck.Role,
		Status:  string(StatusConfirmed),
	}

	recordID, insertErr := e.store.InsertPitchRequest(ctx, rec)
	if insertErr != nil {
		e.logger.Error("pitch request insert failed", "error", insertErr)
		return Result{
			Success:  true,
			Status:   StatusFailed,
			Degraded: true,
			Message:  fmt.Sprintf("Your %s pitch deck request has been received. We'll get back to you as soon as possible.", deck.Project),
		}
	}

	if e.notifier != nil {
		if err := e.notifier.NotifyPitchDeckRequest(ctx, deck.Project, contact.FullName, contact.Email, contact.Phone, deck.Role); err != nil {
			e.logger.Warn("pitch deck notification failed", "error", err, "project", deck.Project)
		}
	}

	return Result{
		Success:  true,
		Status:   StatusConfirmed,
		RecordID: recordID,
		Message:  fmt.Sprintf("Your %s pitch deck request is in. We'll send it to you shortly.", deck.Project),
	}
}

// resolveContact applies profile precedence: stored account details win over
// whatever was typed in chat, and chat values fill any gaps.
func (e *Executor) resolveContact(ctx context.Context, sess Session, name, email, phone string) storage.Profile {
	resolved := storage.Profile{FullName: name, Email: email, Phone: phone}
	if sess.UserID == "" {
		return resolved
	}
	profile, err := e.store.GetProfile(ctx, sess.UserID)
	if err != nil {
		e.logger.Warn("profile lookup failed", "error", err, "user_id", sess.UserID)
		return resolved
	}
	if profile == nil {
		return resolved
	}
	if profile.FullName != "" {
		resolved.FullName = profile.FullName
	}
	if profile.Email != "" {
		resolved.Email = profile.Email
	}
	if profile.Phone != "" {
		resolved.Phone = profile.Phone
	}
	return resolved
}

func (e *Executor) createCheckout(ctx context.Context, params payments.CheckoutParams) (*payments.CheckoutResponse, error) {
	if e.checkout == nil {
		return nil, fmt.Errorf("booking: no checkout service configured")
	}
	start := time.Now()
	resp, err := e.checkout.CreateCheckoutSession(ctx, params)
	e.metrics.ObserveCheckoutLatency(params.Mode, time.Since(start).Seconds())
	return resp, err
}

func userIDPtr(sess Session) *string {
	if sess.UserID == "" {
		return nil
	}
	id := sess.UserID
	return &id
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
