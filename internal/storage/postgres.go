package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jihzza/danielcluckins/pkg/logging"
)

// pgxErrRLSViolation is the Postgres error code for a row-level security
// policy rejection. Inserts hitting it are retried without the user id so an
// anonymous visitor's booking still lands.
const pgxErrRLSViolation = "42501"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is the Postgres persistence layer for bookings, profiles and the
// durable chat log.
type Store struct {
	pool   querier
	logger *logging.Logger
}

// NewStore wraps a pgx pool.
func NewStore(pool *pgxpool.Pool, logger *logging.Logger) *Store {
	if pool == nil {
		panic("storage: pgx pool required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{pool: pool, logger: logger}
}

func newStoreWithQuerier(q querier, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{pool: q, logger: logger}
}

// Connect opens a pgx pool against databaseURL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return pool, nil
}

// AppointmentRecord is a consultation booking row.
type AppointmentRecord struct {
	UserID            *string
	Date              string
	StartTime         string
	DurationMinutes   int
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	Status            string
	PriceCents        int64
	CheckoutSessionID string
}

// SubscriptionRecord is a coaching plan signup row.
type SubscriptionRecord struct {
	UserID            *string
	Plan              string
	Name              string
	Email             string
	Phone             string
	Status            string
	PriceCents        int64
	CheckoutSessionID string
}

// PitchRequestRecord is an investor pitch deck request row.
type PitchRequestRecord struct {
	UserID  *string
	Project string
	Name    string
	Email   string
	Phone   string
	Role    string
	Status  string
}

// Profile is the account data used to fill contact fields the visitor did
// not repeat in chat.
type Profile struct {
	FullName string
	Email    string
	Phone    string
}

// InsertAppointment writes a consultation row and returns its id. A 42501
// rejection is retried once with a null user id.
func (s *Store) InsertAppointment(ctx context.Context, rec AppointmentRecord) (string, error) {
	const query = `
		INSERT INTO appointments
			(user_id, appointment_date, start_time, duration_minutes,
			 contact_name, contact_email, contact_phone, status, price_cents, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query,
		rec.UserID, rec.Date, rec.StartTime, rec.DurationMinutes,
		rec.ContactName, rec.ContactEmail, rec.ContactPhone, rec.Status,
		rec.PriceCents, rec.CheckoutSessionID).Scan(&id)
	if isRLSViolation(err) && rec.UserID != nil {
		s.logger.Warn("appointment insert blocked by row policy, retrying anonymously", "user_id", *rec.UserID)
		err = s.pool.QueryRow(ctx, query,
			nil, rec.Date, rec.StartTime, rec.DurationMinutes,
			rec.ContactName, rec.ContactEmail, rec.ContactPhone, rec.Status,
			rec.PriceCents, rec.CheckoutSessionID).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("storage: insert appointment: %w", err)
	}
	return id, nil
}

// InsertSubscription writes a coaching plan row and returns its id.
func (s *Store) InsertSubscription(ctx context.Context, rec SubscriptionRecord) (string, error) {
	const query = `
		INSERT INTO subscriptions
			(user_id, plan, contact_name, contact_email, contact_phone, status, price_cents, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query,
		rec.UserID, rec.Plan, rec.Name, rec.Email, rec.Phone,
		rec.Status, rec.PriceCents, rec.CheckoutSessionID).Scan(&id)
	if isRLSViolation(err) && rec.UserID != nil {
		s.logger.Warn("subscription insert blocked by row policy, retrying anonymously", "user_id", *rec.UserID)
		err = s.pool.QueryRow(ctx, query,
			nil, rec.Plan, rec.Name, rec.Email, rec.Phone,
			rec.Status, rec.PriceCents, rec.CheckoutSessionID).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("storage: insert subscription: %w", err)
	}
	return id, nil
}

// InsertPitchRequest writes a pitch deck request row and returns its id.
func (s *Store) InsertPitchRequest(ctx context.Context, rec PitchRequestRecord) (string, error) {
	const query = `
		INSERT INTO pitch_requests
			(user_id, project, contact_name, contact_email, contact_phone, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id string
	err := s.pool.QueryRow(ctx, query,
		rec.UserID, rec.Project, rec.Name, rec.Email, rec.Phone, rec.Role, rec.Status).Scan(&id)
	if isRLSViolation(err) && rec.UserID != nil {
		s.logger.Warn("pitch request insert blocked by row policy, retrying anonymously", "user_id", *rec.UserID)
		err = s.pool.QueryRow(ctx, query,
			nil, rec.Project, rec.Name, rec.Email, rec.Phone, rec.Role, rec.Status).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("storage: insert pitch request: %w", err)
	}
	return id, nil
}

// GetProfile looks up the stored contact details for a signed-in user.
// Returns nil without error when no profile exists.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(full_name, ''), COALESCE(email, ''), COALESCE(phone, '')
		 FROM profiles WHERE id = $1`, userID).Scan(&p.FullName, &p.Email, &p.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get profile: %w", err)
	}
	return &p, nil
}

// InsertChatMessage appends to the durable chat log. Redis remains the read
// path for history; this table exists for audit and recovery.
func (s *Store) InsertChatMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (conversation_id, role, content) VALUES ($1, $2, $3)`,
		conversationID, role, content)
	if err != nil {
		return fmt.Errorf("storage: insert chat message: %w", err)
	}
	return nil
}

func isRLSViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgxErrRLSViolation
}
