package storage

import (
	"context"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestInsertAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	userID := "user-1"
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(&userID, "2026-03-11", "14:00", 60, "Ana Silva", "ana@example.com", "", "pending", int64(9000), "cs_123").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("appt-1"))

	id, err := store.InsertAppointment(context.Background(), AppointmentRecord{
		UserID:            &userID,
		Date:              "2026-03-11",
		StartTime:         "14:00",
		DurationMinutes:   60,
		ContactName:       "Ana Silva",
		ContactEmail:      "ana@example.com",
		Status:            "pending",
		PriceCents:        9000,
		CheckoutSessionID: "cs_123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "appt-1" {
		t.Fatalf("id = %q, want appt-1", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertAppointmentRLSRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	userID := "user-1"
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(&userID, "2026-03-11", "14:00", 60, "", "", "", "pending", int64(9000), "").
		WillReturnError(&pgconn.PgError{Code: "42501"})
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(nil, "2026-03-11", "14:00", 60, "", "", "", "pending", int64(9000), "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("appt-2"))

	id, err := store.InsertAppointment(context.Background(), AppointmentRecord{
		UserID:          &userID,
		Date:            "2026-03-11",
		StartTime:       "14:00",
		DurationMinutes: 60,
		Status:          "pending",
		PriceCents:      9000,
	})
	if err != nil {
		t.Fatalf("expected anonymous retry to succeed, got %v", err)
	}
	if id != "appt-2" {
		t.Fatalf("id = %q, want appt-2", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertAppointmentAnonymousNoRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	// Without a user id there is nothing to strip, so the error surfaces.
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs((*string)(nil), "2026-03-11", "14:00", 60, "", "", "", "pending", int64(9000), "").
		WillReturnError(&pgconn.PgError{Code: "42501"})

	_, err = store.InsertAppointment(context.Background(), AppointmentRecord{
		Date:            "2026-03-11",
		StartTime:       "14:00",
		DurationMinutes: 60,
		Status:          "pending",
		PriceCents:      9000,
	})
	if err == nil {
		t.Fatal("expected error for anonymous insert rejection")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertSubscription(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs((*string)(nil), "premium", "Ana", "ana@example.com", "", "pending", int64(23000), "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("sub-1"))

	id, err := store.InsertSubscription(context.Background(), SubscriptionRecord{
		Plan:       "premium",
		Name:       "Ana",
		Email:      "ana@example.com",
		Status:     "pending",
		PriceCents: 23000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sub-1" {
		t.Fatalf("id = %q, want sub-1", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertPitchRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	mock.ExpectQuery("INSERT INTO pitch_requests").
		WithArgs((*string)(nil), "GalowClub", "Bruno", "bruno@example.com", "", "investor", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("deck-1"))

	id, err := store.InsertPitchRequest(context.Background(), PitchRequestRecord{
		Project: "GalowClub",
		Name:    "Bruno",
		Email:   "bruno@example.com",
		Role:    "investor",
		Status:  "pending",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "deck-1" {
		t.Fatalf("id = %q, want deck-1", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"full_name", "email", "phone"}).
			AddRow("Ana Silva", "ana@example.com", "+351912345678"))

	profile, err := store.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil || profile.FullName != "Ana Silva" {
		t.Fatalf("profile = %+v, want Ana Silva", profile)
	}

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	profile, err = store.GetProfile(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error for missing profile: %v", err)
	}
	if profile != nil {
		t.Fatalf("profile = %+v, want nil for missing row", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertChatMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithQuerier(mock, nil)

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("conv-1", "user", "hello").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.InsertChatMessage(context.Background(), "conv-1", "user", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
