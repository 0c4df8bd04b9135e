package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleUser() *User {
	return &User{
		ID:           1001,
		TelegramName: "mario_r",
		Nome:         "Mario",
		Cognome:      "Rossi",
		Email:        "mario.rossi@example.com",
		Telefono:     "+39 333 1234567",
		Via:          "Via Roma 1",
		Citta:        "Milano",
	}
}

func TestSaveAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveUser(ctx, sampleUser()); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	user, err := db.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("Expected user, got nil")
	}
	if user.Nome != "Mario" || user.Cognome != "Rossi" {
		t.Errorf("Unexpected name: %s %s", user.Nome, user.Cognome)
	}
	if user.Citta != "Milano" {
		t.Errorf("Unexpected city: %s", user.Citta)
	}
	if user.TotalAppointments != 0 {
		t.Errorf("New user should have 0 appointments, got %d", user.TotalAppointments)
	}
	if user.RegisteredAt.IsZero() {
		t.Error("Registration timestamp should be set")
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	user, err := db.GetUser(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil for unknown user, got %+v", user)
	}
}

func TestIsRegistered(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	registered, err := db.IsRegistered(ctx, 1001)
	if err != nil {
		t.Fatalf("IsRegistered failed: %v", err)
	}
	if registered {
		t.Error("Unknown user reported as registered")
	}

	if err := db.SaveUser(ctx, sampleUser()); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	registered, err = db.IsRegistered(ctx, 1001)
	if err != nil {
		t.Fatalf("IsRegistered failed: %v", err)
	}
	if !registered {
		t.Error("Saved user not reported as registered")
	}
}

func TestSaveUserUpsertPreservesStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveUser(ctx, sampleUser()); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}
	if err := db.IncrementAppointmentStats(ctx, 1001, "25/12/2025 alle 14:00"); err != nil {
		t.Fatalf("IncrementAppointmentStats failed: %v", err)
	}

	// Re-register with a new address
	updated := sampleUser()
	updated.Via = "Corso Buenos Aires 10"
	if err := db.SaveUser(ctx, updated); err != nil {
		t.Fatalf("SaveUser upsert failed: %v", err)
	}

	user, err := db.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Via != "Corso Buenos Aires 10" {
		t.Errorf("Address not updated: %s", user.Via)
	}
	if user.TotalAppointments != 1 {
		t.Errorf("Upsert should preserve appointment count, got %d", user.TotalAppointments)
	}
	if user.LastAppointment != "25/12/2025 alle 14:00" {
		t.Errorf("Upsert should preserve last appointment, got %q", user.LastAppointment)
	}
}

func TestIncrementAppointmentStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveUser(ctx, sampleUser()); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := db.IncrementAppointmentStats(ctx, 1001, "10/01/2026 alle 09:00"); err != nil {
			t.Fatalf("IncrementAppointmentStats failed: %v", err)
		}
	}

	user, err := db.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.TotalAppointments != 3 {
		t.Errorf("Expected 3 appointments, got %d", user.TotalAppointments)
	}
	if user.LastAppointment != "10/01/2026 alle 09:00" {
		t.Errorf("Unexpected last appointment: %q", user.LastAppointment)
	}
}

func TestIncrementAppointmentStatsUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	err := db.IncrementAppointmentStats(context.Background(), 9999, "oggi")
	if err == nil {
		t.Error("Expected error for unknown user")
	}
}

func TestCountUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count, err := db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users, got %d", count)
	}

	u1 := sampleUser()
	u2 := sampleUser()
	u2.ID = 1002
	_ = db.SaveUser(ctx, u1)
	_ = db.SaveUser(ctx, u2)

	count, err = db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 users, got %d", count)
	}
}

func TestUserFormattingHelpers(t *testing.T) {
	user := sampleUser()
	user.RegisteredAt = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	user.TotalAppointments = 2
	user.LastAppointment = "20/08/2025 alle 15:00"

	if got := user.DisplayName(); got != "Mario Rossi" {
		t.Errorf("DisplayName = %q", got)
	}

	contact := user.ContactInfo()
	for _, want := range []string{"Mario Rossi", "mario.rossi@example.com", "Via Roma 1, Milano", "Appuntamenti totali: 2"} {
		if !strings.Contains(contact, want) {
			t.Errorf("ContactInfo missing %q:\n%s", want, contact)
		}
	}

	desc := user.CalendarDescription()
	for _, want := range []string{"INFORMAZIONI CLIENTE", "Cliente: Mario Rossi", "20/08/2025 alle 15:00", "Cliente dal: 2025-06-01"} {
		if !strings.Contains(desc, want) {
			t.Errorf("CalendarDescription missing %q", want)
		}
	}
}

func TestCalendarDescriptionFirstAppointment(t *testing.T) {
	user := sampleUser()
	user.RegisteredAt = time.Now()

	if !strings.Contains(user.CalendarDescription(), "Primo appuntamento") {
		t.Error("Expected 'Primo appuntamento' for user with no bookings")
	}
}
