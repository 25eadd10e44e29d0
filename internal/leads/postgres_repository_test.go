package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var contactColumns = []string{
	"id", "created_at", "contact_type", "first_name", "last_name", "company_name",
	"email", "phone_number", "city", "zip_code", "az_county", "comments",
	"estimated_budget_id", "project_timeline_id",
}

func sampleRequest() *CreateLeadRequest {
	company := "Doe Automation"
	return &CreateLeadRequest{
		ContactType:       "Business",
		FirstName:         "Jane",
		LastName:          "Doe",
		CompanyName:       &company,
		Email:             "jane@example.com",
		PhoneNumber:       "4805551234",
		City:              "Mesa",
		ZipCode:           "85201",
		AZCounty:          "Maricopa",
		Comments:          "Need whole-home audio and lighting automation please.",
		EstimatedBudgetID: 2,
		ProjectTimelineID: 1,
	}
}

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	req := sampleRequest()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO contacts").
		WithArgs("Business", "Jane", "Doe", pgxmock.AnyArg(), "jane@example.com", "4805551234",
			"Mesa", "85201", "Maricopa", req.Comments, int64(2), int64(1)).
		WillReturnRows(pgxmock.NewRows(contactColumns).AddRow(
			int64(42), now, "Business", "Jane", "Doe", "Doe Automation",
			"jane@example.com", "4805551234", "Mesa", "85201", "Maricopa", req.Comments,
			int64(2), int64(1),
		))

	lead, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID != 42 || !lead.CreatedAt.Equal(now) {
		t.Fatalf("unexpected id/timestamp: %d %v", lead.ID, lead.CreatedAt)
	}
	if lead.CompanyName == nil || *lead.CompanyName != "Doe Automation" {
		t.Fatalf("unexpected company: %v", lead.CompanyName)
	}
	if lead.EstimatedBudgetID != 2 || lead.ProjectTimelineID != 1 {
		t.Fatalf("unexpected reference ids: %d %d", lead.EstimatedBudgetID, lead.ProjectTimelineID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryCreateWithoutCompany(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	req := sampleRequest()
	req.ContactType = "Personal"
	req.CompanyName = nil

	mock.ExpectQuery("INSERT INTO contacts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(contactColumns).AddRow(
			int64(7), time.Now(), "Personal", "Jane", "Doe", "",
			"jane@example.com", "4805551234", "Mesa", "85201", "Maricopa", req.Comments,
			int64(2), int64(1),
		))

	lead, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.CompanyName != nil {
		t.Fatalf("expected nil company name, got %q", *lead.CompanyName)
	}
}

func TestPostgresRepositoryCreateConstraintViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	mock.ExpectQuery("INSERT INTO contacts").WillReturnError(&pgconn.PgError{
		Code:           "23503",
		ConstraintName: "contacts_estimated_budget_id_fkey",
		Message:        "insert or update on table \"contacts\" violates foreign key constraint",
	})

	_, err = repo.Create(context.Background(), sampleRequest())
	var constraintErr *StorageConstraintError
	if !errors.As(err, &constraintErr) {
		t.Fatalf("expected StorageConstraintError, got %T %v", err, err)
	}
	if constraintErr.Constraint != "contacts_estimated_budget_id_fkey" || constraintErr.Code != "23503" {
		t.Fatalf("unexpected constraint detail: %+v", constraintErr)
	}
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected constraint error to match ErrStorage")
	}
}

func TestPostgresRepositoryCreateConnectionFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	boom := errors.New("connection refused")
	mock.ExpectQuery("INSERT INTO contacts").WillReturnError(boom)

	_, err = repo.Create(context.Background(), sampleRequest())
	if !errors.Is(err, ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	var constraintErr *StorageConstraintError
	if errors.As(err, &constraintErr) {
		t.Fatalf("connection failure must not look like a constraint violation")
	}
}

func TestPostgresRepositoryGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM contacts WHERE id").WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(contactColumns).AddRow(
			int64(42), now, "Personal", "Jane", "Doe", "",
			"jane@example.com", "4805551234", "Mesa", "85201", "Maricopa", "Looking for a smart thermostat.",
			int64(1), int64(3),
		))
	lead, err := repo.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if lead.ID != 42 || lead.ProjectTimelineID != 3 {
		t.Fatalf("unexpected lead: %+v", lead)
	}

	mock.ExpectQuery("FROM contacts WHERE id").WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
