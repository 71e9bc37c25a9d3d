//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors what the stores expect in production. Donor responses
// cascade with their request; notifications carry the full prompt payload
// inline so the feed never needs a join.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	name TEXT,
	email TEXT,
	phone TEXT,
	blood_group TEXT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	can_donate BOOLEAN
);

CREATE TABLE IF NOT EXISTS blood_requests (
	id UUID PRIMARY KEY,
	requester_id UUID,
	patient_name TEXT NOT NULL,
	blood_group TEXT NOT NULL,
	units_required INT NOT NULL,
	urgency_level TEXT NOT NULL,
	hospital_name TEXT NOT NULL,
	contact_person TEXT NOT NULL,
	contact_phone TEXT NOT NULL,
	contact_email TEXT NOT NULL DEFAULT '',
	medical_reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	fulfilled BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS donor_responses (
	request_id UUID NOT NULL REFERENCES blood_requests(id) ON DELETE CASCADE,
	donor_id UUID NOT NULL,
	donor_name TEXT NOT NULL DEFAULT '',
	donor_email TEXT NOT NULL DEFAULT '',
	donor_phone TEXT NOT NULL DEFAULT '',
	donor_blood_group TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	contact_shared BOOLEAN NOT NULL DEFAULT FALSE,
	responded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (request_id, donor_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	user_id UUID,
	is_global BOOLEAN NOT NULL DEFAULT FALSE,
	type TEXT NOT NULL,
	blood_request_id UUID NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	patient_name TEXT NOT NULL DEFAULT '',
	recipient_blood_group TEXT NOT NULL DEFAULT '',
	donor_blood_group TEXT NOT NULL DEFAULT '',
	urgency_level TEXT NOT NULL DEFAULT '',
	hospital_name TEXT NOT NULL DEFAULT '',
	units_required INT NOT NULL DEFAULT 0,
	donor_name TEXT NOT NULL DEFAULT '',
	donor_email TEXT NOT NULL DEFAULT '',
	donor_phone TEXT NOT NULL DEFAULT '',
	donor_message TEXT NOT NULL DEFAULT '',
	contact_person TEXT NOT NULL DEFAULT '',
	read BOOLEAN NOT NULL DEFAULT FALSE,
	responded BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_feed
	ON notifications (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_blood_requests_status
	ON blood_requests (status, created_at DESC);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("hemolink_test"),
		tcpostgres.WithUsername("hemolink"),
		tcpostgres.WithPassword("hemolink"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Cleanup is left to the singleton Manager and Ryuk; the container is
	// shared across suites.
	return &PostgresContainer{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
}

// TruncateTables removes all rows from the given tables. Pass tables in
// dependency order; CASCADE handles foreign keys either way.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
