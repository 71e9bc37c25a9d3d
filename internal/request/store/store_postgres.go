package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// upsertAttempts bounds internal retries on serialization conflicts before
// the error surfaces to the caller as transient.
const upsertAttempts = 3

// PostgresStore persists blood requests in PostgreSQL. Donor responses live
// in their own table keyed (request_id, donor_id); the upsert is a single
// ON CONFLICT statement so concurrent donors cannot lose updates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req *models.BloodRequest) error {
	var requesterID any
	if req.RequesterID != nil {
		requesterID = uuid.UUID(*req.RequesterID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blood_requests (
			id, requester_id, patient_name, blood_group, units_required,
			urgency_level, hospital_name, contact_person, contact_phone,
			contact_email, medical_reason, status, fulfilled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		uuid.UUID(req.ID), requesterID, req.PatientName, req.BloodGroup.String(),
		req.UnitsRequired, req.UrgencyLevel.String(), req.HospitalName,
		req.ContactPerson, req.ContactPhone, req.ContactEmail, req.MedicalReason,
		req.Status.String(), req.Fulfilled, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, requester_id, patient_name, blood_group, units_required,
		       urgency_level, hospital_name, contact_person, contact_phone,
		       contact_email, medical_reason, status, fulfilled, created_at, updated_at
		FROM blood_requests
		WHERE id = $1
	`, uuid.UUID(id))

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadResponses(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*models.BloodRequest, error) {
	query := `
		SELECT id, requester_id, patient_name, blood_group, units_required,
		       urgency_level, hospital_name, contact_person, contact_phone,
		       contact_email, medical_reason, status, fulfilled, created_at, updated_at
		FROM blood_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR blood_group = $2)
		  AND ($3 = '' OR urgency_level = $3)
		ORDER BY created_at DESC
	`
	args := []any{filter.Status.String(), filter.BloodGroup.String(), filter.Urgency.String()}
	if filter.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()

	var out []*models.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood requests: %w", err)
	}

	for _, req := range out {
		if err := s.loadResponses(ctx, req); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) UpsertDonorResponse(ctx context.Context, id domain.RequestID, resp models.DonorResponse) error {
	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		err := s.upsertOnce(ctx, id, resp)
		if err == nil || err == ErrNotFound {
			return err
		}
		if !retryableConflict(err) {
			return err
		}
		lastErr = err
	}
	return dErrors.Wrap(lastErr, dErrors.CodeConflict, "donor response upsert kept conflicting")
}

func (s *PostgresStore) upsertOnce(ctx context.Context, id domain.RequestID, resp models.DonorResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE blood_requests SET updated_at = $2 WHERE id = $1`,
		uuid.UUID(id), time.Now())
	if err != nil {
		return fmt.Errorf("touch blood request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch blood request: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO donor_responses (
			request_id, donor_id, donor_name, donor_email, donor_phone,
			donor_blood_group, response, message, contact_shared, responded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (request_id, donor_id) DO UPDATE SET
			donor_name = EXCLUDED.donor_name,
			donor_email = EXCLUDED.donor_email,
			donor_phone = EXCLUDED.donor_phone,
			donor_blood_group = EXCLUDED.donor_blood_group,
			response = EXCLUDED.response,
			message = EXCLUDED.message,
			contact_shared = EXCLUDED.contact_shared,
			responded_at = EXCLUDED.responded_at
	`,
		uuid.UUID(id), uuid.UUID(resp.DonorID), resp.DonorName, resp.DonorEmail,
		resp.DonorPhone, resp.DonorBloodGroup.String(), resp.Response.String(),
		resp.Message, resp.ContactShared, resp.RespondedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert donor response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

// retryableConflict matches serialization failures and deadlocks, which
// PostgreSQL asks clients to retry.
func retryableConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.RequestID, status models.RequestStatus, fulfilled bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE blood_requests
		SET status = $2, fulfilled = $3, updated_at = $4
		WHERE id = $1
	`, uuid.UUID(id), status.String(), fulfilled, time.Now())
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.RequestID) error {
	// donor_responses rows cascade with the request.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blood_requests WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete blood request: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadResponses(ctx context.Context, req *models.BloodRequest) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT donor_id, donor_name, donor_email, donor_phone,
		       donor_blood_group, response, message, contact_shared, responded_at
		FROM donor_responses
		WHERE request_id = $1
		ORDER BY responded_at
	`, uuid.UUID(req.ID))
	if err != nil {
		return fmt.Errorf("load donor responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			donorID    uuid.UUID
			resp       models.DonorResponse
			bloodGroup string
			kind       string
		)
		if err := rows.Scan(&donorID, &resp.DonorName, &resp.DonorEmail, &resp.DonorPhone,
			&bloodGroup, &kind, &resp.Message, &resp.ContactShared, &resp.RespondedAt); err != nil {
			return fmt.Errorf("scan donor response: %w", err)
		}
		resp.DonorID = domain.UserID(donorID)
		resp.DonorBloodGroup = domain.BloodGroup(bloodGroup)
		resp.Response = models.ResponseKind(kind)
		req.DonorResponses = append(req.DonorResponses, resp)
	}
	return rows.Err()
}

type requestScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row requestScanner) (*models.BloodRequest, error) {
	var (
		req         models.BloodRequest
		id          uuid.UUID
		requesterID uuid.NullUUID
		bloodGroup  string
		urgency     string
		status      string
	)
	err := row.Scan(&id, &requesterID, &req.PatientName, &bloodGroup, &req.UnitsRequired,
		&urgency, &req.HospitalName, &req.ContactPerson, &req.ContactPhone,
		&req.ContactEmail, &req.MedicalReason, &status, &req.Fulfilled,
		&req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan blood request: %w", err)
	}

	req.ID = domain.RequestID(id)
	if requesterID.Valid {
		rid := domain.UserID(requesterID.UUID)
		req.RequesterID = &rid
	}
	req.BloodGroup = domain.BloodGroup(bloodGroup)
	req.UrgencyLevel = domain.UrgencyLevel(urgency)
	req.Status = models.RequestStatus(status)
	return &req, nil
}
