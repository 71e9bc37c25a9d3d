package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"hemolink/internal/notification"
	"hemolink/pkg/domain"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertNotification = `
	INSERT INTO notifications (
		id, user_id, is_global, type, blood_request_id, message,
		patient_name, recipient_blood_group, donor_blood_group, urgency_level,
		hospital_name, units_required, donor_name, donor_email, donor_phone,
		donor_message, contact_person, read, responded, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
`

func insertArgs(n notification.Notification) []any {
	var userID any
	if !n.UserID.IsNil() {
		userID = uuid.UUID(n.UserID)
	}
	return []any{
		uuid.UUID(n.ID), userID, n.IsGlobal, string(n.Type), uuid.UUID(n.BloodRequestID),
		n.Message, n.PatientName, n.RecipientGroup.String(), n.DonorGroup.String(),
		n.UrgencyLevel.String(), n.HospitalName, n.UnitsRequired, n.DonorName,
		n.DonorEmail, n.DonorPhone, n.DonorMessage, n.ContactPerson,
		n.Read, n.Responded, n.CreatedAt,
	}
}

func (s *PostgresStore) Create(ctx context.Context, n notification.Notification) error {
	if _, err := s.db.ExecContext(ctx, insertNotification, insertArgs(n)...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CreateBatch writes all notifications in one transaction; a failure rolls
// back the whole batch.
func (s *PostgresStore) CreateBatch(ctx context.Context, batch []notification.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, n := range batch {
		if _, err := tx.ExecContext(ctx, insertNotification, insertArgs(n)...); err != nil {
			return fmt.Errorf("insert notification batch entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkResponded(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET responded = TRUE, read = TRUE
		WHERE type = $1 AND blood_request_id = $2 AND user_id = $3
	`, string(notification.TypeBloodRequest), uuid.UUID(requestID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("mark notification responded: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByRequestAndUser(ctx context.Context, requestID domain.RequestID, userID domain.UserID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE type = $1 AND blood_request_id = $2 AND user_id = $3
	`, string(notification.TypeBloodRequest), uuid.UUID(requestID), uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByRequest(ctx context.Context, requestID domain.RequestID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE blood_request_id = $1`, uuid.UUID(requestID))
	if err != nil {
		return fmt.Errorf("delete notifications for request: %w", err)
	}
	return nil
}

func (s *PostgresStore) PromptRecipients(ctx context.Context, requestID domain.RequestID) ([]domain.UserID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM notifications
		WHERE type = $1 AND blood_request_id = $2 AND user_id IS NOT NULL
	`, string(notification.TypeBloodRequest), uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("query prompt recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.UserID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan prompt recipient: %w", err)
		}
		out = append(out, domain.UserID(id))
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID) ([]notification.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, is_global, type, blood_request_id, message,
		       patient_name, recipient_blood_group, donor_blood_group, urgency_level,
		       hospital_name, units_required, donor_name, donor_email, donor_phone,
		       donor_message, contact_person, read, responded, created_at
		FROM notifications
		WHERE is_global = TRUE OR user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var (
			n         notification.Notification
			id        uuid.UUID
			user      uuid.NullUUID
			requestID uuid.UUID
			kind      string
			recipient string
			donorBG   string
			urgency   string
		)
		err := rows.Scan(&id, &user, &n.IsGlobal, &kind, &requestID, &n.Message,
			&n.PatientName, &recipient, &donorBG, &urgency,
			&n.HospitalName, &n.UnitsRequired, &n.DonorName, &n.DonorEmail, &n.DonorPhone,
			&n.DonorMessage, &n.ContactPerson, &n.Read, &n.Responded, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = domain.NotificationID(id)
		if user.Valid {
			n.UserID = domain.UserID(user.UUID)
		}
		n.Type = notification.Type(kind)
		n.BloodRequestID = domain.RequestID(requestID)
		n.RecipientGroup = domain.BloodGroup(recipient)
		n.DonorGroup = domain.BloodGroup(donorBG)
		n.UrgencyLevel = domain.UrgencyLevel(urgency)
		out = append(out, n)
	}
	return out, rows.Err()
}
