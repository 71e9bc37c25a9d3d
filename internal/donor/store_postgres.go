package donor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

// PostgresDirectory reads donors from the users table. Rows with a missing
// or unknown blood group are filtered out here so the core never sees a
// half-formed Donor.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donor directory.
func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) FindActiveEligibleDonors(ctx context.Context, groups []domain.BloodGroup) ([]Donor, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(groups))
	args := make([]any, len(groups))
	for i, g := range groups {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = g.String()
	}

	query := fmt.Sprintf(`
		SELECT id, name, email, phone, blood_group, is_active, can_donate
		FROM users
		WHERE blood_group IN (%s)
		  AND is_active = TRUE
		  AND can_donate IS DISTINCT FROM FALSE
	`, strings.Join(placeholders, ", "))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible donors: %w", err)
	}
	defer rows.Close()

	var donors []Donor
	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		if !donor.Eligible() {
			continue
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligible donors: %w", err)
	}
	return donors, nil
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id domain.UserID) (Donor, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, blood_group, is_active, can_donate
		FROM users
		WHERE id = $1
	`, uuid.UUID(id))

	donor, err := scanDonor(row)
	if err == sql.ErrNoRows {
		return Donor{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}
	if err != nil {
		return Donor{}, err
	}
	return donor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDonor normalizes nullable columns into the strict Donor shape.
func scanDonor(row rowScanner) (Donor, error) {
	var (
		id         uuid.UUID
		name       sql.NullString
		email      sql.NullString
		phone      sql.NullString
		bloodGroup sql.NullString
		isActive   bool
		canDonate  sql.NullBool
	)
	if err := row.Scan(&id, &name, &email, &phone, &bloodGroup, &isActive, &canDonate); err != nil {
		if err == sql.ErrNoRows {
			return Donor{}, err
		}
		return Donor{}, fmt.Errorf("scan donor row: %w", err)
	}

	// can_donate defaults true unless explicitly disabled.
	donates := true
	if canDonate.Valid {
		donates = canDonate.Bool
	}

	return Donor{
		ID:         domain.UserID(id),
		Name:       name.String,
		Email:      email.String,
		Phone:      phone.String,
		BloodGroup: domain.BloodGroup(bloodGroup.String),
		IsActive:   isActive,
		CanDonate:  donates,
	}, nil
}
