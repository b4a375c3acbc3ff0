package offers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talentchain/marketplace/backend/services/offers/models"
)

// ErrNotFound is returned when no offer exists for an id.
var ErrNotFound = errors.New("offer not found")

// OfferStore persists hiring offers.
type OfferStore interface {
	Create(ctx context.Context, offer models.Offer) (models.Offer, error)
	FindByID(ctx context.Context, id string) (models.Offer, error)
	Update(ctx context.Context, offer models.Offer) (models.Offer, error)
	List(ctx context.Context, page, limit int) ([]models.Offer, int, error)
}

// PostgresStore implements OfferStore over the offers table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const offerColumns = `id, job_description, start_date, end_date, total_work_hours, total_pay,
	employer_wallet, talent_id, status, COALESCE(payment_tx_hash, ''),
	work_started_at, work_completed_at, created_at, updated_at`

func scanOffer(row interface{ Scan(...interface{}) error }) (models.Offer, error) {
	var offer models.Offer
	var started, completed sql.NullTime
	err := row.Scan(&offer.ID, &offer.JobDescription, &offer.StartDate, &offer.EndDate,
		&offer.TotalWorkHours, &offer.TotalPay, &offer.EmployerWallet, &offer.TalentID,
		&offer.Status, &offer.PaymentTxHash, &started, &completed,
		&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return models.Offer{}, err
	}
	if started.Valid {
		t := started.Time
		offer.WorkStartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		offer.WorkCompletedAt = &t
	}
	return offer, nil
}

func (s *PostgresStore) Create(ctx context.Context, offer models.Offer) (models.Offer, error) {
	created, err := scanOffer(s.db.QueryRowContext(ctx, `
		INSERT INTO offers (id, job_description, start_date, end_date, total_work_hours,
			total_pay, employer_wallet, talent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+offerColumns,
		offer.ID, offer.JobDescription, offer.StartDate, offer.EndDate,
		offer.TotalWorkHours, offer.TotalPay, offer.EmployerWallet, offer.TalentID,
		offer.Status))
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to create offer: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Offer, error) {
	offer, err := scanOffer(s.db.QueryRowContext(ctx,
		"SELECT "+offerColumns+" FROM offers WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to query offer: %w", err)
	}
	return offer, nil
}

func (s *PostgresStore) Update(ctx context.Context, offer models.Offer) (models.Offer, error) {
	updated, err := scanOffer(s.db.QueryRowContext(ctx, `
		UPDATE offers
		SET status = $1, payment_tx_hash = NULLIF($2, ''), work_started_at = $3,
			work_completed_at = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+offerColumns,
		offer.Status, offer.PaymentTxHash, offer.WorkStartedAt, offer.WorkCompletedAt,
		offer.ID))
	if err == sql.ErrNoRows {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to update offer: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) List(ctx context.Context, page, limit int) ([]models.Offer, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offers").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+offerColumns+` FROM offers
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	return offers, total, rows.Err()
}
