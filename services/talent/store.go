package talent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/talentchain/marketplace/backend/services/talent/models"
)

// ErrNotFound is returned when no talent exists for an id.
var ErrNotFound = errors.New("talent not found")

// TalentStore persists talent profiles.
type TalentStore interface {
	Create(ctx context.Context, talent models.Talent) (models.Talent, error)
	FindByID(ctx context.Context, id string) (models.Talent, error)
	Search(ctx context.Context, q models.SearchQuery) ([]models.Talent, int, error)
}

// PostgresStore implements TalentStore over the talents table. Skills live
// in a jsonb column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const talentColumns = `id, name, description, skills, availability, experience, location,
	wallet_address, COALESCE(image_url, ''), created_at, updated_at`

func scanTalent(row interface{ Scan(...interface{}) error }) (models.Talent, error) {
	var t models.Talent
	var skills []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &skills, &t.Availability,
		&t.Experience, &t.Location, &t.WalletAddress, &t.ImageURL,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Talent{}, err
	}
	if err := json.Unmarshal(skills, &t.Skills); err != nil {
		return models.Talent{}, fmt.Errorf("failed to decode skills: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Create(ctx context.Context, talent models.Talent) (models.Talent, error) {
	skills, err := json.Marshal(talent.Skills)
	if err != nil {
		return models.Talent{}, fmt.Errorf("failed to encode skills: %w", err)
	}

	created, err := scanTalent(s.db.QueryRowContext(ctx, `
		INSERT INTO talents (id, name, description, skills, availability, experience,
			location, wallet_address, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		RETURNING `+talentColumns,
		talent.ID, talent.Name, talent.Description, skills, talent.Availability,
		talent.Experience, talent.Location, talent.WalletAddress, talent.ImageURL))
	if err != nil {
		return models.Talent{}, fmt.Errorf("failed to create talent: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Talent, error) {
	talent, err := scanTalent(s.db.QueryRowContext(ctx,
		"SELECT "+talentColumns+" FROM talents WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return models.Talent{}, ErrNotFound
	}
	if err != nil {
		return models.Talent{}, fmt.Errorf("failed to query talent: %w", err)
	}
	return talent, nil
}

// orderClause maps the requested sort onto a whitelisted ORDER BY expression.
// For the skill-level fields an ascending sort ranks by the talent's cheapest
// (or least experienced) skill and a descending sort by the priciest, so a
// multi-skill profile sorts by its best match for the requested direction.
func orderClause(q models.SearchQuery) string {
	dir, agg := "DESC", "MAX"
	if q.SortOrder == models.SortAsc {
		dir, agg = "ASC", "MIN"
	}
	switch q.SortBy {
	case models.SortByHourlyRate:
		return fmt.Sprintf("(SELECT %s((sk->>'hourlyRate')::numeric) FROM jsonb_array_elements(skills) sk) %s", agg, dir)
	case models.SortByYears:
		return fmt.Sprintf("(SELECT %s((sk->>'yearsOfExperience')::int) FROM jsonb_array_elements(skills) sk) %s", agg, dir)
	case models.SortByExperience:
		return "experience " + dir
	default:
		return "created_at " + dir
	}
}

func (s *PostgresStore) Search(ctx context.Context, q models.SearchQuery) ([]models.Talent, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if q.Query != "" {
		args = append(args, "%"+q.Query+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if len(q.Skills) > 0 {
		patterns := make([]string, len(q.Skills))
		for i, skill := range q.Skills {
			patterns[i] = "%" + skill + "%"
		}
		args = append(args, pq.Array(patterns))
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(skills) sk
			WHERE sk->>'name' ILIKE ANY($%d))`, len(args))
	}
	if q.MinRate != "" {
		args = append(args, q.MinRate)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(skills) sk
			WHERE (sk->>'hourlyRate')::numeric >= $%d::numeric)`, len(args))
	}
	if q.MaxRate != "" {
		args = append(args, q.MaxRate)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(skills) sk
			WHERE (sk->>'hourlyRate')::numeric <= $%d::numeric)`, len(args))
	}
	if q.MinYears > 0 {
		args = append(args, q.MinYears)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(skills) sk
			WHERE (sk->>'yearsOfExperience')::int >= $%d)`, len(args))
	}
	if q.MaxYears > 0 {
		args = append(args, q.MaxYears)
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(skills) sk
			WHERE (sk->>'yearsOfExperience')::int <= $%d)`, len(args))
	}
	if q.Availability == "available" {
		where += " AND availability = TRUE"
	} else if q.Availability == "unavailable" {
		where += " AND availability = FALSE"
	}
	if q.Location != "" {
		args = append(args, q.Location)
		where += fmt.Sprintf(" AND location = $%d", len(args))
	}
	if q.Experience != "" {
		args = append(args, q.Experience)
		where += fmt.Sprintf(" AND experience = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM talents"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count talents: %w", err)
	}

	args = append(args, (q.Page-1)*q.Limit, q.Limit)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+talentColumns+" FROM talents"+where+
			fmt.Sprintf(" ORDER BY %s OFFSET $%d LIMIT $%d", orderClause(q), len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search talents: %w", err)
	}
	defer rows.Close()

	var talents []models.Talent
	for rows.Next() {
		talent, err := scanTalent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan talent: %w", err)
		}
		talents = append(talents, talent)
	}
	return talents, total, rows.Err()
}
