package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gladiator-fit/backend/models"
)

var ErrChallengeNotFound = errors.New("challenge not found")

type ChallengeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	ListActive(ctx context.Context, difficulty *models.FitnessLevel, limit int) ([]*models.Challenge, error)
	// ListActiveIDs returns the ids of all active challenges at the given
	// difficulty; the caller does the random pick so the randomness source
	// stays injectable.
	ListActiveIDs(ctx context.Context, exec SQLExecutor, difficulty models.FitnessLevel) ([]string, error)
}

type postgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) ChallengeRepository {
	return &postgresChallengeRepository{db: db}
}

func (r *postgresChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	query := `
		SELECT id, title, description, duration_sec, difficulty, active, created_at
		FROM challenges
		WHERE id = $1 AND active = TRUE`

	challenge := &models.Challenge{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&challenge.ID,
		&challenge.Title,
		&challenge.Description,
		&challenge.DurationSec,
		&challenge.Difficulty,
		&challenge.Active,
		&challenge.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to scan challenge %s: %w", id, err)
	}
	return challenge, nil
}

func (r *postgresChallengeRepository) ListActive(ctx context.Context, difficulty *models.FitnessLevel, limit int) ([]*models.Challenge, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, title, description, duration_sec, difficulty, active, created_at
		FROM challenges
		WHERE active = TRUE`)

	args := []interface{}{}
	if difficulty != nil {
		args = append(args, *difficulty)
		queryBuilder.WriteString(" AND difficulty = $" + strconv.Itoa(len(args)))
	}
	args = append(args, limit)
	queryBuilder.WriteString(" ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*models.Challenge, 0)
	for rows.Next() {
		var c models.Challenge
		if scanErr := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.DurationSec,
			&c.Difficulty,
			&c.Active,
			&c.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", scanErr)
		}
		challenges = append(challenges, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during challenge rows iteration: %w", err)
	}
	return challenges, nil
}

func (r *postgresChallengeRepository) ListActiveIDs(ctx context.Context, exec SQLExecutor, difficulty models.FitnessLevel) ([]string, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT id FROM challenges WHERE active = TRUE AND difficulty = $1 ORDER BY id`, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge ids for difficulty %s: %w", difficulty, err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan challenge id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during challenge id rows iteration: %w", err)
	}
	return ids, nil
}
