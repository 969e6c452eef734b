package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gladiator-fit/backend/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

const userColumns = `id, email, password_hash, display_name, fitness_level, height_cm, weight_kg,
		age, gender, avatar_url, tier, level, points, wins, losses, created_at, updated_at`

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch) (*models.User, error)
	ApplyMatchResult(ctx context.Context, exec SQLExecutor, winnerID, loserID string) error
	GetRankState(ctx context.Context, exec SQLExecutor, id string) (*models.User, error)
	UpdateRank(ctx context.Context, exec SQLExecutor, id string, tier models.Tier, level int) error
	Leaderboard(ctx context.Context, limit int) ([]*models.User, error)
	RankPosition(ctx context.Context, id string) (int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, display_name, fitness_level)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tier, level, points, wins, losses, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.FitnessLevel,
	).Scan(
		&user.ID,
		&user.Tier,
		&user.Level,
		&user.Points,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return ErrUserEmailConflict
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// UpdateProfile translates the patch into a single parameterized UPDATE
// touching only the fields that are present.
func (r *postgresUserRepository) UpdateProfile(ctx context.Context, id string, patch models.UserProfilePatch) (*models.User, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.DisplayName != nil {
		add("display_name", *patch.DisplayName)
	}
	if patch.FitnessLevel != nil {
		add("fitness_level", *patch.FitnessLevel)
	}
	if patch.HeightCm != nil {
		add("height_cm", *patch.HeightCm)
	}
	if patch.WeightKg != nil {
		add("weight_kg", *patch.WeightKg)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Gender != nil {
		add("gender", *patch.Gender)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args))

	return r.scanUser(r.db.QueryRowContext(ctx, query, args...))
}

// ApplyMatchResult updates both competitors' counters in one statement pair:
// winner +1 win and +100 points, loser +1 loss and -50 points floored at zero.
// Must run inside the battle-resolution transaction.
func (r *postgresUserRepository) ApplyMatchResult(ctx context.Context, exec SQLExecutor, winnerID, loserID string) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE users
		SET wins = wins + 1, points = points + 100, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, winnerID)
	if err != nil {
		return fmt.Errorf("failed to apply win for user %s: %w", winnerID, err)
	}
	if err := checkAffectedRows(result, ErrUserNotFound); err != nil {
		return err
	}

	result, err = exec.ExecContext(ctx, `
		UPDATE users
		SET losses = losses + 1, points = GREATEST(points - 50, 0), updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, loserID)
	if err != nil {
		return fmt.Errorf("failed to apply loss for user %s: %w", loserID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) GetRankState(ctx context.Context, exec SQLExecutor, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) UpdateRank(ctx context.Context, exec SQLExecutor, id string, tier models.Tier, level int) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE users SET tier = $1, level = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		tier, level, id)
	if err != nil {
		return fmt.Errorf("failed to update rank for user %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY points DESC, wins DESC, created_at ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0, limit)
	for rows.Next() {
		user, scanErr := r.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during leaderboard rows iteration: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) RankPosition(ctx context.Context, id string) (int, error) {
	query := `
		SELECT position FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY points DESC, wins DESC, created_at ASC) AS position
			FROM users
		) ranked
		WHERE id = $1`

	var position int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to resolve rank position for user %s: %w", id, err)
	}
	return position, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresUserRepository) scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.FitnessLevel,
		&user.HeightCm,
		&user.WeightKg,
		&user.Age,
		&user.Gender,
		&user.AvatarURL,
		&user.Tier,
		&user.Level,
		&user.Points,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
