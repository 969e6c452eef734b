package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gladiator-fit/backend/models"
)

var (
	ErrBattleNotFound = errors.New("battle not found")
)

const battleColumns = `id, challenge_id, user1_id, user2_id, user1_video_url, user2_video_url,
		winner_id, status, started_at, completed_at`

type BattleRepository interface {
	Create(ctx context.Context, exec SQLExecutor, battle *models.Battle) error
	GetByID(ctx context.Context, id string) (*models.Battle, error)
	// GetByIDForUpdate locks the battle row for the remainder of the
	// caller's transaction. Both video submission and vote tallying
	// serialize on this lock.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Battle, error)
	FindLiveByUser(ctx context.Context, exec SQLExecutor, userID string) (*models.Battle, error)
	ListLiveByUser(ctx context.Context, userID string) ([]*models.Battle, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*models.Battle, error)
	SetVideoURL(ctx context.Context, exec SQLExecutor, id string, slot int, videoURL string) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.BattleStatus) error
	Resolve(ctx context.Context, exec SQLExecutor, id string, winnerID string) error
	RecordUpload(ctx context.Context, exec SQLExecutor, userID, battleID, videoURL string) error
	// CountByGroup returns total and completed battle counts for the
	// competitor-owned battles of a voting group.
	CountByGroup(ctx context.Context, exec SQLExecutor, groupID string) (total int, completed int, err error)
}

type postgresBattleRepository struct {
	db *sql.DB
}

func NewPostgresBattleRepository(db *sql.DB) BattleRepository {
	return &postgresBattleRepository{db: db}
}

func (r *postgresBattleRepository) Create(ctx context.Context, exec SQLExecutor, battle *models.Battle) error {
	query := `
		INSERT INTO battles (id, challenge_id, user1_id, user2_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := exec.ExecContext(ctx, query,
		battle.ID,
		battle.ChallengeID,
		battle.User1ID,
		battle.User2ID,
		battle.Status,
		battle.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create battle %s: %w", battle.ID, err)
	}
	return nil
}

func (r *postgresBattleRepository) GetByID(ctx context.Context, id string) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1`
	return scanBattle(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresBattleRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + ` FROM battles WHERE id = $1 FOR UPDATE`
	return scanBattle(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresBattleRepository) FindLiveByUser(ctx context.Context, exec SQLExecutor, userID string) (*models.Battle, error) {
	query := `SELECT ` + battleColumns + `
		FROM battles
		WHERE (user1_id = $1 OR user2_id = $1) AND status IN ('pending', 'active')
		ORDER BY started_at DESC
		LIMIT 1`
	return scanBattle(exec.QueryRowContext(ctx, query, userID))
}

func (r *postgresBattleRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*models.Battle, error) {
	query := `SELECT ` + battleColumns + `
		FROM battles
		WHERE (user1_id = $1 OR user2_id = $1) AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent battles for user %s: %w", userID, err)
	}
	defer rows.Close()

	battles := make([]*models.Battle, 0, limit)
	for rows.Next() {
		battle, scanErr := scanBattle(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		battles = append(battles, battle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during recent battle rows iteration: %w", err)
	}
	return battles, nil
}

func (r *postgresBattleRepository) ListLiveByUser(ctx context.Context, userID string) ([]*models.Battle, error) {
	query := `SELECT ` + battleColumns + `
		FROM battles
		WHERE (user1_id = $1 OR user2_id = $1) AND status IN ('pending', 'active')
		ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query live battles for user %s: %w", userID, err)
	}
	defer rows.Close()

	battles := make([]*models.Battle, 0)
	for rows.Next() {
		battle, scanErr := scanBattle(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		battles = append(battles, battle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during battle rows iteration: %w", err)
	}
	return battles, nil
}

func (r *postgresBattleRepository) SetVideoURL(ctx context.Context, exec SQLExecutor, id string, slot int, videoURL string) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE battles SET user1_video_url = $1 WHERE id = $2`
	case 2:
		query = `UPDATE battles SET user2_video_url = $1 WHERE id = $2`
	default:
		return fmt.Errorf("invalid battle slot %d", slot)
	}

	result, err := exec.ExecContext(ctx, query, videoURL, id)
	if err != nil {
		return fmt.Errorf("failed to set video url for battle %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleNotFound)
}

func (r *postgresBattleRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.BattleStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE battles SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update battle %s status: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleNotFound)
}

func (r *postgresBattleRepository) Resolve(ctx context.Context, exec SQLExecutor, id string, winnerID string) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE battles
		SET winner_id = $1, status = 'completed', completed_at = CURRENT_TIMESTAMP
		WHERE id = $2`, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to resolve battle %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrBattleNotFound)
}

func (r *postgresBattleRepository) RecordUpload(ctx context.Context, exec SQLExecutor, userID, battleID, videoURL string) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO video_uploads (user_id, battle_id, video_url)
		VALUES ($1, $2, $3)`, userID, battleID, videoURL)
	if err != nil {
		return fmt.Errorf("failed to record video upload for battle %s: %w", battleID, err)
	}
	return nil
}

func (r *postgresBattleRepository) CountByGroup(ctx context.Context, exec SQLExecutor, groupID string) (int, int, error) {
	query := `
		SELECT COUNT(DISTINCT b.id) AS total,
		       COUNT(DISTINCT b.id) FILTER (WHERE b.status = 'completed') AS completed
		FROM battles b
		JOIN voting_group_members vgm ON b.id = vgm.battle_id
		WHERE vgm.group_id = $1 AND vgm.role = 'competitor'`

	var total, completed int
	if err := exec.QueryRowContext(ctx, query, groupID).Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count battles for group %s: %w", groupID, err)
	}
	return total, completed, nil
}

func scanBattle(row rowScanner) (*models.Battle, error) {
	battle := &models.Battle{}
	err := row.Scan(
		&battle.ID,
		&battle.ChallengeID,
		&battle.User1ID,
		&battle.User2ID,
		&battle.User1VideoURL,
		&battle.User2VideoURL,
		&battle.WinnerID,
		&battle.Status,
		&battle.StartedAt,
		&battle.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBattleNotFound
		}
		return nil, fmt.Errorf("failed to scan battle: %w", err)
	}
	return battle, nil
}
