package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gladiator-fit/backend/models"
	"github.com/lib/pq"
)

var (
	ErrVotingGroupNotFound     = errors.New("voting group not found")
	ErrGroupMemberConflict     = errors.New("voting group membership conflict")
	ErrVoterMembershipNotFound = errors.New("voter membership not found")
)

type VotingGroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.VotingGroup) error
	// FindOpenGroupID returns the id of the pending group with the most
	// competitors still below capacity, or ErrVotingGroupNotFound.
	FindOpenGroupID(ctx context.Context, exec SQLExecutor) (string, error)
	// LockGroup takes a row-level lock on the group for the rest of the
	// transaction. Enrollments racing for the last slot serialize here.
	LockGroup(ctx context.Context, exec SQLExecutor, id string) error
	AddMember(ctx context.Context, exec SQLExecutor, member *models.VotingGroupMember) error
	CompetitorCount(ctx context.Context, exec SQLExecutor, groupID string) (int, error)
	ListCompetitorIDs(ctx context.Context, exec SQLExecutor, groupID string) ([]string, error)
	SetCompetitorBattle(ctx context.Context, exec SQLExecutor, groupID, battleID string, userIDs []string) error
	// HasPendingMembership reports whether the user holds a competitor row
	// in any still-pending group.
	HasPendingMembership(ctx context.Context, exec SQLExecutor, userID string) (bool, error)
	PendingCompetitorCountFor(ctx context.Context, exec SQLExecutor, userID string) (int, error)
	GetVoterMembership(ctx context.Context, exec SQLExecutor, voterID, battleID string) (*models.VotingGroupMember, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.VotingGroupStatus) error
	GetByID(ctx context.Context, id string) (*models.VotingGroup, error)
}

type postgresVotingGroupRepository struct {
	db *sql.DB
}

func NewPostgresVotingGroupRepository(db *sql.DB) VotingGroupRepository {
	return &postgresVotingGroupRepository{db: db}
}

func (r *postgresVotingGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.VotingGroup) error {
	query := `
		INSERT INTO voting_groups (id, status)
		VALUES ($1, $2)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query, group.ID, group.Status).Scan(&group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create voting group: %w", err)
	}
	return nil
}

func (r *postgresVotingGroupRepository) FindOpenGroupID(ctx context.Context, exec SQLExecutor) (string, error) {
	query := `
		SELECT vg.id
		FROM voting_groups vg
		LEFT JOIN voting_group_members vgm
			ON vg.id = vgm.group_id AND vgm.role = 'competitor'
		WHERE vg.status = 'pending'
		GROUP BY vg.id
		HAVING COUNT(vgm.user_id) < $1
		ORDER BY COUNT(vgm.user_id) DESC
		LIMIT 1`

	var id string
	err := exec.QueryRowContext(ctx, query, models.GroupSize).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrVotingGroupNotFound
		}
		return "", fmt.Errorf("failed to find open voting group: %w", err)
	}
	return id, nil
}

func (r *postgresVotingGroupRepository) LockGroup(ctx context.Context, exec SQLExecutor, id string) error {
	var locked string
	err := exec.QueryRowContext(ctx, `SELECT id FROM voting_groups WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVotingGroupNotFound
		}
		return fmt.Errorf("failed to lock voting group %s: %w", id, err)
	}
	return nil
}

func (r *postgresVotingGroupRepository) AddMember(ctx context.Context, exec SQLExecutor, member *models.VotingGroupMember) error {
	query := `
		INSERT INTO voting_group_members (id, group_id, user_id, role, battle_id)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := exec.ExecContext(ctx, query,
		member.ID,
		member.GroupID,
		member.UserID,
		member.Role,
		member.BattleID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrGroupMemberConflict
		}
		return fmt.Errorf("failed to add %s member to group %s: %w", member.Role, member.GroupID, err)
	}
	return nil
}

func (r *postgresVotingGroupRepository) CompetitorCount(ctx context.Context, exec SQLExecutor, groupID string) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM voting_group_members
		WHERE group_id = $1 AND role = 'competitor'`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count competitors in group %s: %w", groupID, err)
	}
	return count, nil
}

func (r *postgresVotingGroupRepository) ListCompetitorIDs(ctx context.Context, exec SQLExecutor, groupID string) ([]string, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT user_id FROM voting_group_members
		WHERE group_id = $1 AND role = 'competitor'
		ORDER BY created_at ASC, user_id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for group %s: %w", groupID, err)
	}
	defer rows.Close()

	ids := make([]string, 0, models.GroupSize)
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competitor id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competitor rows iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresVotingGroupRepository) SetCompetitorBattle(ctx context.Context, exec SQLExecutor, groupID, battleID string, userIDs []string) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE voting_group_members
		SET battle_id = $1
		WHERE group_id = $2 AND role = 'competitor' AND user_id = ANY($3)`,
		battleID, groupID, pq.Array(userIDs))
	if err != nil {
		return fmt.Errorf("failed to assign battle %s to competitors: %w", battleID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected != int64(len(userIDs)) {
		return fmt.Errorf("expected %d competitor rows for battle %s, updated %d", len(userIDs), battleID, affected)
	}
	return nil
}

func (r *postgresVotingGroupRepository) HasPendingMembership(ctx context.Context, exec SQLExecutor, userID string) (bool, error) {
	var exists bool
	err := exec.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM voting_group_members vgm
			JOIN voting_groups vg ON vgm.group_id = vg.id
			WHERE vgm.user_id = $1 AND vgm.role = 'competitor' AND vg.status = 'pending'
		)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending membership for user %s: %w", userID, err)
	}
	return exists, nil
}

func (r *postgresVotingGroupRepository) PendingCompetitorCountFor(ctx context.Context, exec SQLExecutor, userID string) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM voting_group_members peers
		WHERE peers.role = 'competitor'
		AND peers.group_id = (
			SELECT vgm.group_id
			FROM voting_group_members vgm
			JOIN voting_groups vg ON vgm.group_id = vg.id
			WHERE vgm.user_id = $1 AND vgm.role = 'competitor' AND vg.status = 'pending'
			LIMIT 1
		)`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending group peers for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *postgresVotingGroupRepository) GetVoterMembership(ctx context.Context, exec SQLExecutor, voterID, battleID string) (*models.VotingGroupMember, error) {
	query := `
		SELECT id, group_id, user_id, role, battle_id, created_at
		FROM voting_group_members
		WHERE user_id = $1 AND battle_id = $2 AND role = 'voter'`

	member := &models.VotingGroupMember{}
	err := exec.QueryRowContext(ctx, query, voterID, battleID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.BattleID,
		&member.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoterMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan voter membership: %w", err)
	}
	return member, nil
}

func (r *postgresVotingGroupRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id string, status models.VotingGroupStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE voting_groups SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update voting group %s status: %w", id, err)
	}
	return checkAffectedRows(result, ErrVotingGroupNotFound)
}

func (r *postgresVotingGroupRepository) GetByID(ctx context.Context, id string) (*models.VotingGroup, error) {
	group := &models.VotingGroup{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, created_at FROM voting_groups WHERE id = $1`, id).Scan(
		&group.ID,
		&group.Status,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVotingGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan voting group %s: %w", id, err)
	}
	return group, nil
}
