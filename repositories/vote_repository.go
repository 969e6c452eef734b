package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gladiator-fit/backend/models"
	"github.com/lib/pq"
)

// ErrDuplicateVote surfaces the one_vote_per_battle unique index. The
// constraint, not an application pre-check, is what closes the race between
// two identical concurrent requests.
var ErrDuplicateVote = errors.New("duplicate vote for this battle")

type VoteRepository interface {
	Create(ctx context.Context, exec SQLExecutor, vote *models.Vote) error
	CountByBattle(ctx context.Context, exec SQLExecutor, battleID string) (int, error)
	TallyByBattle(ctx context.Context, exec SQLExecutor, battleID string) (map[string]int, error)
	ListVotableBattles(ctx context.Context, voterID string) ([]*models.Battle, error)
	History(ctx context.Context, voterID string, limit int) ([]*models.VoteHistoryEntry, error)
	AccuracyByVoter(ctx context.Context, voterID string) (correct int, total int, err error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

func (r *postgresVoteRepository) Create(ctx context.Context, exec SQLExecutor, vote *models.Vote) error {
	query := `
		INSERT INTO votes (id, battle_id, voter_id, voted_for_id, group_id, feedback)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		vote.ID,
		vote.BattleID,
		vote.VoterID,
		vote.VotedForID,
		vote.GroupID,
		vote.Feedback,
	).Scan(&vote.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "one_vote_per_battle" {
				return ErrDuplicateVote
			}
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func (r *postgresVoteRepository) CountByBattle(ctx context.Context, exec SQLExecutor, battleID string) (int, error) {
	var count int
	err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE battle_id = $1`, battleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes for battle %s: %w", battleID, err)
	}
	return count, nil
}

func (r *postgresVoteRepository) TallyByBattle(ctx context.Context, exec SQLExecutor, battleID string) (map[string]int, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT voted_for_id, COUNT(*)
		FROM votes
		WHERE battle_id = $1
		GROUP BY voted_for_id`, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes for battle %s: %w", battleID, err)
	}
	defer rows.Close()

	tally := make(map[string]int, 2)
	for rows.Next() {
		var votedForID string
		var count int
		if scanErr := rows.Scan(&votedForID, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan vote tally row: %w", scanErr)
		}
		tally[votedForID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during vote tally rows iteration: %w", err)
	}
	return tally, nil
}

func (r *postgresVoteRepository) ListVotableBattles(ctx context.Context, voterID string) ([]*models.Battle, error) {
	query := `
		SELECT DISTINCT ` + prefixedBattleColumns("b") + `
		FROM voting_group_members vgm
		JOIN battles b ON vgm.battle_id = b.id
		LEFT JOIN votes v ON v.battle_id = b.id AND v.voter_id = $1
		WHERE vgm.user_id = $1
		AND vgm.role = 'voter'
		AND b.status = 'pending'
		AND v.id IS NULL
		ORDER BY b.started_at ASC`

	rows, err := r.db.QueryContext(ctx, query, voterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votable battles for user %s: %w", voterID, err)
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
		return nil, fmt.Errorf("error during votable battle rows iteration: %w", err)
	}
	return battles, nil
}

func (r *postgresVoteRepository) History(ctx context.Context, voterID string, limit int) ([]*models.VoteHistoryEntry, error) {
	query := `
		SELECT v.id, v.battle_id, v.voter_id, v.voted_for_id, v.group_id, v.feedback, v.created_at,
		       b.status, b.winner_id, c.title, u.display_name
		FROM votes v
		JOIN battles b ON v.battle_id = b.id
		JOIN challenges c ON b.challenge_id = c.id
		JOIN users u ON v.voted_for_id = u.id
		WHERE v.voter_id = $1
		ORDER BY v.created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, voterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote history for user %s: %w", voterID, err)
	}
	defer rows.Close()

	entries := make([]*models.VoteHistoryEntry, 0)
	for rows.Next() {
		entry := &models.VoteHistoryEntry{}
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.BattleID,
			&entry.VoterID,
			&entry.VotedForID,
			&entry.GroupID,
			&entry.Feedback,
			&entry.CreatedAt,
			&entry.BattleStatus,
			&entry.WinnerID,
			&entry.ChallengeTitle,
			&entry.VotedForName,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan vote history row: %w", scanErr)
		}
		if entry.WinnerID != nil {
			correct := *entry.WinnerID == entry.VotedForID
			entry.VoteCorrect = &correct
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during vote history rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresVoteRepository) AccuracyByVoter(ctx context.Context, voterID string) (int, int, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE b.winner_id = v.voted_for_id), COUNT(*)
		FROM votes v
		JOIN battles b ON v.battle_id = b.id
		WHERE v.voter_id = $1 AND b.status = 'completed'`

	var correct, total int
	err := r.db.QueryRowContext(ctx, query, voterID).Scan(&correct, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query vote accuracy for user %s: %w", voterID, err)
	}
	return correct, total, nil
}

func prefixedBattleColumns(alias string) string {
	return alias + `.id, ` + alias + `.challenge_id, ` + alias + `.user1_id, ` + alias + `.user2_id, ` +
		alias + `.user1_video_url, ` + alias + `.user2_video_url, ` + alias + `.winner_id, ` +
		alias + `.status, ` + alias + `.started_at, ` + alias + `.completed_at`
}
