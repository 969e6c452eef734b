package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gladiator-fit/backend/matchup"
	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/rank"
	"github.com/gladiator-fit/backend/repositories"
	"github.com/google/uuid"
)

// EventBroadcaster fans out already-committed state changes to websocket
// subscribers. Implemented by ws.Hub.
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	EventVoteCast        = "VOTE_CAST"
	EventBattleCompleted = "BATTLE_COMPLETED"
	EventGroupCompleted  = "GROUP_COMPLETED"
)

type VoteResult struct {
	VotesRemaining  int     `json:"votes_remaining"`
	BattleCompleted bool    `json:"battle_completed"`
	WinnerID        *string `json:"winner_id,omitempty"`
}

type VoteService interface {
	SubmitVote(ctx context.Context, battleID, voterID, votedForID string, feedback *string) (*VoteResult, error)
	ListVotableBattles(ctx context.Context, voterID string) ([]*models.Battle, error)
	History(ctx context.Context, voterID string, limit int) ([]*models.VoteHistoryEntry, error)
}

type voteService struct {
	tx          TxRunner
	voteRepo    repositories.VoteRepository
	battleRepo  repositories.BattleRepository
	groupRepo   repositories.VotingGroupRepository
	userRepo    repositories.UserRepository
	matchmaking MatchmakingService
	hub         EventBroadcaster
	logger      *slog.Logger
}

func NewVoteService(
	tx TxRunner,
	voteRepo repositories.VoteRepository,
	battleRepo repositories.BattleRepository,
	groupRepo repositories.VotingGroupRepository,
	userRepo repositories.UserRepository,
	matchmaking MatchmakingService,
	hub EventBroadcaster,
	logger *slog.Logger,
) VoteService {
	return &voteService{
		tx:          tx,
		voteRepo:    voteRepo,
		battleRepo:  battleRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		matchmaking: matchmaking,
		hub:         hub,
		logger:      logger,
	}
}

func (s *voteService) SubmitVote(ctx context.Context, battleID, voterID, votedForID string, feedback *string) (*VoteResult, error) {
	var result *VoteResult
	var groupCompleted bool
	var groupID string

	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		// The row lock serializes concurrent votes on the same battle: of
		// two racing eighth votes, the first to acquire the lock resolves
		// the battle and the second re-reads a completed status below.
		battle, err := s.battleRepo.GetByIDForUpdate(ctx, tx, battleID)
		if err != nil {
			if errors.Is(err, repositories.ErrBattleNotFound) {
				return ErrBattleNotFound
			}
			return err
		}

		member, err := s.groupRepo.GetVoterMembership(ctx, tx, voterID, battleID)
		if err != nil {
			if errors.Is(err, repositories.ErrVoterMembershipNotFound) {
				return ErrVoteForbidden
			}
			return err
		}
		groupID = member.GroupID

		if battle.Status != models.BattleStatusPending {
			return ErrBattleNotReady
		}
		if !battle.HasParticipant(votedForID) {
			return ErrInvalidVoteTarget
		}

		vote := &models.Vote{
			ID:         uuid.NewString(),
			BattleID:   battleID,
			VoterID:    voterID,
			VotedForID: votedForID,
			GroupID:    member.GroupID,
			Feedback:   feedback,
		}
		if err := s.voteRepo.Create(ctx, tx, vote); err != nil {
			if errors.Is(err, repositories.ErrDuplicateVote) {
				return ErrDuplicateVote
			}
			return err
		}

		count, err := s.voteRepo.CountByBattle(ctx, tx, battleID)
		if err != nil {
			return err
		}

		result = &VoteResult{
			VotesRemaining:  max(0, matchup.Quorum-count),
			BattleCompleted: count >= matchup.Quorum,
		}
		if count < matchup.Quorum {
			return nil
		}

		winnerID, err := s.resolveBattle(ctx, tx, battle)
		if err != nil {
			return err
		}
		result.WinnerID = &winnerID

		groupCompleted, err = s.matchmaking.CompleteGroupIfDone(ctx, tx, member.GroupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(battleID, groupID, result, groupCompleted)
	return result, nil
}

// resolveBattle tallies the final votes, records the winner and applies both
// competitors' stat and rank updates. Runs inside the vote's transaction.
func (s *voteService) resolveBattle(ctx context.Context, tx repositories.SQLExecutor, battle *models.Battle) (string, error) {
	tally, err := s.voteRepo.TallyByBattle(ctx, tx, battle.ID)
	if err != nil {
		return "", err
	}

	winnerID := matchup.DecideWinner(battle.User1ID, battle.User2ID, tally)
	loserID := battle.OpponentOf(winnerID)

	if err := s.battleRepo.Resolve(ctx, tx, battle.ID, winnerID); err != nil {
		return "", err
	}
	if err := s.userRepo.ApplyMatchResult(ctx, tx, winnerID, loserID); err != nil {
		return "", err
	}
	if err := s.advanceRank(ctx, tx, winnerID); err != nil {
		return "", err
	}
	if err := s.advanceRank(ctx, tx, loserID); err != nil {
		return "", err
	}

	s.logger.Info("battle resolved",
		slog.String("battle_id", battle.ID),
		slog.String("winner_id", winnerID))
	return winnerID, nil
}

func (s *voteService) advanceRank(ctx context.Context, tx repositories.SQLExecutor, userID string) error {
	user, err := s.userRepo.GetRankState(ctx, tx, userID)
	if err != nil {
		return err
	}

	next, changed := rank.Advance(rank.State{
		Tier:   user.Tier,
		Level:  user.Level,
		Points: user.Points,
	})
	if !changed {
		return nil
	}
	return s.userRepo.UpdateRank(ctx, tx, userID, next.Tier, next.Level)
}

func (s *voteService) broadcast(battleID, groupID string, result *VoteResult, groupCompleted bool) {
	if s.hub == nil {
		return
	}
	if result.BattleCompleted {
		s.hub.BroadcastToRoom(battleID, map[string]interface{}{
			"type":      EventBattleCompleted,
			"battle_id": battleID,
			"winner_id": result.WinnerID,
		})
	} else {
		s.hub.BroadcastToRoom(battleID, map[string]interface{}{
			"type":            EventVoteCast,
			"battle_id":       battleID,
			"votes_remaining": result.VotesRemaining,
		})
	}
	if groupCompleted && groupID != "" {
		s.hub.BroadcastToRoom(groupID, map[string]interface{}{
			"type":     EventGroupCompleted,
			"group_id": groupID,
		})
	}
}

func (s *voteService) ListVotableBattles(ctx context.Context, voterID string) ([]*models.Battle, error) {
	return s.voteRepo.ListVotableBattles(ctx, voterID)
}

func (s *voteService) History(ctx context.Context, voterID string, limit int) ([]*models.VoteHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.voteRepo.History(ctx, voterID, limit)
}
